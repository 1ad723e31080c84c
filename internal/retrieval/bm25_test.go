package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBM25Retriever_Retrieve(t *testing.T) {
	transcript := "The patient reports severe chest pain radiating to the left arm. " +
		"Vital signs are stable with blood pressure of 120 over 80. " +
		"No history of diabetes or hypertension was noted during the visit."

	tests := []struct {
		name      string
		claim     string
		topK      int
		wantEmpty bool
	}{
		{
			name:  "matches relevant chunk",
			claim: "chest pain radiating to the left arm",
			topK:  3,
		},
		{
			name:      "no overlapping terms returns nothing above floor",
			claim:     "xylophone quasar nebula",
			topK:      3,
			wantEmpty: true,
		},
		{
			name:      "empty claim returns nothing",
			claim:     "",
			topK:      3,
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewBM25Retriever(transcript, defaultBM25Config())
			require.NoError(t, err)

			spans, err := r.Retrieve(context.Background(), tt.claim, tt.topK, nil)
			require.NoError(t, err)

			if tt.wantEmpty {
				assert.Empty(t, spans)
				return
			}
			require.NotEmpty(t, spans)
			for _, s := range spans {
				assert.GreaterOrEqual(t, s.Score, 0.0)
				assert.LessOrEqual(t, s.Score, 1.0)
				assert.Contains(t, transcript, s.Text)
			}
		})
	}
}

func TestBM25Retriever_Retrieve_topKTruncates(t *testing.T) {
	transcript := ""
	for i := 0; i < 20; i++ {
		transcript += "patient reports chest pain and shortness of breath today. "
	}
	cfg := defaultBM25Config()
	cfg.ChunkSize = 40
	cfg.Overlap = 10
	cfg.ScoreFloor = 0

	r, err := NewBM25Retriever(transcript, cfg)
	require.NoError(t, err)

	spans, err := r.Retrieve(context.Background(), "chest pain", 2, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(spans), 2)
}

func TestParseBM25Config(t *testing.T) {
	cfg := parseBM25Config(map[string]any{
		"chunk_size":  300,
		"overlap":     50,
		"k1":          1.2,
		"b":           0.5,
		"score_floor": 0.2,
	})
	assert.Equal(t, 300, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.Overlap)
	assert.Equal(t, 1.2, cfg.K1)
	assert.Equal(t, 0.5, cfg.B)
	assert.Equal(t, 0.2, cfg.ScoreFloor)

	defaults := parseBM25Config(nil)
	assert.Equal(t, defaultBM25Config(), defaults)
}

func TestTokenize(t *testing.T) {
	toks := tokenize("Chest-Pain, and SHORTNESS of breath!")
	assert.Equal(t, []string{"chest", "pain", "and", "shortness", "of", "breath"}, toks)
}
