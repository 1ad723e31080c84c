package sets

// Union creates a new set containing all elements from both input sets.
//
// Time complexity: O(|s1| + |s2|)
// Space complexity: O(|s1| + |s2|)
//
// Example:
//
//	s1 := NewHashSet[int]()
//	s1.AddAll(1, 2, 3)
//	s2 := NewHashSet[int]()
//	s2.AddAll(3, 4, 5)
//	result := Union(s1, s2)  // contains {1, 2, 3, 4, 5}
func Union[T comparable](s1, s2 Set[T]) Set[T] {
	result := NewHashSet[T](s1.Size() + s2.Size())
	for x := range s1.Iter() {
		result.Add(x)
	}
	for x := range s2.Iter() {
		result.Add(x)
	}
	return result
}

// Intersection creates a new set containing only elements present in both input sets.
// Iterates over the smaller set and checks membership in the larger one.
//
// Time complexity: O(min(|s1|, |s2|))
// Space complexity: O(min(|s1|, |s2|))
//
// Example:
//
//	s1 := NewHashSet[int]()
//	s1.AddAll(1, 2, 3, 4)
//	s2 := NewHashSet[int]()
//	s2.AddAll(3, 4, 5, 6)
//	result := Intersection(s1, s2)  // contains {3, 4}
func Intersection[T comparable](s1, s2 Set[T]) Set[T] {
	smaller, larger := s1, s2
	if s2.Size() < s1.Size() {
		smaller, larger = s2, s1
	}

	result := NewHashSet[T](smaller.Size())
	for x := range smaller.Iter() {
		if larger.Contains(x) {
			result.Add(x)
		}
	}
	return result
}
