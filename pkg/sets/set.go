package sets

import (
	"iter"
	"maps"
)

// Set represents a collection that contains no duplicate elements. More formally,
// sets contain no pair of elements e1 and e2 such that e1 == e2.
// As implied by its name, this interface models the mathematical set abstraction.
//
// The Set interface places additional requirements on the contracts of all
// constructors and methods. All constructors must create a set that contains
// no duplicate elements.
//
// Great care must be exercised if mutable objects are used as set elements.
// The behavior of a set is not specified if the value of an object is changed
// in a manner that affects equality comparisons while the object is an element
// in the set.
//
// HashSet is the only implementation carried here: a hash-table-backed Set
// with O(1) average performance and no ordering guarantee.
//
// Basic usage:
//
//	set := NewHashSet[string]()
//	changed := set.Add("hello")     // returns true
//	changed = set.Add("hello")      // returns false (already exists)
//	exists := set.Contains("hello") // returns true
//	size := set.Size()              // returns 1
type Set[T comparable] interface {
	// Size returns the number of elements in this set (its cardinality).
	Size() int

	// IsEmpty returns true if this set contains no elements.
	IsEmpty() bool

	// Contains returns true if this set contains the specified element.
	// More formally, returns true if and only if this set contains an element e
	// such that e == x.
	Contains(x T) bool

	// ContainsAny returns true if this set contains any of the specified elements.
	// Returns false for an empty argument list.
	ContainsAny(items ...T) bool

	// Add adds the specified element to this set if it is not already present.
	// Returns true if this set did not already contain the specified element.
	// If this set already contains the element, the call leaves the set unchanged
	// and returns false. This ensures that sets never contain duplicate elements.
	Add(x T) bool

	// AddAll adds all of the specified elements to this set if they're not already present.
	// This operation effectively modifies this set so that its value is the union
	// of the original set and the specified elements.
	// Returns true if this set changed as a result of the call.
	AddAll(items ...T) bool

	// Iter returns an iterator over the elements in this set, in no
	// particular order.
	//
	// The iterator is designed to work with Go's range-over-function:
	//
	//	for element := range set.Iter() {
	//		// process element
	//	}
	Iter() iter.Seq[T]

	// ToSlice returns a slice containing all of the elements in this set.
	//
	// The returned slice is "safe" in that no references to it are maintained
	// by this set. The caller is free to modify the returned slice.
	//
	// This method acts as a bridge between set-based and slice-based APIs.
	ToSlice() []T
}

// NewHashSet creates a new hash-based set implementation.
// HashSet provides O(1) average time complexity for basic operations
// but does not maintain any particular order of elements.
//
// The optional size parameter can be used to specify the initial capacity
// to avoid map reallocations. If multiple size values are provided,
// only the last positive value is used.
//
// Example:
//
//	set := NewHashSet[int]()           // default capacity
//	set := NewHashSet[int](100)        // initial capacity of 100
//	set := NewHashSet[string](0,50)   // capacity of 50 (last positive value)
func NewHashSet[T comparable](size ...int) Set[T] {
	var c = 0
	for _, s := range size {
		if s > 0 {
			c = s
		}
	}
	return make(hashSet[T], c)
}

// hashSet is a hash table-based Set implementation using Go's built-in map.
// It provides excellent performance with O(1) average case for all basic operations,
// but does not preserve insertion order.
//
// The zero value is ready to use, but prefer using NewHashSet for better
// initial capacity management.
type hashSet[T comparable] map[T]struct{}

// Iter returns an iterator over the set elements in undefined order.
// Uses the efficient maps.Keys function from the standard library.
func (s hashSet[T]) Iter() iter.Seq[T] {
	return maps.Keys(s)
}

// ToSlice returns a slice containing all set elements in undefined order.
// The slice is pre-allocated with the correct capacity for efficiency.
func (s hashSet[T]) ToSlice() []T {
	slice := make([]T, 0, s.Size())
	for x := range s {
		slice = append(slice, x)
	}
	return slice
}

// Contains checks element existence with O(1) average time complexity.
func (s hashSet[T]) Contains(x T) bool {
	_, ok := s[x]
	return ok
}

// ContainsAny checks if any of the specified elements exist in the set.
// Short-circuits on the first found element for efficiency.
func (s hashSet[T]) ContainsAny(items ...T) bool {
	for _, item := range items {
		if s.Contains(item) {
			return true
		}
	}
	return false
}

// Add inserts an element with O(1) average time complexity.
// Returns false if the element already exists.
func (s hashSet[T]) Add(x T) bool {
	if s.Contains(x) {
		return false
	}
	s[x] = struct{}{}
	return true
}

// AddAll inserts multiple elements efficiently.
// Returns true if at least one element was actually added.
func (s hashSet[T]) AddAll(items ...T) bool {
	changed := false
	for _, item := range items {
		if s.Add(item) {
			changed = true
		}
	}
	return changed
}

// Size returns the number of elements with O(1) time complexity.
func (s hashSet[T]) Size() int {
	return len(s)
}

// IsEmpty checks if the set is empty with O(1) time complexity.
func (s hashSet[T]) IsEmpty() bool {
	return s.Size() == 0
}
