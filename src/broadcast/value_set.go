package broadcast

import (
	"bytes"
	"encoding/json"
	"sort"
)

// ValueSet is a set of broadcast values. It is encoded as a sorted JSON array.
// Duplicates in a decoded array collapse.
type ValueSet map[uint64]struct{}

// NewValueSet creates a ValueSet containing values.
func NewValueSet(values ...uint64) ValueSet {
	s := make(ValueSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v and returns true if it was not present.
func (s ValueSet) Add(v uint64) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Contains ...
func (s ValueSet) Contains(v uint64) bool {
	_, ok := s[v]
	return ok
}

// Union adds every value of other to s and returns the number of values that
// were not present.
func (s ValueSet) Union(other ValueSet) int {
	added := 0
	for v := range other {
		if s.Add(v) {
			added++
		}
	}
	return added
}

// Diff returns the values of s that are not in other.
func (s ValueSet) Diff(other ValueSet) ValueSet {
	res := make(ValueSet)
	for v := range s {
		if !other.Contains(v) {
			res[v] = struct{}{}
		}
	}
	return res
}

// Clone ...
func (s ValueSet) Clone() ValueSet {
	res := make(ValueSet, len(s))
	for v := range s {
		res[v] = struct{}{}
	}
	return res
}

// Sorted returns the values in ascending order.
func (s ValueSet) Sorted() []uint64 {
	res := make([]uint64, 0, len(s))
	for v := range s {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// MarshalJSON implements the json.Marshaler interface. A nil set is encoded as
// an empty array.
func (s ValueSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON implements the json.Unmarshaler interface. JSON null leaves a
// nil set.
func (s *ValueSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	var values []uint64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewValueSet(values...)
	return nil
}
