package scheduler

import (
	"sort"
	"strings"
)

// DispatchSet is an ordered multiset of links into the dispatch pool.
// Iteration visits links in non-decreasing dispatch order; duplicates are
// kept stable in insertion order. The set never owns the dispatches.
type DispatchSet struct {
	links []*Dispatch
}

func NewDispatchSet() *DispatchSet {
	return &DispatchSet{
		links: make([]*Dispatch, 0),
	}
}

func (set *DispatchSet) Len() int {
	return len(set.links)
}

func (set *DispatchSet) At(ix int) *Dispatch {
	if ix < 0 || ix >= len(set.links) {
		return nil
	}

	return set.links[ix]
}

// upperBound returns the first index whose dispatch orders strictly after d,
// so equal keys keep their insertion order.
func (set *DispatchSet) upperBound(d *Dispatch) int {
	return sort.Search(
		len(set.links),
		func(ix int) bool {
			return d.Less(set.links[ix])
		},
	)
}

func (set *DispatchSet) Insert(d *Dispatch) {
	position := set.upperBound(d)

	set.links = append(set.links, nil)
	copy(set.links[position+1:], set.links[position:])
	set.links[position] = d
}

// InsertWithHint inserts d, starting the position search at the hint. When
// insertions arrive in sorted order the scan from the hint is amortized
// constant. The hint is left on the inserted element so the next sequential
// insertion can reuse it.
func (set *DispatchSet) InsertWithHint(d *Dispatch, hint *DispatchSetIterator) {
	position := hint.ix

	if position < 0 {
		position = 0
	}

	if position > len(set.links) {
		position = len(set.links)
	}

	if position > 0 && d.Less(set.links[position-1]) {
		// the hint is past the right spot
		position = set.upperBound(d)
	} else {
		for position < len(set.links) && !d.Less(set.links[position]) {
			position++
		}
	}

	set.links = append(set.links, nil)
	copy(set.links[position+1:], set.links[position:])
	set.links[position] = d

	hint.ix = position
}

// Clone returns a shallow copy: a new set holding links to the same
// dispatches.
func (set *DispatchSet) Clone() *DispatchSet {
	links := make([]*Dispatch, len(set.links))
	copy(links, set.links)

	return &DispatchSet{
		links: links,
	}
}

func (set *DispatchSet) Iterator() *DispatchSetIterator {
	return &DispatchSetIterator{
		set: set,
	}
}

func (set *DispatchSet) String() string {
	if len(set.links) == 0 {
		return "DispatchSet: (empty)"
	}

	var sb strings.Builder

	sb.WriteString("DispatchSet:\n")

	for _, link := range set.links {
		sb.WriteString("- ")
		sb.WriteString(link.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

// DispatchSetIterator walks a set forward or backward. Call First or Last
// to place it before reading.
type DispatchSetIterator struct {
	set *DispatchSet

	ix int
}

// First positions the iterator at the smallest element. Reports whether the
// position is valid.
func (iter *DispatchSetIterator) First() bool {
	iter.ix = 0

	return len(iter.set.links) > 0
}

// Last positions the iterator at the greatest element. Reports whether the
// position is valid.
func (iter *DispatchSetIterator) Last() bool {
	iter.ix = len(iter.set.links) - 1

	return len(iter.set.links) > 0
}

func (iter *DispatchSetIterator) Done() bool {
	return iter.ix < 0 || iter.ix >= len(iter.set.links)
}

// Advance moves to the next element, reporting whether the iterator still
// points at one.
func (iter *DispatchSetIterator) Advance() bool {
	if iter.Done() {
		return false
	}

	iter.ix++

	return !iter.Done()
}

// Retreat moves to the previous element, reporting whether the iterator
// still points at one.
func (iter *DispatchSetIterator) Retreat() bool {
	if iter.Done() {
		return false
	}

	iter.ix--

	return !iter.Done()
}

// Next returns the link under the iterator, or nil when exhausted.
func (iter *DispatchSetIterator) Next() *Dispatch {
	if iter.Done() {
		return nil
	}

	return iter.set.links[iter.ix]
}
