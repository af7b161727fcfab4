package scheduler

import (
	"fmt"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
)

type TaskID int64

// DependencyType tells whether a call between two tasks is fire-and-forget
// or a round trip.
type DependencyType uint8

const (
	OneWayCall DependencyType = iota + 1
	TwoWayCall
)

func (dt DependencyType) String() string {
	switch dt {
	case OneWayCall:
		return "ONE_WAY_CALL"
	case TwoWayCall:
		return "TWO_WAY_CALL"
	default:
		return "UNKNOWN"
	}
}

type DFSStatus uint8

const (
	NotVisited DFSStatus = iota
	Visited
	Finished
)

// TaskEntryLink is a directed caller-to-called edge of the task graph,
// immutable after construction.
type TaskEntryLink struct {
	caller *TaskEntry
	called *TaskEntry

	numberOfCalls int
	dependency    DependencyType
}

func (link *TaskEntryLink) Caller() *TaskEntry {
	return link.caller
}

func (link *TaskEntryLink) Called() *TaskEntry {
	return link.called
}

func (link *TaskEntryLink) NumberOfCalls() int {
	return link.numberOfCalls
}

func (link *TaskEntryLink) Dependency() DependencyType {
	return link.dependency
}

// TaskEntry is one scheduling node: the descriptor of a periodic task, the
// dispatches laid out for it so far, and its links in the call graph.
type TaskEntry struct {
	Name string

	rtInfo *RTInfo

	effectivePeriod Time

	dispatches *DispatchSet

	calls   []*TaskEntryLink
	callers []*TaskEntryLink

	// DFS bookkeeping, written by graph analysis only; merging never reads it.
	DFSStatus  DFSStatus
	Discovered int
	Finished   int

	IsThreadDelineator bool

	ID TaskID
}

func (t *TaskEntry) RTInfo() *RTInfo {
	return t.rtInfo
}

// EffectivePeriod is the frame the task's dispatches currently span. It is
// 0 until initialized and afterwards only grows, harmonically.
func (t *TaskEntry) EffectivePeriod() Time {
	return t.effectivePeriod
}

func (t *TaskEntry) Dispatches() *DispatchSet {
	return t.dispatches
}

func (t *TaskEntry) Calls() []*TaskEntryLink {
	return t.calls
}

func (t *TaskEntry) Callers() []*TaskEntryLink {
	return t.callers
}

func (t *TaskEntry) String() string {
	var sb strings.Builder

	sb.WriteString(
		fmt.Sprintf(
			"TaskEntry{ID: %d, Name: %q, Kind: %s, EffectivePeriod: %d, Dispatches: %d}",

			t.ID,
			t.Name,
			t.rtInfo.Kind,
			t.effectivePeriod,
			t.dispatches.Len(),
		),
	)

	return sb.String()
}

// prohibitDispatches fails if any incoming link carries the given dependency
// type. Two-way calls into a conjunction or disjunction node have no defined
// meaning and are rejected as dependency specification errors.
func (t *TaskEntry) prohibitDispatches(dt DependencyType) (int, error) {
	for _, link := range t.callers {
		if link == nil {
			return StatusError,
				goerrors.ErrValidation{
					Caller: "prohibitDispatches",
					Issue: goerrors.ErrNilInput{
						InputName: "link",
					},
				}
		}

		if link.dependency == dt {
			return StatusError,
				goerrors.ErrValidation{
					Caller: "prohibitDispatches",
					Issue: fmt.Errorf(
						"%s dependency not allowed into %s task %q",
						dt,
						t.rtInfo.Kind,
						t.Name,
					),
				}
		}
	}

	return StatusUnchanged, nil
}

// Release unlinks the entry from the task graph: every outgoing link is
// removed from its callee's caller set, and the descriptor's back token is
// cleared.
func (t *TaskEntry) Release() {
	for _, link := range t.calls {
		if link == nil {
			continue
		}

		called := link.called
		for ix, callerLink := range called.callers {
			if callerLink == link {
				called.callers = append(called.callers[:ix], called.callers[ix+1:]...)

				break
			}
		}
	}

	t.calls = nil

	if t.rtInfo != nil {
		t.rtInfo.VolatileToken = nil
	}
}
