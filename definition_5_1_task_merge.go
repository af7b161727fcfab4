package scheduler

import (
	"fmt"

	goerrors "github.com/TudorHulban/go-errors"
)

// Every merge operation reports a ternary status: StatusError aborts the
// pass, StatusUnchanged means success without new dispatches, StatusAdded
// means at least one dispatch was emitted.
const (
	StatusError     = -1
	StatusUnchanged = 0
	StatusAdded     = 1
)

// MergeDispatches folds the dispatches of the entry's callers into its own
// set, according to the task kind. It presumes every caller has already been
// merged, which the session's topological ordering guarantees. The returned
// status reflects the final, one-way merge step.
func (t *TaskEntry) MergeDispatches(ses *Session) (int, error) {
	ses.trace(
		"merging dispatches",
		"task", t.Name,
		"kind", t.rtInfo.Kind.String(),
	)

	switch t.rtInfo.Kind {
	case KindDisjunction:
		// A two-way call into a disjunction group would mean the caller
		// calls one OR the other, with no way to lay out its dispatches.
		if status, err := t.prohibitDispatches(TwoWayCall); status == StatusError {
			return status, err
		}

		return t.disjunctiveMerge(OneWayCall, ses)

	case KindConjunction:
		if status, err := t.prohibitDispatches(TwoWayCall); status == StatusError {
			return status, err
		}

		return t.conjunctiveMerge(OneWayCall, ses)

	case KindOperation:
		if status, err := t.disjunctiveMerge(TwoWayCall, ses); status == StatusError {
			return status, err
		}

		return t.conjunctiveMerge(OneWayCall, ses)

	default:
		return StatusError,
			goerrors.ErrValidation{
				Caller: "MergeDispatches",
				Issue: fmt.Errorf(
					"task %q has unknown kind %d",
					t.Name,
					t.rtInfo.Kind,
				),
			}
	}
}

// disjunctiveMerge folds every matching caller's dispatches into the entry's
// set: each caller contributes each of its dispatches, replicated across all
// sub-frames of the combined frame and across its number of calls.
func (t *TaskEntry) disjunctiveMerge(dt DependencyType, ses *Session) (int, error) {
	result := StatusUnchanged

	for _, link := range t.callers {
		if link == nil {
			return StatusError,
				goerrors.ErrValidation{
					Caller: "disjunctiveMerge",
					Issue: goerrors.ErrNilInput{
						InputName: "link",
					},
				}
		}

		if link.dependency != dt {
			continue
		}

		status, errMerge := mergeFrames(
			&paramsMergeFrames{
				Session: ses,
				Owner:   t,

				Destination:       t.dispatches,
				Source:            link.caller.dispatches,
				DestinationPeriod: &t.effectivePeriod,
				SourcePeriod:      link.caller.effectivePeriod,

				NumberOfCalls:    link.numberOfCalls,
				StartingSubFrame: 0,
			},
		)
		if errMerge != nil {
			return StatusError, errMerge
		}

		if status == StatusAdded {
			result = StatusAdded
		}

		ses.trace(
			"disjunctive merge",
			"task", t.Name,
			"caller", link.caller.Name,
			"status", status,
		)
	}

	return result, nil
}

// conjunctiveMerge emits one joint dispatch per lockstep position across all
// matching callers, until any contributor runs out of dispatches over the
// combined frame.
func (t *TaskEntry) conjunctiveMerge(dt DependencyType, ses *Session) (int, error) {
	frameSize := Time(1)

	for _, link := range t.callers {
		if link == nil {
			return StatusError,
				goerrors.ErrValidation{
					Caller: "conjunctiveMerge",
					Issue: goerrors.ErrNilInput{
						InputName: "link",
					},
				}
		}

		if link.dependency == dt {
			frameSize = MinimumFrameSize(frameSize, link.caller.effectivePeriod)
		}
	}

	if _, errReframe := reframe(ses, t, t.dispatches, &t.effectivePeriod, frameSize); errReframe != nil {
		return StatusError, errReframe
	}

	var proxies []*DispatchProxyIterator

	for _, link := range t.callers {
		if link.dependency != dt {
			continue
		}

		proxy, errProxy := NewDispatchProxyIterator(
			&ParamsNewProxyIterator{
				Set: link.caller.dispatches,

				ActualFrameSize:  link.caller.effectivePeriod,
				VirtualFrameSize: frameSize,

				NumberOfCalls:    link.numberOfCalls,
				StartingSubFrame: 0,
			},
		)
		if errProxy != nil {
			return StatusError, errProxy
		}

		// an empty contributor means no joint dispatch is possible
		if proxy.Done() {
			return StatusUnchanged, nil
		}

		proxies = append(proxies, proxy)
	}

	ses.trace(
		"conjunctive merge",
		"task", t.Name,
		"frameSize", uint64(frameSize),
		"contributors", len(proxies),
	)

	result := StatusUnchanged
	insertHint := t.dispatches.Iterator()

	moreDispatches := len(proxies) > 0

	for moreDispatches {
		var arrival, deadline Time
		var priority Preemption
		var osPriority OSPriority

		// Policy: the joint dispatch gets the latest arrival and deadline,
		// and the least urgent priority, of any contributor at this
		// position.
		for _, proxy := range proxies {
			arrival = max(arrival, proxy.Arrival())
			deadline = conjunctiveMergePolicy.joinDeadline(deadline, proxy.Deadline())
			priority, osPriority = conjunctiveMergePolicy.joinPriority(
				priority,
				osPriority,
				proxy.Priority(),
				proxy.OSPriority(),
			)

			proxy.Advance()
			if proxy.Done() {
				moreDispatches = false
			}
		}

		dispatch, errNew := ses.pool.NewDispatch(
			&ParamsNewDispatch{
				Arrival:  arrival,
				Deadline: deadline,

				Priority:   priority,
				OSPriority: osPriority,

				Entry: t,
			},
		)
		if errNew != nil {
			return StatusError, errNew
		}

		result = StatusAdded

		t.dispatches.InsertWithHint(dispatch, insertHint)
	}

	return result, nil
}
