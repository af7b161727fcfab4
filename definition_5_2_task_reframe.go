package scheduler

import (
	"fmt"

	goerrors "github.com/TudorHulban/go-errors"
)

// reframe harmonically expands a dispatch set from its current period to the
// new one. Dispatches of every sub-frame beyond the 0th are created fresh;
// the existing dispatches stay in place as the 0th sub-frame. A new period
// the set already spans a multiple of is a no-op; non-harmonic periods fail.
func reframe(
	ses *Session,
	owner *TaskEntry,
	set *DispatchSet,
	setPeriod *Time,
	newPeriod Time,
) (int, error) {
	if *setPeriod == 0 {
		// uninitialized: the set is empty, just adopt the new period
		*setPeriod = newPeriod

		return StatusUnchanged, nil
	}

	if newPeriod <= *setPeriod {
		if *setPeriod%newPeriod != 0 {
			return StatusError,
				goerrors.ErrValidation{
					Caller: "reframe",
					Issue: fmt.Errorf(
						"frame of %d is not harmonic with period %d",
						*setPeriod,
						newPeriod,
					),
				}
		}

		return StatusUnchanged, nil
	}

	if newPeriod%*setPeriod != 0 {
		return StatusError,
			goerrors.ErrValidation{
				Caller: "reframe",
				Issue: fmt.Errorf(
					"period %d is not harmonic with frame of %d",
					newPeriod,
					*setPeriod,
				),
			}
	}

	// Snapshot the links, then replicate them into every sub-frame after
	// the 0th of the new period. The snapshot keeps the source stable while
	// the set receives the copies.
	snapshot := set.Clone()
	oldPeriod := *setPeriod
	destinationPeriod := newPeriod

	status, errMerge := mergeFrames(
		&paramsMergeFrames{
			Session: ses,
			Owner:   owner,

			Destination:       set,
			Source:            snapshot,
			DestinationPeriod: &destinationPeriod,
			SourcePeriod:      oldPeriod,

			NumberOfCalls:    1,
			StartingSubFrame: 1,
		},
	)
	if errMerge != nil {
		return StatusError, errMerge
	}

	*setPeriod = newPeriod

	return status, nil
}

type paramsMergeFrames struct {
	Session *Session
	Owner   *TaskEntry

	Destination       *DispatchSet
	Source            *DispatchSet
	DestinationPeriod *Time
	SourcePeriod      Time

	NumberOfCalls    int
	StartingSubFrame Time
}

// mergeFrames lays the source set into the destination, multiplied across
// the sub-frames of the combined frame and across the number of calls per
// arrival. The source is not affected; every emitted dispatch is a fresh
// pool entry owned by the destination's task.
func mergeFrames(params *paramsMergeFrames) (int, error) {
	if _, errReframe := reframe(
		params.Session,
		params.Owner,
		params.Destination,
		params.DestinationPeriod,
		MinimumFrameSize(*params.DestinationPeriod, params.SourcePeriod),
	); errReframe != nil {
		return StatusError, errReframe
	}

	proxy, errProxy := NewDispatchProxyIterator(
		&ParamsNewProxyIterator{
			Set: params.Source,

			ActualFrameSize:  params.SourcePeriod,
			VirtualFrameSize: *params.DestinationPeriod,

			NumberOfCalls:    params.NumberOfCalls,
			StartingSubFrame: params.StartingSubFrame,
		},
	)
	if errProxy != nil {
		return StatusError, errProxy
	}

	status := StatusUnchanged
	insertHint := params.Destination.Iterator()

	for ok := proxy.First(params.StartingSubFrame); ok; ok = proxy.Advance() {
		// Policy: disjunctively merged dispatches keep the deadline and
		// priority of the original dispatch.
		deadline := disjunctiveMergePolicy.joinDeadline(0, proxy.Deadline())
		priority, osPriority := disjunctiveMergePolicy.joinPriority(
			0,
			0,
			proxy.Priority(),
			proxy.OSPriority(),
		)

		dispatch, errNew := params.Session.pool.NewDispatch(
			&ParamsNewDispatch{
				Arrival:  proxy.Arrival(),
				Deadline: deadline,

				Priority:   priority,
				OSPriority: osPriority,

				Entry: params.Owner,
			},
		)
		if errNew != nil {
			return StatusError, errNew
		}

		status = StatusAdded

		params.Destination.InsertWithHint(dispatch, insertHint)
	}

	return status, nil
}
