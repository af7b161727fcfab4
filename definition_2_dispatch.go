package scheduler

import (
	"fmt"

	goerrors "github.com/TudorHulban/go-errors"
)

// Preemption is the scheduler visible priority of a dispatch. Lower value
// means more urgent, with 0 the most urgent.
type Preemption int32

// OSPriority is the OS level priority, carried through merges unchanged.
type OSPriority int32

type DispatchID int64

// Dispatch is one planned execution of a task within the hyper-frame.
// Dispatches are created only through a DispatchPool and are immutable for
// the remainder of the scheduling pass.
type Dispatch struct {
	Arrival  Time
	Deadline Time

	Priority   Preemption
	OSPriority OSPriority

	DynamicSubpriority int
	StaticSubpriority  int

	Entry    *TaskEntry
	Original *Dispatch

	ID DispatchID
}

// Less is the strict order used by dispatch sets: earliest arrival first,
// then larger priority value, then lowest laxity, then highest importance.
// Ties below the fourth key are permitted.
func (d *Dispatch) Less(other *Dispatch) bool {
	if d.Arrival != other.Arrival {
		return d.Arrival < other.Arrival
	}

	if d.Priority != other.Priority {
		return d.Priority > other.Priority
	}

	// Laxity uses only the low 32 bits of Time, wrapping like the unsigned
	// subtraction it mirrors. Lossy once Time exceeds 2^32 units.
	dLaxity := int32(d.Deadline.Low32() - d.Entry.RTInfo().WorstCaseExecutionTime.Low32())
	otherLaxity := int32(other.Deadline.Low32() - other.Entry.RTInfo().WorstCaseExecutionTime.Low32())

	if dLaxity != otherLaxity {
		return dLaxity < otherLaxity
	}

	return d.Entry.RTInfo().Importance > other.Entry.RTInfo().Importance
}

func (d *Dispatch) String() string {
	return fmt.Sprintf(
		"Dispatch{ID: %d, Arrival: %d, Deadline: %d, Priority: %d, OSPriority: %d, Task: %s}",

		d.ID,
		d.Arrival,
		d.Deadline,
		d.Priority,
		d.OSPriority,
		ternary(
			d.Entry == nil,

			"(none)",
			d.entryName(),
		),
	)
}

func (d *Dispatch) entryName() string {
	if d.Entry == nil {
		return "(none)"
	}

	return d.Entry.Name
}

// DispatchPool owns every dispatch created during one scheduling pass and
// assigns their ids. Links held by task entries point into the pool.
type DispatchPool struct {
	dispatches []*Dispatch

	nextID DispatchID
}

func NewDispatchPool() *DispatchPool {
	return &DispatchPool{
		dispatches: make([]*Dispatch, 0),
	}
}

type ParamsNewDispatch struct {
	Arrival  Time
	Deadline Time

	Priority   Preemption
	OSPriority OSPriority

	Entry    *TaskEntry
	Original *Dispatch
}

func (params *ParamsNewDispatch) IsValid() error {
	if params.Entry == nil {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewDispatch",
			Issue: goerrors.ErrNilInput{
				InputName: "Entry",
			},
		}
	}

	if params.Priority < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewDispatch",
			Issue: goerrors.ErrNegativeInput{
				InputName: "Priority",
			},
		}
	}

	return nil
}

func (pool *DispatchPool) NewDispatch(params *ParamsNewDispatch) (*Dispatch, error) {
	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	dispatch := Dispatch{
		Arrival:  params.Arrival,
		Deadline: params.Deadline,

		Priority:   params.Priority,
		OSPriority: params.OSPriority,

		Entry:    params.Entry,
		Original: params.Original,

		ID: pool.nextID,
	}

	pool.nextID++
	pool.dispatches = append(pool.dispatches, &dispatch)

	return &dispatch,
		nil
}

// CloneDispatch copies an existing dispatch under a fresh id.
func (pool *DispatchPool) CloneDispatch(d *Dispatch) *Dispatch {
	clone := *d
	clone.ID = pool.nextID

	pool.nextID++
	pool.dispatches = append(pool.dispatches, &clone)

	return &clone
}

func (pool *DispatchPool) Len() int {
	return len(pool.dispatches)
}

func (pool *DispatchPool) At(id DispatchID) *Dispatch {
	if id < 0 || int(id) >= len(pool.dispatches) {
		return nil
	}

	return pool.dispatches[id]
}
