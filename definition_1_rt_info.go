package scheduler

import (
	goerrors "github.com/TudorHulban/go-errors"
)

// InfoKind selects how a task combines the dispatches of its callers.
type InfoKind uint8

const (
	KindOperation InfoKind = iota + 1
	KindConjunction
	KindDisjunction
)

func (kind InfoKind) String() string {
	switch kind {
	case KindOperation:
		return "OPERATION"
	case KindConjunction:
		return "CONJUNCTION"
	case KindDisjunction:
		return "DISJUNCTION"
	default:
		return "UNKNOWN"
	}
}

type DeadlinePolicy uint8

type PriorityPolicy uint8

const (
	// DeadlineFromOriginal keeps each contributing dispatch's own deadline.
	DeadlineFromOriginal DeadlinePolicy = iota + 1

	// DeadlineLatest takes the latest deadline across the joint position.
	DeadlineLatest
)

const (
	// PriorityFromOriginal keeps each contributing dispatch's own priority.
	PriorityFromOriginal PriorityPolicy = iota + 1

	// PriorityLeastUrgent takes the numerically largest priority value
	// across the joint position.
	PriorityLeastUrgent
)

// MergePolicy fixes how a merge derives the deadline and priority of the
// dispatches it emits. The defaults below are data, so a future variation is
// a value change rather than new control flow.
type MergePolicy struct {
	Deadline DeadlinePolicy
	Priority PriorityPolicy
}

var (
	conjunctiveMergePolicy = MergePolicy{
		Deadline: DeadlineLatest,
		Priority: PriorityLeastUrgent,
	}

	disjunctiveMergePolicy = MergePolicy{
		Deadline: DeadlineFromOriginal,
		Priority: PriorityFromOriginal,
	}
)

// joinDeadline folds one contributor's deadline into the accumulated value.
func (p MergePolicy) joinDeadline(current, candidate Time) Time {
	if p.Deadline == DeadlineLatest && current > candidate {
		return current
	}

	return candidate
}

// joinPriority folds one contributor's priority pair into the accumulated
// pair. Under PriorityLeastUrgent a tie takes the candidate, so the OS
// priority follows the last contributor holding the largest value.
func (p MergePolicy) joinPriority(
	currentPriority Preemption,
	currentOS OSPriority,
	candidatePriority Preemption,
	candidateOS OSPriority,
) (Preemption, OSPriority) {
	if p.Priority == PriorityLeastUrgent && currentPriority > candidatePriority {
		return currentPriority, currentOS
	}

	return candidatePriority, candidateOS
}

// RTInfo is the externally supplied descriptor of a periodic task. The
// merging core reads it and writes only VolatileToken, which carries an
// opaque back-reference for the lifetime of the owning entry.
type RTInfo struct {
	Period                 Time
	WorstCaseExecutionTime Time
	Importance             int
	Kind                   InfoKind

	VolatileToken any `valid:"-"`
}

type ParamsNewRTInfo struct {
	Period                 Time
	WorstCaseExecutionTime Time
	Importance             int
	Kind                   InfoKind
}

func (params *ParamsNewRTInfo) IsValid() error {
	if params.Kind < KindOperation || params.Kind > KindDisjunction {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewRTInfo",
			Issue: goerrors.ErrInvalidInput{
				InputName: "Kind",
			},
		}
	}

	if params.Kind == KindOperation && params.Period == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewRTInfo",
			Issue: goerrors.ErrNilInput{
				InputName: "Period",
			},
		}
	}

	return nil
}

func NewRTInfo(params *ParamsNewRTInfo) (*RTInfo, error) {
	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	return &RTInfo{
			Period:                 params.Period,
			WorstCaseExecutionTime: params.WorstCaseExecutionTime,
			Importance:             params.Importance,
			Kind:                   params.Kind,
		},
		nil
}
