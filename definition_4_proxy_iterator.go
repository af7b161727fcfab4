package scheduler

import (
	goerrors "github.com/TudorHulban/go-errors"
)

// DispatchProxyIterator iterates one dispatch set as though it were laid out
// over a larger frame, without materializing the copies. The virtual frame
// holds virtualFrameSize/actualFrameSize contiguous sub-frames, and within a
// sub-frame every dispatch repeats numberOfCalls times in place: a caller
// invoking the callee N times per arrival contributes N dispatches at that
// arrival.
type DispatchProxyIterator struct {
	inner *DispatchSetIterator

	actualFrameSize  Time
	virtualFrameSize Time

	currentFrameOffset Time

	numberOfCalls int
	currentCall   int
}

type ParamsNewProxyIterator struct {
	Set *DispatchSet

	ActualFrameSize  Time
	VirtualFrameSize Time

	NumberOfCalls    int
	StartingSubFrame Time
}

func (params *ParamsNewProxyIterator) IsValid() error {
	if params.Set == nil {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewProxyIterator",
			Issue: goerrors.ErrNilInput{
				InputName: "Set",
			},
		}
	}

	if params.NumberOfCalls < 1 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewProxyIterator",
			Issue: goerrors.ErrInvalidInput{
				InputName:  "NumberOfCalls",
				InputValue: params.NumberOfCalls,
			},
		}
	}

	if params.Set.Len() > 0 && params.ActualFrameSize == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewProxyIterator",
			Issue: goerrors.ErrNilInput{
				InputName: "ActualFrameSize",
			},
		}
	}

	return nil
}

func NewDispatchProxyIterator(params *ParamsNewProxyIterator) (*DispatchProxyIterator, error) {
	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	iter := DispatchProxyIterator{
		inner: params.Set.Iterator(),

		actualFrameSize:  params.ActualFrameSize,
		virtualFrameSize: params.VirtualFrameSize,

		numberOfCalls: params.NumberOfCalls,
	}

	if !iter.First(params.StartingSubFrame) {
		// leave the iterator exhausted rather than half-positioned
		iter.inner.ix = params.Set.Len()
	}

	return &iter,
		nil
}

// First positions the iterator at the first dispatch of the given sub-frame.
// Reports whether it could; an out-of-range sub-frame leaves the iterator
// untouched.
func (iter *DispatchProxyIterator) First(subFrame Time) bool {
	if iter.actualFrameSize*subFrame >= iter.virtualFrameSize {
		return false
	}

	iter.currentCall = 0
	iter.currentFrameOffset = iter.actualFrameSize * subFrame

	return iter.inner.First()
}

// Last positions the iterator at the final dispatch of the virtual frame.
func (iter *DispatchProxyIterator) Last() bool {
	iter.currentCall = iter.numberOfCalls - 1
	iter.currentFrameOffset = iter.virtualFrameSize - iter.actualFrameSize

	return iter.inner.Last()
}

func (iter *DispatchProxyIterator) Done() bool {
	return iter.inner.Done()
}

// Advance moves one virtual position forward: through the repeated calls of
// the current dispatch, then through the real set, then into the next
// sub-frame. Reports whether a position remains.
func (iter *DispatchProxyIterator) Advance() bool {
	if iter.inner.Done() {
		return false
	}

	if iter.currentCall < iter.numberOfCalls-1 {
		iter.currentCall++

		return true
	}

	iter.currentCall = 0

	if iter.inner.Advance() {
		return true
	}

	if iter.currentFrameOffset+iter.actualFrameSize < iter.virtualFrameSize {
		iter.currentFrameOffset += iter.actualFrameSize

		return iter.inner.First()
	}

	return false
}

// Retreat is the mirror of Advance, restarting at the tail of the previous
// sub-frame when the real set is exhausted backwards.
func (iter *DispatchProxyIterator) Retreat() bool {
	if iter.inner.Done() {
		return false
	}

	if iter.currentCall > 0 {
		iter.currentCall--

		return true
	}

	iter.currentCall = iter.numberOfCalls - 1

	if iter.inner.Retreat() {
		return true
	}

	if iter.currentFrameOffset > 0 {
		iter.currentFrameOffset -= iter.actualFrameSize

		return iter.inner.Last()
	}

	return false
}

// Arrival returns the arrival of the virtual entry, shifted by the current
// sub-frame offset, or 0 when exhausted.
func (iter *DispatchProxyIterator) Arrival() Time {
	link := iter.inner.Next()
	if link == nil {
		return 0
	}

	return link.Arrival + iter.currentFrameOffset
}

// Deadline returns the deadline of the virtual entry, shifted by the current
// sub-frame offset, or 0 when exhausted.
func (iter *DispatchProxyIterator) Deadline() Time {
	link := iter.inner.Next()
	if link == nil {
		return 0
	}

	return link.Deadline + iter.currentFrameOffset
}

func (iter *DispatchProxyIterator) Priority() Preemption {
	link := iter.inner.Next()
	if link == nil {
		return 0
	}

	return link.Priority
}

func (iter *DispatchProxyIterator) OSPriority() OSPriority {
	link := iter.inner.Next()
	if link == nil {
		return 0
	}

	return link.OSPriority
}
