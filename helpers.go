package scheduler

import (
	"errors"
)

var errCyclicTaskGraph = errors.New("task graph contains a cycle")

func ternary[T any](condition bool, value1, value2 T) T {
	if condition {
		return value1
	}

	return value2
}
