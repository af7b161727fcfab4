package scheduler

// Time counts task-period units. Arithmetic on arrivals, deadlines and
// frame sizes happens in this unit space; only the low 32 bits take part
// in laxity comparisons.
type Time uint64

func (t Time) Low32() uint32 {
	return uint32(t)
}

// gcd implements Euclid's algorithm, with gcd(x, 0) = x.
func gcd(x, y Time) Time {
	if y == 0 {
		return x
	}

	return gcd(y, x%y)
}

// MinimumFrameSize returns the smallest frame that holds a whole number of
// both periods. A zero period means uninitialized and is absorbed: the other
// period is returned as-is.
func MinimumFrameSize(period1, period2 Time) Time {
	if period1 == 0 {
		return period2
	}

	if period2 == 0 {
		return period1
	}

	greatestCommonDivisor := gcd(period1, period2)

	// Branch explicitly to keep the intermediate product small.
	switch greatestCommonDivisor {
	case 1:
		return period1 * period2

	case period1:
		return period2

	case period2:
		return period1

	default:
		return (period1 * period2) / greatestCommonDivisor
	}
}
