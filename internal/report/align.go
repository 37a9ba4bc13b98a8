package report

import "time"

// alignUnits are tried largest first; the first one that evenly divides an
// interval decides the wall-clock boundary that reports fire on.
var alignUnits = []time.Duration{
	24 * time.Hour,
	time.Hour,
	30 * time.Minute,
	15 * time.Minute,
	10 * time.Minute,
	5 * time.Minute,
	time.Minute,
	30 * time.Second,
	15 * time.Second,
	10 * time.Second,
	5 * time.Second,
	time.Second,
}

// AlignUnit returns the boundary unit for interval, or zero if none divides it.
func AlignUnit(interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	for _, unit := range alignUnits {
		if interval%unit == 0 {
			return unit
		}
	}
	return 0
}

// NextDelay returns how long to wait from now until the next report.
//
// For an interval that is a multiple of one of the alignment units, the report
// fires on the last local wall-clock multiple of that unit that is no later
// than now+interval: an hourly report fires at the top of the next hour and a
// daily one at local midnight. The delay is therefore in (0, interval].
// Other intervals are not aligned.
func NextDelay(now time.Time, interval time.Duration) time.Duration {
	unit := AlignUnit(interval)
	if unit == 0 {
		return interval
	}
	_, offset := now.Zone()
	local := time.Duration(now.UnixNano()) + time.Duration(offset)*time.Second
	next := (local + interval) / unit * unit
	return next - local
}

// RearmDelay is NextDelay for the timer re-armed right after a fire. A fire
// that lands just before its boundary, when the wall clock lags the timer,
// would otherwise be followed by a near-empty one; delays under half a unit
// move on to the following boundary.
func RearmDelay(now time.Time, interval time.Duration) time.Duration {
	d := NextDelay(now, interval)
	if unit := AlignUnit(interval); unit > 0 && d < unit/2 {
		d += interval
	}
	return d
}
