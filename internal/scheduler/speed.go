package scheduler

import "time"

// Speed levels accepted on the command line.
const (
	MinSpeed     = 0
	MaxSpeed     = 9
	DefaultSpeed = 5
)

const (
	baseInterval = 50 * time.Millisecond
	slowStep     = 210 * time.Millisecond
	fastStep     = 10 * time.Millisecond
)

// Interval returns the tick interval for a speed level. Speed 0 means render
// once and returns 0. Level 5 ticks every 50ms; each level below adds 210ms
// and each level above removes 10ms. Out-of-range levels are clamped.
func Interval(speed int) time.Duration {
	speed = min(max(speed, MinSpeed), MaxSpeed)
	if speed == 0 {
		return 0
	}
	if speed <= DefaultSpeed {
		return baseInterval + time.Duration(DefaultSpeed-speed)*slowStep
	}
	return baseInterval - time.Duration(speed-DefaultSpeed)*fastStep
}
