package core

import (
	"fmt"
	"time"
)

// Stopwatch accumulates the wall-clock duration of repeated laps, such as
// one simulation step each.
type Stopwatch struct {
	laps  int
	total time.Duration
	min   time.Duration
	max   time.Duration
	start time.Time
	now   func() time.Time
}

// NewStopwatch constructs a Stopwatch using the real clock.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

// Start marks the beginning of a lap.
func (s *Stopwatch) Start() {
	s.start = s.now()
}

// Stop ends the current lap and returns its duration.
func (s *Stopwatch) Stop() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	d := s.now().Sub(s.start)
	s.start = time.Time{}
	s.Add(d)
	return d
}

// Add records a lap of duration d.
func (s *Stopwatch) Add(d time.Duration) {
	if s.laps == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
	s.laps++
	s.total += d
}

// Laps returns the number of completed laps.
func (s *Stopwatch) Laps() int { return s.laps }

// Total returns the summed lap time.
func (s *Stopwatch) Total() time.Duration { return s.total }

// Min returns the shortest lap.
func (s *Stopwatch) Min() time.Duration { return s.min }

// Max returns the longest lap.
func (s *Stopwatch) Max() time.Duration { return s.max }

// Mean returns the average lap time, zero when no laps were recorded.
func (s *Stopwatch) Mean() time.Duration {
	if s.laps == 0 {
		return 0
	}
	return s.total / time.Duration(s.laps)
}

func (s *Stopwatch) String() string {
	return fmt.Sprintf("laps=%d total=%s mean=%s min=%s max=%s",
		s.laps, s.total, s.Mean(), s.min, s.max)
}
