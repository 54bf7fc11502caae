package perfstats

import (
	"fmt"
	"time"
)

// Timer accumulates samples of how long an operation took
type Timer struct {
	Samples int64         `json:"samples"`
	Total   time.Duration `json:"total"`
	Max     time.Duration `json:"max"`
}

func (t *Timer) Reset() {
	*t = Timer{}
}

func (t *Timer) AddSample(d time.Duration) {
	t.Samples++
	t.Total += d
	t.Max = max(t.Max, d)
}

// Since adds the time elapsed since start
func (t *Timer) Since(start time.Time) {
	t.AddSample(time.Since(start))
}

func (t *Timer) Average() time.Duration {
	if t.Samples == 0 {
		return 0
	}
	return time.Duration(t.Total.Nanoseconds() / t.Samples)
}

func (t *Timer) String() string {
	if t.Samples == 0 {
		return "none"
	}
	return fmt.Sprintf("avg %v, max %v (%v samples)", t.Average().Round(time.Microsecond), t.Max.Round(time.Microsecond), t.Samples)
}

// Timers of the outputs of a recording session
type OutputTimers struct {
	Tabular Timer `json:"tabular"`
	Feature Timer `json:"feature"`
	Video   Timer `json:"video"`
	Aligned Timer `json:"aligned"`
}
