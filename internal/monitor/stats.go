package monitor

import (
	"time"

	"pingwatch/internal/incident"
	"pingwatch/internal/net"
)

// RunStats counts outcomes of the current session. ChecksTotal always equals
// Successes + Timeouts + OtherFailures.
type RunStats struct {
	ChecksTotal   int64                   `json:"checks_total"`
	Successes     int64                   `json:"successes"`
	Timeouts      int64                   `json:"timeouts"`
	OtherFailures int64                   `json:"other_failures"`
	LastLatency   time.Duration           `json:"last_latency"`
	PerTarget     map[string]*TargetStats `json:"per_target"`
}

type TargetStats struct {
	Checks           int64 `json:"checks"`
	Successes        int64 `json:"successes"`
	Timeouts         int64 `json:"timeouts"`
	ConnectionErrors int64 `json:"connection_errors"`
	OtherErrors      int64 `json:"other_errors"`
}

func NewRunStats() *RunStats {
	return &RunStats{PerTarget: make(map[string]*TargetStats)}
}

// Observe counts one probe attempt and returns its check number.
func (s *RunStats) Observe(outcome net.Outcome) int64 {
	if s.PerTarget == nil {
		s.PerTarget = make(map[string]*TargetStats)
	}
	ts := s.PerTarget[outcome.URL]
	if ts == nil {
		ts = &TargetStats{}
		s.PerTarget[outcome.URL] = ts
	}

	s.ChecksTotal++
	s.LastLatency = outcome.Latency
	ts.Checks++

	switch outcome.Type {
	case incident.Success:
		s.Successes++
		ts.Successes++
	case incident.Timeout:
		s.Timeouts++
		ts.Timeouts++
	case incident.ConnectionError:
		s.OtherFailures++
		ts.ConnectionErrors++
	default:
		s.OtherFailures++
		ts.OtherErrors++
	}

	return s.ChecksTotal
}

// SuccessRate is a percentage in [0, 100].
func (s *RunStats) SuccessRate() float64 {
	if s.ChecksTotal == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.ChecksTotal) * 100
}

func (s *RunStats) Incidents() int64 {
	return s.Timeouts + s.OtherFailures
}

func (s *RunStats) Consistent() bool {
	return s.ChecksTotal == s.Successes+s.Timeouts+s.OtherFailures
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s *RunStats) Clone() RunStats {
	c := *s
	c.PerTarget = make(map[string]*TargetStats, len(s.PerTarget))
	for url, ts := range s.PerTarget {
		cp := *ts
		c.PerTarget[url] = &cp
	}
	return c
}
