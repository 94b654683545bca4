package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pingwatch/internal/helper"
	"pingwatch/internal/incident"
	"pingwatch/internal/models"
	"pingwatch/internal/net"

	"github.com/rs/zerolog/log"
)

const recentCapacity = 100

type State string

const (
	Stopped State = "stopped"
	Running State = "running"
)

type Prober interface {
	Probe(ctx context.Context, target models.Target) net.Outcome
}

type IncidentLogger interface {
	Begin() error
	Record(rec incident.Record) error
	Path() string
}

type HistoryStore interface {
	SaveHistory(history *models.History) error
}

type Notifier interface {
	Notify(ctx context.Context, rec incident.Record) error
}

type Options struct {
	Delay           time.Duration
	RecentIncidents int
	NoTime          bool
	Out             io.Writer
	History         HistoryStore
	Notifier        Notifier
}

// UptimeMonitor probes its targets one at a time, forever, until cancelled.
type UptimeMonitor struct {
	targets   []models.Target
	prober    Prober
	incidents IncidentLogger
	history   HistoryStore
	notifier  Notifier
	delay     time.Duration
	recent    int
	noTime    bool
	out       io.Writer
	runID     string

	mu      sync.RWMutex
	state   State
	stats   *RunStats
	seen    []incident.Record
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool // Stop called before the first Run
}

func NewUptimeMonitor(targets []models.Target, prober Prober, incidents IncidentLogger, opts Options) (*UptimeMonitor, error) {
	if prober == nil {
		return nil, errors.New("prober is required")
	}
	if incidents == nil {
		return nil, errors.New("incident logger is required")
	}

	var enabled []models.Target
	for _, t := range targets {
		if !t.Enabled {
			log.Info().Msgf("%s - skipped because disabled", t.URL)
			continue
		}
		enabled = append(enabled, t)
	}
	if len(enabled) == 0 {
		return nil, errors.New("no enabled targets to monitor")
	}

	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.RecentIncidents <= 0 {
		opts.RecentIncidents = 5
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	return &UptimeMonitor{
		targets:   enabled,
		prober:    prober,
		incidents: incidents,
		history:   opts.History,
		notifier:  opts.Notifier,
		delay:     opts.Delay,
		recent:    opts.RecentIncidents,
		noTime:    opts.NoTime,
		out:       opts.Out,
		runID:     helper.GenerateRandomID(),
		state:     Stopped,
		stats:     NewRunStats(),
	}, nil
}

// Start runs the monitor until SIGINT or SIGTERM.
func (m *UptimeMonitor) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return m.Run(ctx)
}

// Run blocks until ctx is cancelled or Stop is called, then prints the summary.
// Operator cancellation is a normal exit and returns nil.
func (m *UptimeMonitor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.state == Running {
		m.mu.Unlock()
		return errors.New("monitor is already running")
	}
	m.state = Running
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	if m.stopped {
		m.stopped = false
		cancel()
	}
	m.mu.Unlock()

	defer close(done)

	m.printBanner()

	urls := make([]string, 0, len(m.targets))
	for _, t := range m.targets {
		urls = append(urls, t.URL)
	}
	log.Info().Str("run_id", m.runID).Strs("targets", urls).Str("incident_log", m.incidents.Path()).Msg("session started")

	if err := m.incidents.Begin(); err != nil {
		log.Error().Err(err).Msg("incident log is not writable, incidents will only be shown on console")
	}

	for ctx.Err() == nil {
		m.tick(ctx)

		if !sleep(ctx, m.delay) {
			break
		}
	}

	m.mu.Lock()
	m.state = Stopped
	m.mu.Unlock()

	m.printSummary()

	return nil
}

// Stop cancels a running loop and waits for its summary to be printed.
// Called before Run, it makes the first Run return right after starting.
func (m *UptimeMonitor) Stop() {
	m.mu.Lock()
	if m.done == nil {
		m.stopped = true
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
}

func (m *UptimeMonitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Stats returns a snapshot of the session counters.
func (m *UptimeMonitor) Stats() RunStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats.Clone()
}

// RecentIncidents returns up to n incidents of this session, oldest first.
func (m *UptimeMonitor) RecentIncidents(n int) []incident.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tail := incident.Tail(m.seen, n)
	out := make([]incident.Record, len(tail))
	copy(out, tail)
	return out
}

func (m *UptimeMonitor) Targets() []models.Target {
	return m.targets
}

// tick probes every target once, in order. A probe interrupted by
// cancellation is discarded.
func (m *UptimeMonitor) tick(ctx context.Context) {
	for _, target := range m.targets {
		if ctx.Err() != nil {
			return
		}

		outcome := m.prober.Probe(ctx, target)
		if ctx.Err() != nil {
			return
		}

		m.handleOutcome(ctx, outcome)
	}
}

func (m *UptimeMonitor) handleOutcome(ctx context.Context, outcome net.Outcome) {
	m.mu.Lock()
	check := m.stats.Observe(outcome)
	stats := m.stats.Clone()
	m.mu.Unlock()

	if outcome.Type.IsFailure() {
		rec := incident.Record{
			Timestamp: outcome.CheckedAt,
			Check:     check,
			URL:       outcome.URL,
			Type:      outcome.Type,
			Detail:    outcome.Detail,
			Latency:   outcome.Latency,
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = time.Now()
		}

		if err := m.incidents.Record(rec); err != nil {
			log.Error().Err(err).Int64("check", check).Str("url", outcome.URL).Msg("failed to write incident log")
		}

		m.mu.Lock()
		m.seen = append(m.seen, rec)
		if len(m.seen) > recentCapacity {
			m.seen = m.seen[len(m.seen)-recentCapacity:]
		}
		m.mu.Unlock()

		if m.notifier != nil {
			if err := m.notifier.Notify(ctx, rec); err != nil {
				log.Warn().Err(err).Str("url", rec.URL).Msg("[webhook] failed to forward incident")
			}
		}
	}

	if m.history != nil {
		err := m.history.SaveHistory(&models.History{
			RunID:        m.runID,
			Check:        check,
			URL:          outcome.URL,
			Type:         outcome.Type,
			StatusCode:   outcome.StatusCode,
			ResponseTime: outcome.Latency.Milliseconds(),
			Detail:       outcome.Detail,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to save result to database")
		}
	}

	m.printStatus(check, outcome, &stats)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (m *UptimeMonitor) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}
