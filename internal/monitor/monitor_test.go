package monitor

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pingwatch/internal/incident"
	"pingwatch/internal/models"
	"pingwatch/internal/net"
	"pingwatch/internal/net/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProber cycles through outcomes and cancels the run when asked for
// probe number limit+1, which the monitor must then discard.
type scriptedProber struct {
	t        *testing.T
	monitor  *UptimeMonitor
	outcomes []net.Outcome
	limit    int
	cancel   context.CancelFunc
	calls    int
}

func (p *scriptedProber) Probe(ctx context.Context, target models.Target) net.Outcome {
	p.calls++

	if p.monitor != nil {
		stats := p.monitor.Stats()
		assert.True(p.t, stats.Consistent(), "counters out of sync: %+v", stats)
		assert.Equal(p.t, int64(p.calls-1), stats.ChecksTotal)
	}

	if p.calls > p.limit {
		p.cancel()
		return net.Outcome{URL: target.URL, Type: incident.OtherError, Detail: "context canceled"}
	}

	o := p.outcomes[(p.calls-1)%len(p.outcomes)]
	o.URL = target.URL
	o.CheckedAt = time.Now()
	return o
}

type memoryLogger struct {
	records []incident.Record
	begins  int
	err     error
}

func (l *memoryLogger) Begin() error {
	l.begins++
	return l.err
}

func (l *memoryLogger) Record(rec incident.Record) error {
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, rec)
	return nil
}

func (l *memoryLogger) Path() string { return "memory" }

type memoryNotifier struct{ sent []incident.Record }

func (n *memoryNotifier) Notify(ctx context.Context, rec incident.Record) error {
	n.sent = append(n.sent, rec)
	return errors.New("endpoint unavailable")
}

var (
	success = net.Outcome{Type: incident.Success, StatusCode: 200, Latency: 20 * time.Millisecond}
	timeout = net.Outcome{Type: incident.Timeout, Latency: time.Second, Detail: "context deadline exceeded"}
	refused = net.Outcome{Type: incident.ConnectionError, Detail: "connect: connection refused"}
	broken  = net.Outcome{Type: incident.OtherError, Detail: "EOF"}
)

func target(url string) models.Target {
	return models.Target{URL: url, Timeout: time.Second, Enabled: true}
}

func runScripted(t *testing.T, targets []models.Target, outcomes []net.Outcome, limit int, logger IncidentLogger, opts Options) (*UptimeMonitor, *scriptedProber, *bytes.Buffer) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &bytes.Buffer{}
	opts.Out = out

	prober := &scriptedProber{t: t, outcomes: outcomes, limit: limit, cancel: cancel}
	m, err := NewUptimeMonitor(targets, prober, logger, opts)
	require.NoError(t, err)
	prober.monitor = m

	require.NoError(t, m.Run(ctx))
	assert.Equal(t, Stopped, m.State())

	return m, prober, out
}

func TestNewUptimeMonitor(t *testing.T) {
	logger := &memoryLogger{}
	prober := &scriptedProber{}

	testCases := []struct {
		name    string
		targets []models.Target
		prober  Prober
		logger  IncidentLogger
		wantErr bool
	}{
		{name: "valid", targets: []models.Target{target("http://a")}, prober: prober, logger: logger},
		{name: "no targets", prober: prober, logger: logger, wantErr: true},
		{name: "all disabled", targets: []models.Target{{URL: "http://a"}}, prober: prober, logger: logger, wantErr: true},
		{name: "missing prober", targets: []models.Target{target("http://a")}, logger: logger, wantErr: true},
		{name: "missing logger", targets: []models.Target{target("http://a")}, prober: prober, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewUptimeMonitor(tc.targets, tc.prober, tc.logger, Options{})
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Stopped, m.State())
			assert.Len(t, m.Targets(), 1)
		})
	}
}

func TestRunAlwaysUp(t *testing.T) {
	logger := &memoryLogger{}

	m, prober, out := runScripted(t, []models.Target{target("http://up")}, []net.Outcome{success}, 5, logger, Options{})

	stats := m.Stats()
	assert.Equal(t, int64(5), stats.ChecksTotal)
	assert.Equal(t, int64(5), stats.Successes)
	assert.Equal(t, int64(0), stats.Incidents())
	assert.Equal(t, 100.0, stats.SuccessRate())
	assert.Empty(t, logger.records)
	assert.Equal(t, 1, logger.begins)
	assert.Equal(t, 6, prober.calls)

	assert.Contains(t, out.String(), "Total checks: 5")
	assert.Contains(t, out.String(), "No incidents recorded this session")
}

func TestRunAlwaysTimingOut(t *testing.T) {
	logger := &memoryLogger{}

	m, _, out := runScripted(t, []models.Target{target("http://slow")}, []net.Outcome{timeout}, 4, logger, Options{RecentIncidents: 2})

	stats := m.Stats()
	assert.Equal(t, int64(4), stats.ChecksTotal)
	assert.Equal(t, int64(4), stats.Timeouts)
	assert.Equal(t, 0.0, stats.SuccessRate())

	require.Len(t, logger.records, 4)
	for i, rec := range logger.records {
		assert.Equal(t, int64(i+1), rec.Check)
		assert.Equal(t, incident.Timeout, rec.Type)
		assert.Equal(t, "http://slow", rec.URL)
		assert.Equal(t, time.Second, rec.Latency)
	}

	assert.Contains(t, out.String(), "Recent incidents (last 2 of 4)")
	assert.Contains(t, out.String(), "check #4 - timeout")
	assert.NotContains(t, out.String(), "check #2 - timeout")
}

func TestRunMixedOutcomes(t *testing.T) {
	logger := &memoryLogger{}
	targets := []models.Target{target("http://a"), target("http://b")}
	outcomes := []net.Outcome{success, timeout, refused, broken, success}

	m, _, out := runScripted(t, targets, outcomes, 10, logger, Options{})

	stats := m.Stats()
	assert.True(t, stats.Consistent())
	assert.Equal(t, int64(10), stats.ChecksTotal)
	assert.Equal(t, int64(4), stats.Successes)
	assert.Equal(t, int64(2), stats.Timeouts)
	assert.Equal(t, int64(4), stats.OtherFailures)
	assert.Equal(t, stats.Incidents(), int64(len(logger.records)))

	// targets alternate within each tick
	assert.Equal(t, int64(5), stats.PerTarget["http://a"].Checks)
	assert.Equal(t, int64(5), stats.PerTarget["http://b"].Checks)

	for i := 1; i < len(logger.records); i++ {
		assert.Greater(t, logger.records[i].Check, logger.records[i-1].Check)
	}

	assert.Contains(t, out.String(), "Per target:")
	assert.Contains(t, out.String(), "success rate 40.0%")
}

func TestRunSurvivesIncidentLogFailure(t *testing.T) {
	logger := &memoryLogger{err: errors.New("disk full")}

	m, _, out := runScripted(t, []models.Target{target("http://down")}, []net.Outcome{refused}, 3, logger, Options{})

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.ChecksTotal)
	assert.Equal(t, int64(3), stats.OtherFailures)
	assert.Len(t, m.RecentIncidents(10), 3)
	assert.Contains(t, out.String(), "Total checks: 3")
}

func TestRunForwardsIncidentsAndHistory(t *testing.T) {
	logger := &memoryLogger{}
	notifier := &memoryNotifier{}
	db, err := database.InitializeTestDatabase()
	require.NoError(t, err)

	runScripted(t, []models.Target{target("http://a")}, []net.Outcome{success, timeout}, 4, logger, Options{
		History:  db,
		Notifier: notifier,
	})

	assert.Len(t, notifier.sent, 2)

	histories, err := db.Recent("http://a", 10)
	require.NoError(t, err)
	require.Len(t, histories, 4)
	assert.Equal(t, incident.Success, histories[0].Type)
	assert.Equal(t, incident.Timeout, histories[1].Type)
	assert.Equal(t, histories[0].RunID, histories[3].RunID)
}

func TestStopWhileProbeInFlight(t *testing.T) {
	started := make(chan struct{})
	blocking := proberFunc(func(ctx context.Context, target models.Target) net.Outcome {
		close(started)
		<-ctx.Done()
		return net.Outcome{URL: target.URL, Type: incident.Timeout}
	})

	logger := &memoryLogger{}
	out := &bytes.Buffer{}
	m, err := NewUptimeMonitor([]models.Target{target("http://hang")}, blocking, logger, Options{Out: out})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	<-started
	assert.Equal(t, Running, m.State())
	m.Stop()

	require.NoError(t, <-done)
	assert.Equal(t, int64(0), m.Stats().ChecksTotal)
	assert.Empty(t, logger.records)
	assert.Contains(t, out.String(), "Total checks: 0")
}

func TestStopDuringDelay(t *testing.T) {
	probed := make(chan struct{}, 1)
	quick := proberFunc(func(ctx context.Context, target models.Target) net.Outcome {
		select {
		case probed <- struct{}{}:
		default:
		}
		return net.Outcome{URL: target.URL, Type: incident.Success, StatusCode: 204}
	})

	out := &bytes.Buffer{}
	m, err := NewUptimeMonitor([]models.Target{target("http://a")}, quick, &memoryLogger{}, Options{Out: out, Delay: time.Hour})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	<-probed
	require.Eventually(t, func() bool { return m.Stats().ChecksTotal == 1 }, time.Second, 5*time.Millisecond)
	m.Stop()

	require.NoError(t, <-done)
	assert.Equal(t, int64(1), m.Stats().Successes)
	assert.Contains(t, out.String(), "Total checks: 1")
	assert.Contains(t, out.String(), "Success rate: 100.0%")
}

func TestRunWithRealProberAndLog(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	path := filepath.Join(t.TempDir(), "timeout.txt")
	logger, err := incident.NewLogger(path, incident.FormatText)
	require.NoError(t, err)

	counting := &countingProber{inner: net.NewProber(net.NetworkConfig{}), limit: 3}
	m, err := NewUptimeMonitor(
		[]models.Target{{URL: slow.URL, Timeout: 50 * time.Millisecond, Enabled: true}},
		counting, logger, Options{Out: &bytes.Buffer{}},
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	counting.cancel = cancel

	require.NoError(t, m.Run(ctx))

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.ChecksTotal)
	assert.Equal(t, int64(3), stats.Timeouts)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), 3)

	records, err := incident.ReplayFile(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, stats.Incidents(), int64(len(records)))
	for i, rec := range records {
		assert.Equal(t, int64(i+1), rec.Check)
		assert.GreaterOrEqual(t, rec.Latency, 40*time.Millisecond)
	}
}

func TestRunAlwaysUpLeavesIncidentLogUntouched(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	path := filepath.Join(t.TempDir(), "timeout.txt")
	seed := "[2025-08-18T12:00:00Z] check #1 - timeout - url: http://old - latency: 60.00s - detail: earlier session\n"
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	logger, err := incident.NewLogger(path, incident.FormatText)
	require.NoError(t, err)

	counting := &countingProber{inner: net.NewProber(net.NetworkConfig{}), limit: 3}
	m, err := NewUptimeMonitor([]models.Target{target(up.URL)}, counting, logger, Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	counting.cancel = cancel

	require.NoError(t, m.Run(ctx))
	assert.Equal(t, int64(3), m.Stats().Successes)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, seed, string(after))
}

func TestStopBeforeRun(t *testing.T) {
	counting := &countingProber{inner: proberFunc(func(ctx context.Context, target models.Target) net.Outcome {
		return net.Outcome{URL: target.URL, Type: incident.Success}
	}), limit: 1000}

	out := &bytes.Buffer{}
	m, err := NewUptimeMonitor([]models.Target{target("http://a")}, counting, &memoryLogger{}, Options{Out: out})
	require.NoError(t, err)

	m.Stop()

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after an early Stop")
	}

	assert.Equal(t, 0, counting.calls)
	assert.Equal(t, Stopped, m.State())
	assert.Contains(t, out.String(), "Total checks: 0")

	// the request is consumed by that Run and Stop after it is a no-op
	m.Stop()
}

type proberFunc func(ctx context.Context, target models.Target) net.Outcome

func (f proberFunc) Probe(ctx context.Context, target models.Target) net.Outcome {
	return f(ctx, target)
}

// countingProber cancels the run once limit probes have completed.
type countingProber struct {
	inner  Prober
	limit  int
	calls  int
	cancel context.CancelFunc
}

func (p *countingProber) Probe(ctx context.Context, target models.Target) net.Outcome {
	p.calls++
	if p.calls > p.limit {
		p.cancel()
	}
	return p.inner.Probe(ctx, target)
}
