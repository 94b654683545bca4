package monitor

import (
	"fmt"
	"sort"
	"strings"

	"pingwatch/internal/incident"
	"pingwatch/internal/net"
)

const rule = "============================================================"

func (m *UptimeMonitor) printBanner() {
	m.printf("Starting uptime monitoring for %d websites\n", len(m.targets))
	for _, t := range m.targets {
		m.printf("   %s\n", t)
	}
	m.printf("Delay between checks: %s\n", m.delay)
	m.printf("Incident log: %s\n", m.incidents.Path())
	m.printf("Press Ctrl+C to stop\n")
	m.printf("%s\n", rule)
}

func (m *UptimeMonitor) printStatus(check int64, outcome net.Outcome, stats *RunStats) {
	var b strings.Builder

	fmt.Fprintf(&b, "[%d] ", check)
	if !m.noTime {
		b.WriteString(outcome.CheckedAt.Format("2006-01-02 15:04:05") + " ")
	}
	fmt.Fprintf(&b, "%s - %s", outcome.URL, strings.ToUpper(string(outcome.Type)))
	if outcome.Type == incident.Success {
		fmt.Fprintf(&b, " - status: %d", outcome.StatusCode)
	}
	fmt.Fprintf(&b, " - latency: %.2fs", outcome.Latency.Seconds())
	if outcome.Detail != "" {
		b.WriteString(" - " + outcome.Detail)
	}

	m.printf("%s\n", b.String())
	m.printf("    stats: %d checks, %d successes, %d timeouts, %d other failures, success rate %.1f%%\n",
		stats.ChecksTotal, stats.Successes, stats.Timeouts, stats.OtherFailures, stats.SuccessRate())
}

func (m *UptimeMonitor) printSummary() {
	stats := m.Stats()
	recent := m.RecentIncidents(m.recent)

	m.printf("\n%s\n", rule)
	m.printf("Monitoring stopped\n")
	m.printf("Final statistics:\n")
	m.printf("   Total checks: %d\n", stats.ChecksTotal)
	m.printf("   Successes: %d\n", stats.Successes)
	m.printf("   Timeouts: %d\n", stats.Timeouts)
	m.printf("   Other failures: %d\n", stats.OtherFailures)
	if stats.ChecksTotal > 0 {
		m.printf("   Success rate: %.1f%%\n", stats.SuccessRate())
	}

	if len(stats.PerTarget) > 1 {
		urls := make([]string, 0, len(stats.PerTarget))
		for url := range stats.PerTarget {
			urls = append(urls, url)
		}
		sort.Strings(urls)

		m.printf("Per target:\n")
		for _, url := range urls {
			ts := stats.PerTarget[url]
			m.printf("   %s: %d checks, %d successes, %d timeouts, %d connection errors, %d other errors\n",
				url, ts.Checks, ts.Successes, ts.Timeouts, ts.ConnectionErrors, ts.OtherErrors)
		}
	}

	m.printf("Incident log: %s\n", m.incidents.Path())
	if len(recent) == 0 {
		m.printf("No incidents recorded this session\n")
	} else {
		m.printf("Recent incidents (last %d of %d):\n", len(recent), stats.Incidents())
		for _, rec := range recent {
			line, err := rec.Line(incident.FormatText)
			if err != nil {
				continue
			}
			m.printf("   %s\n", line)
		}
	}
	m.printf("%s\n", rule)
}
