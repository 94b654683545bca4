package incident

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is one logged non-success probe outcome.
type Record struct {
	Timestamp time.Time     `json:"timestamp"`
	Check     int64         `json:"check"`
	URL       string        `json:"url"`
	Type      Type          `json:"type"`
	Detail    string        `json:"detail"`
	Latency   time.Duration `json:"-"`
}

type jsonRecord struct {
	Record
	LatencySeconds float64 `json:"latency_seconds"`
}

var textLine = regexp.MustCompile(
	`^\[([^\]]+)\] check #(\d+) - ([a-z_]+) - url: (.*?) - latency: ([0-9.]+)s - detail: (.*)$`,
)

// Line renders the record as a single line without the trailing newline.
func (r Record) Line(format Format) (string, error) {
	detail := flatten(r.Detail)

	if format == FormatJSON {
		rec := r
		rec.Detail = detail
		data, err := json.Marshal(jsonRecord{Record: rec, LatencySeconds: r.Latency.Seconds()})
		if err != nil {
			return "", fmt.Errorf("failed to encode incident: %w", err)
		}
		return string(data), nil
	}

	return fmt.Sprintf("[%s] check #%d - %s - url: %s - latency: %.2fs - detail: %s",
		r.Timestamp.Format(time.RFC3339),
		r.Check,
		r.Type,
		r.URL,
		r.Latency.Seconds(),
		detail,
	), nil
}

// ParseLine is the inverse of Line for both formats.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(line, "{") {
		var jr jsonRecord
		if err := json.Unmarshal([]byte(line), &jr); err != nil {
			return Record{}, fmt.Errorf("invalid json incident: %w", err)
		}
		rec := jr.Record
		rec.Latency = time.Duration(jr.LatencySeconds * float64(time.Second))
		if !rec.Type.Valid() {
			return Record{}, fmt.Errorf("unknown incident type %q", rec.Type)
		}
		return rec, nil
	}

	m := textLine.FindStringSubmatch(line)
	if m == nil {
		return Record{}, fmt.Errorf("unrecognized incident line")
	}

	ts, err := time.Parse(time.RFC3339, m[1])
	if err != nil {
		return Record{}, fmt.Errorf("invalid timestamp %q: %w", m[1], err)
	}
	check, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid check number %q: %w", m[2], err)
	}
	seconds, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid latency %q: %w", m[5], err)
	}

	rec := Record{
		Timestamp: ts,
		Check:     check,
		Type:      Type(m[3]),
		URL:       m[4],
		Latency:   time.Duration(seconds * float64(time.Second)),
		Detail:    m[6],
	}
	if !rec.Type.Valid() {
		return Record{}, fmt.Errorf("unknown incident type %q", rec.Type)
	}

	return rec, nil
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
