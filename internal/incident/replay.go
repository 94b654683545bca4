package incident

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

// Replay reads incident lines back. Blank lines and "#" comments are skipped.
func Replay(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		rec, err := ParseLine(line)
		if err != nil {
			return records, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to read incident log: %w", err)
	}

	return records, nil
}

// ReplayFile replays path. A missing file holds no incidents.
func ReplayFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open incident log: %w", err)
	}
	defer f.Close()

	return Replay(f)
}

func Tail(records []Record, n int) []Record {
	if n <= 0 {
		return nil
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

// Summary aggregates replayed records.
type Summary struct {
	Total  int            `json:"total"`
	ByType map[Type]int   `json:"by_type"`
	ByURL  map[string]int `json:"by_url"`
	First  *time.Time     `json:"first,omitempty"`
	Last   *time.Time     `json:"last,omitempty"`
}

// Summarize counts records by type and URL. When url is not empty only its
// records are counted.
func Summarize(records []Record, url string) Summary {
	s := Summary{
		ByType: make(map[Type]int),
		ByURL:  make(map[string]int),
	}

	for i := range records {
		rec := records[i]
		if url != "" && rec.URL != url {
			continue
		}

		s.Total++
		s.ByType[rec.Type]++
		s.ByURL[rec.URL]++

		ts := rec.Timestamp
		if s.First == nil || ts.Before(*s.First) {
			s.First = &ts
		}
		if s.Last == nil || ts.After(*s.Last) {
			s.Last = &ts
		}
	}

	return s
}

// Filter returns the records for url, or all records when url is empty.
func Filter(records []Record, url string) []Record {
	if url == "" {
		return records
	}

	var out []Record
	for _, rec := range records {
		if rec.URL == url {
			out = append(out, rec)
		}
	}
	return out
}
