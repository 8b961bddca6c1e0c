// Package reslog appends screening results to a flat CSV log. The log is
// append-only: records are written once and read back by the dashboard.
package reslog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

// Record is one logged screening result.
type Record struct {
	Timestamp  time.Time
	Instrument string
	Score      int
	MaxScore   int
	Severity   string
	RiskTier   string
}

var header = []string{"timestamp", "instrument", "score", "max_score", "severity", "risk_tier"}

// Logger serializes appends to a single CSV file. The mutex plus O_APPEND
// keeps rows intact under concurrent in-process writers; cross-process
// writers are out of scope.
type Logger struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Logger {
	return &Logger{path: path}
}

// Append writes one record, creating the file with a header row on first
// use. I/O errors are returned unmodified for the caller to surface.
func (l *Logger) Append(rec Record) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, oerr := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if oerr != nil {
		return fmt.Errorf("open result log: %w", oerr)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close result log: %w", cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat result log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	row := []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Instrument,
		strconv.Itoa(rec.Score),
		strconv.Itoa(rec.MaxScore),
		rec.Severity,
		rec.RiskTier,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush result log: %w", err)
	}
	return nil
}

// ReadAll parses the log back into records. A missing file reads as empty.
func (l *Logger) ReadAll() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open result log: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	var out []Record
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read result log: %w", err)
		}
		if first {
			first = false
			continue // header
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("malformed row: %d columns, want %d", len(row), len(header))
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", row[0], err)
		}
		score, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("parse score %q: %w", row[2], err)
		}
		maxScore, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("parse max score %q: %w", row[3], err)
		}
		out = append(out, Record{
			Timestamp:  ts,
			Instrument: row[1],
			Score:      score,
			MaxScore:   maxScore,
			Severity:   row[4],
			RiskTier:   row[5],
		})
	}
	return out, nil
}
