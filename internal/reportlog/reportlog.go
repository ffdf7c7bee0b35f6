// Package reportlog appends completed analyses to daily JSON-lines files.
package reportlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stock-sentiment-agent/internal/types"
)

const fileExt = ".jsonl"

// Entry is the summary line written per report.
type Entry struct {
	Time           string  `json:"time"`
	ReportID       string  `json:"report_id"`
	Ticker         string  `json:"ticker"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Label          string  `json:"label"`
	Agreement      string  `json:"agreement"`
	MeanPolarity   float64 `json:"mean_polarity"`
	Confidence     float64 `json:"confidence"`
	Headlines      int     `json:"headlines"`
	Positive       int     `json:"positive"`
	Negative       int     `json:"negative"`
	Neutral        int     `json:"neutral"`
	PriceChangePct float64 `json:"price_change_pct"`
}

type Log struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

func New(dir string) *Log {
	if dir == "" {
		dir = "logs"
	}
	return &Log{dir: filepath.Join(dir, "reports"), now: time.Now}
}

func (l *Log) dailyFilepath(t time.Time) string {
	return filepath.Join(l.dir, t.UTC().Format(time.DateOnly)+fileExt)
}

// EntryFor summarises r.
func EntryFor(r *types.Report) Entry {
	return Entry{
		ReportID:       r.ID,
		Ticker:         r.Ticker,
		Start:          r.Range.Start.Format(time.DateOnly),
		End:            r.Range.End.Format(time.DateOnly),
		Label:          string(r.Aggregate.Label),
		Agreement:      string(r.Correlation.Agreement),
		MeanPolarity:   r.Aggregate.MeanPolarity,
		Confidence:     r.Aggregate.Confidence,
		Headlines:      r.Aggregate.HeadlineCount,
		Positive:       r.Aggregate.PositiveCount,
		Negative:       r.Aggregate.NegativeCount,
		Neutral:        r.Aggregate.NeutralCount,
		PriceChangePct: r.Correlation.PriceChangePct,
	}
}

// Append writes one line for r to today's file.
func (l *Log) Append(r *types.Report) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := EntryFor(r)
	e.Time = now.UTC().Format(time.RFC3339)

	p := l.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips daily files last modified more than retentionDays ago.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != fileExt {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		return compress(p)
	})
}

func compress(p string) error {
	gz := p + ".gz"
	// a previous run already produced the archive
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return nil
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil
	}

	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	closeErr := gw.Close()
	_ = out.Close()

	if copyErr != nil || closeErr != nil {
		_ = os.Remove(gz)
		return nil
	}
	return os.Remove(p)
}
