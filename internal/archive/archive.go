// Package archive persists computed assessments to Parquet files and
// answers aggregate questions over them with DuckDB.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"seadrift/internal/domain"
)

const (
	fileLayout = "2006-01-02_15-04-05"
	dayLayout  = "2006-01-02"
)

// Archive buffers records in memory and writes them out as one
// ZSTD-compressed Parquet file per flush.
type Archive struct {
	dir           string
	maxRecords    int
	flushInterval time.Duration

	mu  sync.Mutex
	buf []Record

	writeMu sync.Mutex
	db      *sql.DB

	written  int64
	files    int64
	statsMu  sync.RWMutex
	lastFile string

	logger *slog.Logger
	now    func() time.Time
}

func New(dir string, maxRecords int, flushInterval time.Duration, logger *slog.Logger) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &Archive{
		dir:           dir,
		maxRecords:    maxRecords,
		flushInterval: flushInterval,
		db:            db,
		logger:        logger.With("component", "archive"),
		now:           time.Now,
	}, nil
}

// Append buffers the assessment for the next flush, flushing immediately
// once the buffer is full.
func (a *Archive) Append(as *domain.Assessment) error {
	rec, err := NewRecord(as)
	if err != nil {
		return fmt.Errorf("building record: %w", err)
	}

	a.mu.Lock()
	a.buf = append(a.buf, rec)
	full := len(a.buf) >= a.maxRecords
	a.mu.Unlock()

	if full {
		return a.Flush()
	}
	return nil
}

// Run flushes on every interval tick and once more on shutdown.
func (a *Archive) Run(ctx context.Context) {
	if a.flushInterval <= 0 {
		<-ctx.Done()
		a.flushOnShutdown()
		return
	}

	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.flushOnShutdown()
			return
		case <-ticker.C:
			if err := a.Flush(); err != nil {
				a.logger.Error("archive flush failed", "error", err)
			}
		}
	}
}

func (a *Archive) flushOnShutdown() {
	if err := a.Flush(); err != nil {
		a.logger.Error("final archive flush failed", "error", err)
	}
}

func (a *Archive) Flush() error {
	a.mu.Lock()
	records := a.buf
	a.buf = nil
	a.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	path := a.nextPath()
	start := time.Now()
	if err := writeParquet(path, records); err != nil {
		// Put the records back so the next flush retries them.
		a.mu.Lock()
		a.buf = append(records, a.buf...)
		a.mu.Unlock()
		return err
	}

	a.statsMu.Lock()
	a.written += int64(len(records))
	a.files++
	a.lastFile = path
	a.statsMu.Unlock()

	a.logger.Info("archive flushed",
		"file", path,
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (a *Archive) nextPath() string {
	base := a.now().UTC().Format(fileLayout)
	path := filepath.Join(a.dir, base+".parquet")
	for i := 1; fileExists(path); i++ {
		path = filepath.Join(a.dir, fmt.Sprintf("%s-%d.parquet", base, i))
	}
	return path
}

func writeParquet(path string, records []Record) (err error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("creating parquet file: %w", err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing parquet file: %w", cerr)
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(Record), 4)
	if err != nil {
		return fmt.Errorf("initializing parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalizing parquet writer: %w", err)
	}
	return nil
}

// Buffered reports how many records await the next flush
func (a *Archive) Buffered() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

type WriterStats struct {
	RecordsWritten int64  `json:"recordsWritten"`
	FilesWritten   int64  `json:"filesWritten"`
	Buffered       int    `json:"buffered"`
	LastFile       string `json:"lastFile,omitempty"`
}

func (a *Archive) WriterStats() WriterStats {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()
	return WriterStats{
		RecordsWritten: a.written,
		FilesWritten:   a.files,
		Buffered:       a.Buffered(),
		LastFile:       a.lastFile,
	}
}

func (a *Archive) Close() error {
	err := a.Flush()
	return errors.Join(err, a.db.Close())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
