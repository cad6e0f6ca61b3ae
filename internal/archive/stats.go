package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Stats aggregates archived assessments over a time range
type Stats struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Files          int       `json:"files"`
	Assessments    int64     `json:"assessments"`
	Incidents      int64     `json:"incidents"`
	InlandShare    float64   `json:"inlandShare"`
	FallbackShare  float64   `json:"fallbackShare"`
	AvgRadiusNm    float64   `json:"avgRadiusNm"`
	MaxRadiusNm    float64   `json:"maxRadiusNm"`
	AvgConfidence  float64   `json:"avgConfidence"`
	AvgDriftNm     float64   `json:"avgDriftNm"`
	MaxElapsedMins float64   `json:"maxElapsedMinutes"`
}

// Stats queries every archive file written on the days between from and to
// and aggregates the rows whose computed_at falls inside [from, to].
// Buffered records that have not been flushed are not included.
func (a *Archive) Stats(ctx context.Context, from, to time.Time) (Stats, error) {
	if to.Before(from) {
		return Stats{}, fmt.Errorf("invalid range: %s is before %s", to, from)
	}
	s := Stats{From: from, To: to}

	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	files, err := a.filesBetween(from, to)
	if err != nil {
		return Stats{}, err
	}

	s.Files = len(files)
	if len(files) == 0 {
		return s, nil
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(DISTINCT incident_id),
			COALESCE(AVG(CASE WHEN mode = 'inland' THEN 1.0 ELSE 0.0 END), 0),
			COALESCE(AVG(CASE WHEN fallback_weather THEN 1.0 ELSE 0.0 END), 0),
			COALESCE(AVG(radius_nm), 0),
			COALESCE(MAX(radius_nm), 0),
			COALESCE(AVG(confidence), 0),
			COALESCE(AVG(drift_nm), 0),
			COALESCE(MAX(elapsed_minutes), 0)
		FROM read_parquet(%s)
		WHERE computed_at BETWEEN ? AND ?`, fileList(files))

	row := a.db.QueryRowContext(ctx, query, from.UTC(), to.UTC())
	err = row.Scan(
		&s.Assessments,
		&s.Incidents,
		&s.InlandShare,
		&s.FallbackShare,
		&s.AvgRadiusNm,
		&s.MaxRadiusNm,
		&s.AvgConfidence,
		&s.AvgDriftNm,
		&s.MaxElapsedMins,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("querying archive: %w", err)
	}
	return s, nil
}

// filesBetween lists the archive directory once and keeps the files whose
// day prefix falls between from and to. The cost is bounded by the number of
// files on disk, not by the width of the range.
func (a *Archive) filesBetween(from, to time.Time) ([]string, error) {
	a.writeMu.Lock()
	entries, err := os.ReadDir(a.dir)
	a.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}

	start := truncateDay(from.UTC())
	end := truncateDay(to.UTC())
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".parquet") || len(name) < len(dayLayout) {
			continue
		}
		day, err := time.Parse(dayLayout, name[:len(dayLayout)])
		if err != nil {
			continue
		}
		if day.Before(start) || day.After(end) {
			continue
		}
		files = append(files, filepath.Join(a.dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func fileList(files []string) string {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = "'" + strings.ReplaceAll(f, "'", "''") + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
