// Package sink accumulates probe results and persists them as CSV.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
	"github.com/MrSnakeDoc/enumlive/internal/utils"
)

// Columns is the fixed CSV header.
var Columns = []string{"Hostname", "Live Status", "Host Title", "Status Code"}

// ErrAlreadyFinalized is returned by a second call to Finalize.
var ErrAlreadyFinalized = errors.New("sink: already finalized")

// Sink holds the ResultSet in completion order. Append is safe for
// concurrent use; Finalize writes the file at most once.
type Sink struct {
	mu        sync.Mutex
	results   []domain.ProbeResult
	live      int
	finalized bool

	path   string
	logger logger.Logger
}

// New creates a sink that will write to path on Finalize.
func New(path string, log logger.Logger) *Sink {
	return &Sink{
		path:   path,
		logger: log,
	}
}

// Path returns the output file path.
func (s *Sink) Path() string {
	return s.path
}

// Append records one result.
func (s *Sink) Append(r domain.ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, r)
	if r.IsLive() {
		s.live++
	}
}

// Len returns how many results have been appended.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Counts returns the number of live and down results so far.
func (s *Sink) Counts() (live, down int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live, len(s.results) - s.live
}

// Snapshot returns a copy of the results appended so far.
func (s *Sink) Snapshot() []domain.ProbeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ProbeResult, len(s.results))
	copy(out, s.results)
	return out
}

// Finalize writes everything appended so far to the output file.
// The file is written next to its destination and renamed into place, so a
// reader never sees a half-written CSV.
func (s *Sink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return ErrAlreadyFinalized
	}
	s.finalized = true

	if err := s.writeFile(); err != nil {
		return err
	}

	s.logger.Info("results written",
		logger.String("path", s.path),
		logger.Int("rows", len(s.results)),
		logger.Int("live", s.live))
	return nil
}

func (s *Sink) writeFile() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if err := WriteCSV(tmp, s.results); err != nil {
		utils.Close(tmp)
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set output file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// WriteCSV serializes results with the fixed header. The Status Code cell
// is empty for results that carry no code.
func WriteCSV(w io.Writer, results []domain.ProbeResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		if err := cw.Write(Record(r)); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", r.Hostname, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// Record renders one result as a CSV row.
func Record(r domain.ProbeResult) []string {
	code := ""
	if c, ok := r.Code(); ok {
		code = strconv.Itoa(c)
	}
	return []string{r.Hostname, string(r.Status), r.Title, code}
}
