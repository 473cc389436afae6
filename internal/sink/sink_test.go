package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestFinalizeWritesHeaderAndRowsInAppendOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	s := New(path, logger.Nop())

	s.Append(domain.Live("b.example", "Bee", 200, "http"))
	s.Append(domain.Down("a.example"))
	s.Append(domain.Live("c.example", "Comma, \"quoted\"", 404, "https"))

	require.NoError(t, s.Finalize())

	records := readCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Hostname", "Live Status", "Host Title", "Status Code"}, records[0])
	assert.Equal(t, []string{"b.example", "Live", "Bee", "200"}, records[1])
	assert.Equal(t, []string{"a.example", "Down", "", ""}, records[2])
	assert.Equal(t, []string{"c.example", "Live", "Comma, \"quoted\"", "404"}, records[3])
}

func TestFinalizeEmptyResultSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	s := New(path, logger.Nop())

	require.NoError(t, s.Finalize())

	records := readCSV(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, Columns, records[0])
}

func TestFinalizeOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "once.csv")
	s := New(path, logger.Nop())
	s.Append(domain.Down("x.example"))

	require.NoError(t, s.Finalize())
	s.Append(domain.Down("late.example"))

	err := s.Finalize()
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	// The file on disk is the one from the first call.
	assert.Len(t, readCSV(t, path), 2)
}

func TestFinalizeOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,data\n1,2\n3,4\n"), 0o600))

	s := New(path, logger.Nop())
	s.Append(domain.Live("n.example", "New", 301, "http"))
	require.NoError(t, s.Finalize())

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "n.example", records[1][0])
}

func TestFinalizeMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does", "not", "exist.csv")
	s := New(path, logger.Nop())

	assert.Error(t, s.Finalize())
}

func TestFinalizeLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "out.csv"), logger.Nop())
	s.Append(domain.Down("z.example"))
	require.NoError(t, s.Finalize())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestAppendConcurrent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "c.csv"), logger.Nop())

	const writers, each = 8, 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				host := fmt.Sprintf("w%d-%d.example", w, i)
				if i%2 == 0 {
					s.Append(domain.Live(host, "", 200, "http"))
				} else {
					s.Append(domain.Down(host))
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, writers*each, s.Len())
	live, down := s.Counts()
	assert.Equal(t, writers*each/2, live)
	assert.Equal(t, writers*each/2, down)
	assert.Len(t, s.Snapshot(), writers*each)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New("unused.csv", logger.Nop())
	s.Append(domain.Down("a.example"))

	snap := s.Snapshot()
	snap[0].Hostname = "mutated"

	assert.Equal(t, "a.example", s.Snapshot()[0].Hostname)
}

func TestWriteCSVRowCount(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		results := make([]domain.ProbeResult, n)
		for i := range results {
			results[i] = domain.Down(fmt.Sprintf("h%d", i))
		}

		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, results))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 1+n)
	}
}
