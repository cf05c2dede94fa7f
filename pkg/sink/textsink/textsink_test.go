package textsink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nf9sond/pkg/models/flow"
	"nf9sond/pkg/sink"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestOpenWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv")
	s := New(Config{Path: path})
	require.NoError(t, s.Open())
	require.NoError(t, s.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, header, rows[0])
}

func TestOpenOnExistingFileDoesNotDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv")

	s1 := New(Config{Path: path})
	require.NoError(t, s1.Open())
	require.NoError(t, s1.Write(&flow.Record{ProbeName: "probe-a"}))
	require.NoError(t, s1.Close())

	s2 := New(Config{Path: path})
	require.NoError(t, s2.Open())
	require.NoError(t, s2.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 2) // one header, one data row
	assert.Equal(t, header, rows[0])
}

func TestWriteAppendsRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv")
	s := New(Config{Path: path})
	require.NoError(t, s.Open())

	rec := &flow.Record{
		SourceIP:        "10.0.0.1",
		DestinationIP:   "10.0.0.2",
		SourcePort:      443,
		DestinationPort: 51514,
		Protocol:        6,
		PacketCount:     2,
		ByteCount:       1500,
		ProbeName:       "probe-a",
	}
	require.NoError(t, s.Write(rec))
	require.NoError(t, s.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "443", "51514", "6", "2", "1500", "", "", "probe-a"}, rows[1])
}

func TestOperationsFailBeforeOpen(t *testing.T) {
	s := New(Config{Path: "unused.csv"})

	assert.ErrorIs(t, s.EnsureSchema(), sink.ErrNotOpen)
	assert.ErrorIs(t, s.Write(&flow.Record{}), sink.ErrNotOpen)
	assert.ErrorIs(t, s.HealthCheck(), sink.ErrNotOpen)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv")
	s := New(Config{Path: path})
	require.NoError(t, s.Open())

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
