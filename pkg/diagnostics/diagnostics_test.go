package diagnostics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenOptionalEmptyPathReturnsNil(t *testing.T) {
	d, err := OpenOptional("")
	require.NoError(t, err)
	assert.Nil(t, d)

	// Dump and Close on a nil *Dumper must be safe no-ops.
	assert.NoError(t, d.Dump("probe-a", "192.0.2.1", []byte{1, 2, 3}))
	assert.NoError(t, d.Close())
}

func TestDumpWritesHeaderAndBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Dump("probe-a", "192.0.2.1", []byte{0xde, 0xad, 0xbe, 0xef}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(contents)

	assert.Contains(t, out, "probe=probe-a source=192.0.2.1 length=4")
	assert.Contains(t, out, "de ad be ef")
}

func TestDumpAppendsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Dump("probe-a", "192.0.2.1", []byte{1}))
	require.NoError(t, d.Dump("probe-b", "192.0.2.2", []byte{2}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(contents)

	assert.Equal(t, 2, strings.Count(out, "probe="))
}

func TestDumpIsSafeForConcurrentProbes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = d.Dump("probe", "192.0.2.1", []byte{byte(n)})
		}(i)
	}
	wg.Wait()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, strings.Count(string(contents), "probe=probe"))
}
