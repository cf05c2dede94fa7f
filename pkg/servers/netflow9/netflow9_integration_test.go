package netflow9

import (
	"encoding/binary"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nf9sond/pkg/sink/sqlitesink"
)

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func buildDatagram() []byte {
	header := append([]byte{}, u16(9)...)
	header = append(header, u16(2)...)
	header = append(header, u32(0)...)
	header = append(header, u32(0)...)
	header = append(header, u32(1)...)
	header = append(header, u32(100)...)

	tmplFields := append([]byte{}, u16(8)...)
	tmplFields = append(tmplFields, u16(4)...)
	tmplFields = append(tmplFields, u16(1)...)
	tmplFields = append(tmplFields, u16(4)...)

	tmplBody := append([]byte{}, u16(300)...)
	tmplBody = append(tmplBody, u16(2)...)
	tmplBody = append(tmplBody, tmplFields...)
	tmplFlowSet := append([]byte{}, u16(0)...)
	tmplFlowSet = append(tmplFlowSet, u16(uint16(4+len(tmplBody)))...)
	tmplFlowSet = append(tmplFlowSet, tmplBody...)

	dataRecord := append([]byte{192, 0, 2, 55}, u32(64)...)
	dataFlowSet := append([]byte{}, u16(300)...)
	dataFlowSet = append(dataFlowSet, u16(uint16(4+len(dataRecord)))...)
	dataFlowSet = append(dataFlowSet, dataRecord...)

	datagram := append(header, tmplFlowSet...)
	datagram = append(datagram, dataFlowSet...)
	return datagram
}

func startTestRuntime(t *testing.T, cfg Config) (*Runtime, int) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flows.db")
	s := sqlitesink.New(sqlitesink.Config{Path: path})

	// Validate rejects port 0, so borrow a free port from a throwaway
	// socket and hand it to the runtime.
	probe, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	cfg.Port = probe.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, probe.Close())

	rt, err := New(cfg, s, nil, nil)
	require.NoError(t, err)
	t.Cleanup(rt.Stop)

	port := rt.conn.LocalAddr().(*net.UDPAddr).Port
	return rt, port
}

func TestRuntimeDecodesAcceptedDatagram(t *testing.T) {
	rt, port := startTestRuntime(t, Config{Name: "probe-a"})

	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(buildDatagram())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return rt.decoder.Templates().Get(300) != nil
	}, time.Second, 10*time.Millisecond)
}

func TestRuntimeRejectsFilteredSource(t *testing.T) {
	rt, port := startTestRuntime(t, Config{Name: "probe-a", FilterAddr: "203.0.113.9"})

	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(buildDatagram())
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, rt.decoder.Templates().Get(300))
}
