package clickhousesink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nf9sond/pkg/models/flow"
	"nf9sond/pkg/sink"
)

func TestNewAppliesDefaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, "localhost:9000", s.cfg.Address)
	assert.Equal(t, "flows", s.cfg.Database)
}

func TestNewKeepsExplicitConfig(t *testing.T) {
	s := New(Config{Address: "clickhouse.internal:9000", Database: "netflow"})
	assert.Equal(t, "clickhouse.internal:9000", s.cfg.Address)
	assert.Equal(t, "netflow", s.cfg.Database)
}

func TestDSNIncludesCredentials(t *testing.T) {
	s := New(Config{Address: "10.0.0.5:9000", User: "nf9", Password: "secret", Database: "flows"})
	dsn := s.dsn()
	assert.Contains(t, dsn, "tcp://10.0.0.5:9000")
	assert.Contains(t, dsn, "username=nf9")
	assert.Contains(t, dsn, "password=secret")
	assert.Contains(t, dsn, "database=flows")
}

func TestOperationsFailBeforeOpen(t *testing.T) {
	s := New(Config{})

	assert.ErrorIs(t, s.EnsureSchema(), sink.ErrNotOpen)
	assert.ErrorIs(t, s.Write(&flow.Record{}), sink.ErrNotOpen)
	assert.ErrorIs(t, s.HealthCheck(), sink.ErrNotOpen)
}

func TestCloseIsIdempotentWithoutOpen(t *testing.T) {
	s := New(Config{})
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestSinkSatisfiesInterface(t *testing.T) {
	var _ sink.Sink = New(Config{})
}
