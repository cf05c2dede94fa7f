// Package netflow9 implements the Probe Runtime: the composition of a
// UDP receiver, source filter, version dispatcher, NetFlow v9 decoder,
// and sink into one independent, self-contained worker. Grounded on
// the teacher's pkg/servers/ipfix IPFIXServer packet-worker loop
// (ReadFromUDP, bnet.IP conversion, stop-channel shutdown), reworked
// to the one-probe-one-decoder-one-sink model spec.md requires instead
// of the teacher's shared aggregator/output-channel model.
package netflow9

import (
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"nf9sond/pkg/diagnostics"
	"nf9sond/pkg/metrics"
	"nf9sond/pkg/models/flow"
	decoder "nf9sond/pkg/packet/netflow9"
	"nf9sond/pkg/sink"
)

// maxDatagramSize is the largest NetFlow v9 datagram the receiver will
// accept; datagrams never exceed a single UDP payload.
const maxDatagramSize = 65536

// Config is a single probe's static configuration, matching spec.md
// §3's ProbeConfig: {name, version, optional filter_address, udp_port}.
type Config struct {
	Name         string
	Version      int // not checked; each datagram's own version field decides how it is dispatched
	FilterAddr   string // source-IP allowlist; empty disables filtering
	Port         int
	Display      bool // print "source_ip port [ACCEPTED|REJECTED]" per datagram
}

// Validate enforces spec.md §3's ProbeConfig invariant: non-empty name,
// non-zero port.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("probe config: name must be non-empty")
	}
	if c.Port == 0 {
		return errors.New("probe config: port must be non-zero")
	}
	return nil
}

// Runtime is a Probe Runtime: exclusively owns a socket, a decoder
// (and through it, a private template table), and a sink. Nothing
// here is shared with any other Runtime.
type Runtime struct {
	cfg     Config
	conn    *net.UDPConn
	decoder *decoder.Decoder
	sink    sink.Sink
	dumper  *diagnostics.Dumper

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New binds the probe's UDP port, opens the sink, and starts the
// receive loop on its own goroutine (one OS thread per probe, per
// spec.md §5's scheduling model). dumper may be nil to disable
// diagnostic hex dumps; resolver may be nil to disable interface-name
// enrichment.
func New(cfg Config, s sink.Sink, resolver decoder.InterfaceResolver, dumper *diagnostics.Dumper) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := s.Open(); err != nil {
		return nil, errors.Wrap(err, "netflow9: sink open")
	}

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort("", strconv.Itoa(cfg.Port)))
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "netflow9: resolve udp address")
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "netflow9: listen udp")
	}

	dec := decoder.NewDecoder(cfg.Name)
	if resolver != nil {
		dec.SetInterfaceResolver(resolver)
	}

	r := &Runtime{
		cfg:     cfg,
		conn:    conn,
		decoder: dec,
		sink:    s,
		dumper:  dumper,
		stopCh:  make(chan struct{}),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.receiveLoop(); err != nil {
			log.WithError(err).WithField("probe", cfg.Name).Error("receive loop terminated")
		}
	}()

	return r, nil
}

// Stop closes the socket (unblocking ReadFromUDP) and waits for the
// receive loop to drain, then closes the sink.
func (r *Runtime) Stop() {
	close(r.stopCh)
	r.conn.Close()
	r.wg.Wait()
	if err := r.sink.Close(); err != nil {
		log.WithError(err).WithField("probe", r.cfg.Name).Warning("sink close failed")
	}
}

func (r *Runtime) stopped() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

// receiveLoop is the Datagram Receiver (§4.1): blocking recvfrom into a
// fixed scratch buffer, reused across iterations since each datagram
// is fully consumed (filtered, decoded, and handed to the sink) before
// the next read.
func (r *Runtime) receiveLoop() error {
	buffer := make([]byte, maxDatagramSize)

	for {
		if r.stopped() {
			return nil
		}

		length, remote, err := r.conn.ReadFromUDP(buffer)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if r.stopped() {
				return nil
			}
			return errors.Wrap(err, "netflow9: read from udp")
		}

		r.handleDatagram(remote, buffer[:length])
	}
}

// handleDatagram applies the Source Filter (§4.2), the Version
// Dispatcher (§4.3), and on acceptance decodes the datagram and writes
// every emitted record to the sink.
func (r *Runtime) handleDatagram(remote *net.UDPAddr, datagram []byte) {
	metrics.DatagramsTotal.WithLabelValues(r.cfg.Name).Inc()

	sourceIP := remote.IP.String()
	accepted := accept(sourceIP, r.cfg.FilterAddr)

	if r.cfg.Display {
		if accepted {
			log.Infof("%s %d [ACCEPTED]", sourceIP, remote.Port)
		} else {
			log.Infof("%s %d [REJECTED (expected %s)]", sourceIP, remote.Port, r.cfg.FilterAddr)
		}
	}

	if !accepted {
		metrics.RejectedByFilterTotal.WithLabelValues(r.cfg.Name).Inc()
		return
	}

	if r.dumper != nil {
		if err := r.dumper.Dump(r.cfg.Name, sourceIP, datagram); err != nil {
			log.WithError(err).WithField("probe", r.cfg.Name).Warning("diagnostic dump failed")
		}
	}

	version, ok := dispatchVersion(datagram)
	if !ok {
		log.WithField("probe", r.cfg.Name).Warning("datagram shorter than version field")
		return
	}

	switch version {
	case decoder.Version:
		r.decodeAndWrite(sourceIP, datagram)
	case 10:
		log.WithField("probe", r.cfg.Name).Debug("IPFIX (v10) datagram received; not decoded")
	default:
		log.WithField("probe", r.cfg.Name).WithField("version", version).Warning("unknown NetFlow version")
	}
}

func (r *Runtime) decodeAndWrite(sourceIP string, datagram []byte) {
	r.decoder.Decode(datagram, sourceIP, func(rec *flow.Record) {
		metrics.RecordsDecodedTotal.WithLabelValues(r.cfg.Name).Inc()
		if err := r.sink.Write(rec); err != nil {
			metrics.SinkWriteErrorsTotal.WithLabelValues(r.cfg.Name).Inc()
			log.WithError(err).WithField("probe", r.cfg.Name).Warning("sink write failed, dropping record")
		}
	}, func(msg string) {
		metrics.DiagnosticsTotal.WithLabelValues(r.cfg.Name).Inc()
		log.WithField("probe", r.cfg.Name).Debug(msg)
	})
}

// accept implements the Source Filter (§4.2): a pure function from
// (source IP, configured filter) to accept/reject.
func accept(sourceIP, filter string) bool {
	if filter == "" {
		return true
	}
	return sourceIP == filter
}

// dispatchVersion implements the Version Dispatcher's first step
// (§4.3): reading the big-endian version field, failing closed on a
// too-short buffer.
func dispatchVersion(datagram []byte) (uint16, bool) {
	if len(datagram) < 2 {
		return 0, false
	}
	return uint16(datagram[0])<<8 | uint16(datagram[1]), true
}
