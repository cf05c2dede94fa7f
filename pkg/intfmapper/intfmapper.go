// Package intfmapper implements the optional interface-name enrichment
// stage: one SNMP-polling goroutine per monitored exporter, resolving
// ifIndex values carried in NetFlow v9 field types 10/14 to interface
// names. It is adapted from the teacher's pkg/intfmapper and
// pkg/ifnamecollector, merged into a single resolver keyed by agent
// address so it can implement netflow9.InterfaceResolver directly.
package intfmapper

import (
	"sync"
	"time"

	bnet "github.com/bio-routing/bio-rd/net"
)

// Resolver resolves (agent address, ifIndex) pairs to interface names.
// A zero Resolver is not usable; construct with NewResolver. A nil
// *Resolver is accepted everywhere a netflow9.InterfaceResolver is
// used and always resolves to empty (enrichment disabled).
type Resolver struct {
	mu      sync.RWMutex
	devices map[string]*device
}

// NewResolver creates a Resolver with no devices being watched.
func NewResolver() *Resolver {
	return &Resolver{
		devices: make(map[string]*device),
	}
}

// Watch starts polling addr's IF-MIB::ifName table on its own
// goroutine at the given interval (defaulting to 2 minutes), doing
// nothing if addr is already being watched. agentKey is the string
// used to look the device back up from Resolve — normally addr's
// dotted-quad form, matching the source address the probe runtime
// observes on received datagrams.
func (r *Resolver) Watch(agentKey string, addr bnet.IP, cfg SNMPConfig, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[agentKey]; exists {
		return
	}
	r.devices[agentKey] = newDevice(addr, cfg, interval)
}

// Resolve implements netflow9.InterfaceResolver. A nil Resolver, an
// unwatched agent, or an unseen ifIndex all resolve to "" — never an
// error, per §4.8's rule that a resolution miss is not diagnostic.
func (r *Resolver) Resolve(agent string, ifIndex uint32) string {
	if r == nil {
		return ""
	}

	r.mu.RLock()
	d, exists := r.devices[agent]
	r.mu.RUnlock()

	if !exists {
		return ""
	}
	return d.resolve(ifIndex)
}

// Stop halts every device's collector goroutine and waits for them to
// exit.
func (r *Resolver) Stop() {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices {
		d.stop()
	}
}
