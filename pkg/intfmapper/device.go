package intfmapper

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/pkg/errors"

	bnet "github.com/bio-routing/bio-rd/net"
	log "github.com/sirupsen/logrus"
)

const (
	ifNameOID        = "1.3.6.1.2.1.31.1.1.1.1"
	snmpPort         = 161
	timeout          = time.Second * 30
	defaultInterval  = time.Minute * 2
)

// SNMPConfig is the per-device SNMP polling configuration read from a
// probe's [Sonda<i>] section. Version 3 fields are accepted for parity
// with gosnmp's capabilities even though spec.md's config surface only
// names community/version; absent fields simply stay zero.
type SNMPConfig struct {
	Community         string
	Version           int // 1, 2 (v2c, default), or 3
	User              string
	AuthPassphrase    string
	PrivacyPassphrase string
}

// device polls one NetFlow v9 exporter's IF-MIB::ifName table on a
// timer and serves ifIndex→name lookups against the most recently
// polled snapshot. Lookups never block on SNMP I/O.
type device struct {
	addr             bnet.IP
	snmpCfg          SNMPConfig
	interval         time.Duration
	interfacesByID   map[uint32]*netIf
	interfacesMu     sync.RWMutex
	stopCh           chan struct{}
	wg               sync.WaitGroup
	ticker           *time.Ticker
}

func newDevice(addr bnet.IP, snmpCfg SNMPConfig, interval time.Duration) *device {
	if interval <= 0 {
		interval = defaultInterval
	}

	d := &device{
		addr:           addr,
		snmpCfg:        snmpCfg,
		interval:       interval,
		interfacesByID: make(map[uint32]*netIf),
		stopCh:         make(chan struct{}),
		ticker:         time.NewTicker(interval),
	}

	d.startCollector()
	return d
}

func (d *device) update(interfaces []*netIf) {
	interfacesByID := make(map[uint32]*netIf, len(interfaces))
	for _, ifa := range interfaces {
		interfacesByID[ifa.id] = ifa
	}

	d.interfacesMu.Lock()
	defer d.interfacesMu.Unlock()

	d.interfacesByID = interfacesByID
}

type netIf struct {
	id   uint32
	name string
}

func (d *device) startCollector() {
	d.wg.Add(1)
	go d.collector()
}

func (d *device) collector() {
	defer d.wg.Done()

	for {
		if err := d.collect(); err != nil {
			log.WithError(err).WithField("device", d.addr.String()).Warning("interface name poll failed")
		}

		select {
		case <-d.stopCh:
			d.ticker.Stop()
			return
		case <-d.ticker.C:
		}
	}
}

// stop signals the collector goroutine to exit and waits for it.
// Not idempotent: a second call panics on the already-closed channel.
func (d *device) stop() {
	close(d.stopCh)
	d.wg.Wait()
}

func (d *device) collect() error {
	s := &gosnmp.GoSNMP{
		Target:                  d.addr.String(),
		Port:                    snmpPort,
		Community:               d.snmpCfg.Community,
		Version:                 gosnmp.Version2c,
		Timeout:                 timeout,
		Retries:                 0,
		ExponentialTimeout:      false,
		UseUnconnectedUDPSocket: true,
	}

	if d.snmpCfg.Version == 1 {
		s.Version = gosnmp.Version1
	}

	if d.snmpCfg.Version == 3 {
		s.Community = ""
		s.Version = gosnmp.Version3
		s.SecurityModel = gosnmp.UserSecurityModel
		s.MsgFlags = gosnmp.AuthPriv
		s.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 d.snmpCfg.User,
			AuthenticationProtocol:   gosnmp.SHA,
			AuthenticationPassphrase: d.snmpCfg.AuthPassphrase,
			PrivacyProtocol:          gosnmp.AES,
			PrivacyPassphrase:        d.snmpCfg.PrivacyPassphrase,
		}
	}

	if err := s.Connect(); err != nil {
		return errors.Wrap(err, "unable to connect")
	}
	defer s.Conn.Close()

	// GETBULK does not exist in SNMPv1, so v1 devices are walked with
	// GETNEXT.
	walk := s.BulkWalk
	if s.Version == gosnmp.Version1 {
		walk = s.Walk
	}

	interfaces := make([]*netIf, 0)
	err := walk(ifNameOID, func(pdu gosnmp.SnmpPDU) error {
		oid := strings.Split(pdu.Name, ".")
		id, err := strconv.Atoi(oid[len(oid)-1])
		if err != nil {
			return errors.Wrap(err, "unable to convert interface id")
		}

		if pdu.Type != gosnmp.OctetString {
			return errors.Errorf("unexpected PDU type: %d", pdu.Type)
		}

		name, _ := pdu.Value.([]byte)
		interfaces = append(interfaces, &netIf{
			id:   uint32(id),
			name: string(name),
		})

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "bulk walk failed for "+d.addr.String())
	}

	d.update(interfaces)
	return nil
}

func (d *device) resolve(ifID uint32) string {
	d.interfacesMu.RLock()
	defer d.interfacesMu.RUnlock()

	ifa, exists := d.interfacesByID[ifID]
	if !exists {
		return ""
	}
	return ifa.name
}
