package netflow9

import (
	"fmt"
	"net"

	"nf9sond/pkg/models/flow"
)

// IANA NetFlow v9 field type identifiers the materializer projects.
const (
	FieldByteCount     = 1
	FieldPacketCount   = 2
	FieldProtocol      = 4
	FieldL4SrcPort     = 7
	FieldIPv4SrcAddr   = 8
	FieldInputSNMP     = 10
	FieldL4DstPort     = 11
	FieldIPv4DstAddr   = 12
	FieldOutputSNMP    = 14
	FieldFlowEndSysUp  = 21
	FieldFlowStartSysUp = 22
)

// InterfaceResolver resolves an SNMP ifIndex on a given agent to an
// interface name. A nil InterfaceResolver disables enrichment entirely;
// every Record still decodes, just without the *Name fields populated.
type InterfaceResolver interface {
	Resolve(agent string, ifIndex uint32) string
}

// materialize projects one fixed-width data record into a flow.Record by
// walking tmpl in order. Unknown field types are skipped: their bytes are
// still consumed via the template's declared length so later fields in
// the same record stay aligned. diag receives one message per counter
// field whose width cannot be read or whose value had to be truncated to
// 32 bits, not per unknown field (unknown fields are expected and not
// diagnostic-worthy).
func (d *Decoder) materialize(tmpl Template, record []byte, agentAddr string, diag func(string)) *flow.Record {
	rec := &flow.Record{ProbeName: d.probeName}
	r := newReader(record)

	for _, f := range tmpl {
		width := int(f.Length)

		switch f.Type {
		case FieldByteCount:
			rec.ByteCount = readCounterField(r, width, diag, "octet count")
		case FieldPacketCount:
			rec.PacketCount = readCounterField(r, width, diag, "packet count")
		case FieldProtocol:
			b, err := r.bytes(width)
			if err == nil && len(b) > 0 {
				rec.Protocol = b[0]
			}
		case FieldL4SrcPort:
			rec.SourcePort = readUint16Field(r, width)
		case FieldL4DstPort:
			rec.DestinationPort = readUint16Field(r, width)
		case FieldIPv4SrcAddr:
			rec.SourceIP = readIPv4Field(r, width)
		case FieldIPv4DstAddr:
			rec.DestinationIP = readIPv4Field(r, width)
		case FieldInputSNMP:
			v, err := r.uintN(width)
			if err == nil {
				rec.InterfaceIn = uint32(v)
			} else {
				_ = r.skip(width)
			}
		case FieldOutputSNMP:
			v, err := r.uintN(width)
			if err == nil {
				rec.InterfaceOut = uint32(v)
			} else {
				_ = r.skip(width)
			}
		case FieldFlowStartSysUp, FieldFlowEndSysUp:
			// Accepted but unprojected: deriving a timestamp from
			// sys_uptime_ms + unix_secs is an open question (see
			// DESIGN.md); FlowStart/FlowEnd stay empty.
			_ = r.skip(width)
		default:
			_ = r.skip(width)
		}
	}

	if d.resolver != nil {
		if rec.InterfaceIn != 0 {
			rec.InterfaceInName = d.resolver.Resolve(agentAddr, rec.InterfaceIn)
		}
		if rec.InterfaceOut != 0 {
			rec.InterfaceOutName = d.resolver.Resolve(agentAddr, rec.InterfaceOut)
		}
	}

	return rec
}

// readCounterField decodes a big-endian counter of declared width and
// projects it into the target attribute's 32-bit range, logging once if
// bits had to be dropped. offset always advances by width, the template's
// declared on-wire size, regardless of the natural size of the semantic
// type.
func readCounterField(r *reader, width int, diag func(string), name string) uint32 {
	v, err := r.uintN(width)
	if err != nil {
		diag(fmt.Sprintf("%s field has unusable width %d", name, width))
		_ = r.skip(width)
		return 0
	}
	if v > uint64(^uint32(0)) {
		diag(fmt.Sprintf("%s field width %d exceeds 32 bits, truncating", name, width))
	}
	return uint32(v)
}

// readUint16Field decodes a counter-style 16-bit field whose declared
// width need not be exactly 2; the low 16 bits are projected and wider
// values are truncated (a template this wide for a port is already
// nonstandard, but the decoder must not panic on it).
func readUint16Field(r *reader, width int) uint16 {
	if width == 2 {
		v, err := r.u16()
		if err != nil {
			return 0
		}
		return v
	}

	v, err := r.uintN(width)
	if err != nil {
		_ = r.skip(width)
		return 0
	}
	return uint16(v)
}

// readIPv4Field decodes a 4-byte IPv4 address field into dotted-quad
// form. Non-4-byte widths are consumed but left unprojected, since the
// field can no longer be interpreted as a raw IPv4 octet string.
func readIPv4Field(r *reader, width int) string {
	if width != 4 {
		_ = r.skip(width)
		return ""
	}

	b, err := r.bytes(4)
	if err != nil {
		return ""
	}
	return net.IPv4(b[0], b[1], b[2], b[3]).String()
}
