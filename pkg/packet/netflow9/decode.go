// Package netflow9 implements the NetFlow v9 template/data FlowSet
// decoder: the stateful binary protocol engine that interprets a
// datagram's FlowSets, maintains the per-exporter template dictionary,
// and projects data records into flow.Record values.
package netflow9

import (
	"fmt"

	"nf9sond/pkg/models/flow"
)

// Decoder is the per-probe NetFlow v9 decoder. It owns a private Table
// and is never shared across probes — templates are scoped to one
// exporter session, so sharing a Decoder (or its Table) across probes
// would silently mix unrelated template dictionaries.
type Decoder struct {
	probeName string
	templates *Table
	resolver  InterfaceResolver
}

// NewDecoder creates a Decoder with an empty template table. probeName is
// stamped onto every flow.Record this decoder emits.
func NewDecoder(probeName string) *Decoder {
	return &Decoder{
		probeName: probeName,
		templates: NewTable(),
	}
}

// SetInterfaceResolver attaches an optional SNMP ifIndex-to-name
// resolver. A nil resolver (the default) disables enrichment.
func (d *Decoder) SetInterfaceResolver(r InterfaceResolver) {
	d.resolver = r
}

// Templates exposes the decoder's template table, mainly for tests and
// diagnostics.
func (d *Decoder) Templates() *Table {
	return d.templates
}

// Decode walks one datagram's header and FlowSets, installing any
// template FlowSets into the decoder's table and emitting a flow.Record
// (via emit) for every data record decoded. agentAddr identifies the
// exporter that sent the datagram, used only for interface-name
// resolution scoping. diag receives one message per non-fatal structural
// or semantic issue. Decode never returns an error: every failure mode it
// can hit is non-fatal by design — at worst it truncates the current
// datagram and lets the caller move on to the next one.
//
// Decode never reads past len(datagram): every access goes through a
// bounds-checked reader, never a raw pointer cast.
func (d *Decoder) Decode(datagram []byte, agentAddr string, emit func(*flow.Record), diag func(string)) {
	r := newReader(datagram)

	if r.remaining() < headerSize {
		diag("Datagram shorter than the NetFlow v9 header.")
		return
	}

	if _, err := parseHeader(r); err != nil {
		diag("Unable to parse NetFlow v9 header.")
		return
	}

	// header.Count is advisory (see spec §4.4.1) and deliberately never
	// checked against the number of records actually decoded.

	for r.remaining() > 0 {
		if r.remaining() < 4 {
			diag("Incomplete FlowSet header.")
			return
		}

		setID, _ := r.u16()
		length, _ := r.u16()

		if length < 4 {
			diag(fmt.Sprintf("FlowSet length %d is below the minimum of 4.", length))
			return
		}

		bodyLen := int(length) - 4
		if bodyLen > r.remaining() {
			diag("FlowSet length exceeds remaining packet length.")
			return
		}

		body, _ := r.bytes(bodyLen)

		switch {
		case setID == 0:
			d.decodeTemplateFlowSet(body, diag)
		case setID >= TemplateIDMin:
			d.decodeDataFlowSet(setID, body, agentAddr, emit, diag)
		default:
			// 1: options template FlowSet, not decoded. 2..255:
			// reserved. Both are skipped with no diagnostic — this
			// is an expected, non-erroneous shape of the stream.
		}
	}
}

// decodeTemplateFlowSet parses the template records packed into one
// template FlowSet's body and installs each into the decoder's table.
// Trailing bytes too short to hold another record header are FlowSet
// padding and are ignored.
func (d *Decoder) decodeTemplateFlowSet(body []byte, diag func(string)) {
	r := newReader(body)

	for r.remaining() >= 4 {
		templateID, _ := r.u16()
		fieldCount, _ := r.u16()

		fields := make(Template, 0, fieldCount)
		truncated := false

		for i := 0; i < int(fieldCount); i++ {
			typ, err1 := r.u16()
			length, err2 := r.u16()
			if err1 != nil || err2 != nil {
				diag(fmt.Sprintf("Truncated template record %d.", templateID))
				truncated = true
				break
			}
			fields = append(fields, FieldSpec{Type: typ, Length: length})
		}

		if truncated {
			return
		}

		if templateID < TemplateIDMin {
			diag(fmt.Sprintf("Template id %d below minimum %d, skipping.", templateID, TemplateIDMin))
			continue
		}
		if fieldCount < 1 {
			diag(fmt.Sprintf("Template id %d declares no fields, skipping.", templateID))
			continue
		}
		if Template(fields).Width() == 0 {
			diag(fmt.Sprintf("Template id %d has zero record width, skipping.", templateID))
			continue
		}

		d.templates.Set(templateID, fields)
	}
}

// decodeDataFlowSet decodes fixed-width data records under the template
// registered for setID, one record at a time, stopping when fewer than
// one full record remains (the NetFlow v9 FlowSet padding rule).
func (d *Decoder) decodeDataFlowSet(setID uint16, body []byte, agentAddr string, emit func(*flow.Record), diag func(string)) {
	tmpl := d.templates.Get(setID)
	if tmpl == nil {
		diag(fmt.Sprintf("Unknown template ID: %d", setID))
		return
	}

	width := tmpl.Width()
	if width <= 0 {
		diag(fmt.Sprintf("Template ID %d has zero width, cannot decode records.", setID))
		return
	}

	r := newReader(body)
	for r.remaining() >= width {
		recordBytes, _ := r.bytes(width)
		emit(d.materialize(tmpl, recordBytes, agentAddr, diag))
	}
}
