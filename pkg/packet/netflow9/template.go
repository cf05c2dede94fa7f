package netflow9

// TemplateIDMin is the first flowset/template id not reserved for
// template or options-template sets (RFC 3954 §5.1).
const TemplateIDMin = 256

// FieldSpec describes a single field within a template: its IANA field
// type and its on-wire byte width for this exporter's encoding. Width is
// exporter-chosen, not a fixed function of type.
type FieldSpec struct {
	Type   uint16
	Length uint16
}

// Template is an ordered, non-empty list of FieldSpecs describing the
// layout of data records carried under one template id.
type Template []FieldSpec

// Width returns the total byte width of one data record under this
// template — the sum of its fields' declared lengths.
func (t Template) Width() int {
	w := 0
	for _, f := range t {
		w += int(f.Length)
	}
	return w
}

// Table is a probe-private mapping from template id to Template. It is
// owned exclusively by the decoder of a single probe; nothing here is
// safe for concurrent use because nothing shares it — NetFlow v9
// templates are scoped to the exporter session decoded by one probe.
type Table struct {
	templates map[uint16]Template
}

// NewTable creates an empty template table.
func NewTable() *Table {
	return &Table{
		templates: make(map[uint16]Template),
	}
}

// Set installs or replaces the template for id. Installation is
// insert-or-replace, never a merge.
func (t *Table) Set(id uint16, tmpl Template) {
	t.templates[id] = tmpl
}

// Get returns the template for id, or nil if none has been installed.
func (t *Table) Get(id uint16) Template {
	return t.templates[id]
}

// Len reports the number of distinct templates currently installed.
func (t *Table) Len() int {
	return len(t.templates)
}
