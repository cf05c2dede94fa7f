package netflow9

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateWidth(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     Template
		expected int
	}{
		{
			name:     "empty",
			tmpl:     Template{},
			expected: 0,
		},
		{
			name: "single field",
			tmpl: Template{
				{Type: FieldIPv4SrcAddr, Length: 4},
			},
			expected: 4,
		},
		{
			name: "scenario #1 template",
			tmpl: Template{
				{Type: FieldIPv4SrcAddr, Length: 4},
				{Type: FieldIPv4DstAddr, Length: 4},
				{Type: FieldL4SrcPort, Length: 2},
				{Type: FieldL4DstPort, Length: 2},
				{Type: FieldProtocol, Length: 1},
				{Type: FieldByteCount, Length: 4},
				{Type: FieldPacketCount, Length: 4},
			},
			expected: 21,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.tmpl.Width())
		})
	}
}

func TestTableSetReplace(t *testing.T) {
	tbl := NewTable()
	assert.Nil(t, tbl.Get(300))

	tbl.Set(300, Template{{Type: FieldIPv4SrcAddr, Length: 4}, {Type: FieldByteCount, Length: 4}})
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, 8, tbl.Get(300).Width())

	// Reinstalling the same id replaces, never merges.
	tbl.Set(300, Template{
		{Type: FieldIPv4SrcAddr, Length: 4},
		{Type: FieldIPv4DstAddr, Length: 4},
		{Type: FieldByteCount, Length: 4},
	})
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, 12, tbl.Get(300).Width())
}
