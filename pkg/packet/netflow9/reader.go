package netflow9

import "github.com/pkg/errors"

// errShortBuffer is returned by reader methods when the requested width
// would read past the end of the buffer. It replaces the raw-pointer casts
// the original decoder relied on: every read is bounds-checked against the
// slice length before any byte is touched.
var errShortBuffer = errors.New("netflow9: short buffer")

// reader is a cursor over an untrusted byte slice. All reads are
// big-endian, as mandated by the wire format, and advance the cursor only
// on success.
type reader struct {
	buf []byte
	off int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

// remaining returns the number of unread bytes.
func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) u8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, errShortBuffer
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errShortBuffer
	}
	v := uint16(r.buf[r.off])<<8 | uint16(r.buf[r.off+1])
	r.off += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errShortBuffer
	}
	v := uint32(r.buf[r.off])<<24 | uint32(r.buf[r.off+1])<<16 |
		uint32(r.buf[r.off+2])<<8 | uint32(r.buf[r.off+3])
	r.off += 4
	return v, nil
}

// uintN reads an n-byte (1..8) big-endian unsigned integer, as used for
// counter fields whose on-wire width is exporter-chosen rather than fixed.
func (r *reader) uintN(n int) (uint64, error) {
	if n < 1 || n > 8 {
		return 0, errors.Errorf("netflow9: unsupported integer width %d", n)
	}
	if r.remaining() < n {
		return 0, errShortBuffer
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(r.buf[r.off+i])
	}
	r.off += n
	return v, nil
}

// bytes returns a sub-slice of the next n bytes without copying, advancing
// the cursor. The caller must not retain it past the lifetime of the
// datagram buffer.
func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errShortBuffer
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

// skip advances the cursor by n bytes without returning them, failing if
// that would run past the end of the buffer.
func (r *reader) skip(n int) error {
	if n < 0 || r.remaining() < n {
		return errShortBuffer
	}
	r.off += n
	return nil
}
