package netflow9

// headerSize is the fixed length of the NetFlow v9 packet header.
const headerSize = 20

// Version is the NetFlow v9 protocol version number.
const Version = 9

// Header is the fixed 20-byte NetFlow v9 packet header. All fields are
// transmitted big-endian.
type Header struct {
	Version         uint16
	Count           uint16
	SysUptimeMillis uint32
	UnixSecs        uint32
	SequenceNumber  uint32
	SourceID        uint32
}

func parseHeader(r *reader) (Header, error) {
	var h Header
	var err error

	if h.Version, err = r.u16(); err != nil {
		return Header{}, err
	}
	if h.Count, err = r.u16(); err != nil {
		return Header{}, err
	}
	if h.SysUptimeMillis, err = r.u32(); err != nil {
		return Header{}, err
	}
	if h.UnixSecs, err = r.u32(); err != nil {
		return Header{}, err
	}
	if h.SequenceNumber, err = r.u32(); err != nil {
		return Header{}, err
	}
	if h.SourceID, err = r.u32(); err != nil {
		return Header{}, err
	}

	return h, nil
}
