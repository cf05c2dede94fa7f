package flow

import "fmt"

// Record is a single decoded NetFlow v9 data record, projected into the
// attributes the field materializer knows how to interpret. Fields left
// unprojected by the exporter's template keep their zero value.
type Record struct {
	SourceIP        string
	DestinationIP   string
	SourcePort      uint16
	DestinationPort uint16
	Protocol        uint8
	PacketCount     uint32
	ByteCount       uint32
	FlowStart       string
	FlowEnd         string
	ProbeName       string

	// InterfaceIn/InterfaceOut are the raw SNMP ifIndex values carried in
	// field types 10/14. The Name counterparts are filled in by the
	// optional interface-name resolver and stay empty without one.
	InterfaceIn      uint32
	InterfaceOut     uint32
	InterfaceInName  string
	InterfaceOutName string
}

// Dump renders a one-line human-readable representation of the record.
func (r *Record) Dump() string {
	return fmt.Sprintf(
		"probe=%s src=%s:%d dst=%s:%d proto=%d packets=%d bytes=%d ifIn=%d(%s) ifOut=%d(%s)",
		r.ProbeName, r.SourceIP, r.SourcePort, r.DestinationIP, r.DestinationPort,
		r.Protocol, r.PacketCount, r.ByteCount,
		r.InterfaceIn, r.InterfaceInName, r.InterfaceOut, r.InterfaceOutName,
	)
}
