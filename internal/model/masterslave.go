package model

import "fmt"

// Master/slave wrappers give compile-time direction safety in merge code:
// a slave message cannot be passed where a master one is expected.

// MasterInternalID is an internal id known to come from a master dataset.
type MasterInternalID MessageInternalID

// Generalize drops the direction marker.
func (id MasterInternalID) Generalize() MessageInternalID { return MessageInternalID(id) }

// SlaveInternalID is an internal id known to come from a slave dataset.
type SlaveInternalID MessageInternalID

// Generalize drops the direction marker.
func (id SlaveInternalID) Generalize() MessageInternalID { return MessageInternalID(id) }

// MasterMessage marks a message as belonging to the master (baseline) side.
type MasterMessage struct {
	Message
}

// TypedID returns the direction-marked internal id.
func (m MasterMessage) TypedID() MasterInternalID { return MasterInternalID(m.InternalID) }

// EqualByID is identity equality: internal id and source id only.
func (m MasterMessage) EqualByID(o MasterMessage) bool {
	return m.InternalID == o.InternalID && SourceIDPtrEq(m.SourceID, o.SourceID)
}

// SlaveMessage marks a message as belonging to the slave (incoming) side.
type SlaveMessage struct {
	Message
}

// TypedID returns the direction-marked internal id.
func (m SlaveMessage) TypedID() SlaveInternalID { return SlaveInternalID(m.InternalID) }

// EqualByID is identity equality: internal id and source id only.
func (m SlaveMessage) EqualByID(o SlaveMessage) bool {
	return m.InternalID == o.InternalID && SourceIDPtrEq(m.SourceID, o.SourceID)
}

// Difference is one human-readable discrepancy found by a merge comparison.
// Values is present only when an old/new pair makes sense.
type Difference struct {
	Message string            `json:"message"`
	Values  *DifferenceValues `json:"values,omitempty"`
}

// DifferenceValues carries the before/after rendering of a changed field.
type DifferenceValues struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (d Difference) String() string {
	if d.Values == nil {
		return d.Message
	}
	return fmt.Sprintf("%s\nWas:    %s\nBecame: %s", d.Message, d.Values.Old, d.Values.New)
}
