// internal/gmail/types.go
package gmail

// LabelID is a provider-assigned, opaque label identifier.
type LabelID string

// MessageID is a provider-assigned identifier for an imported message.
type MessageID string

// Label pairs a label's opaque ID with its hierarchical name.
// Names use "/" as the hierarchy separator.
type Label struct {
	ID   LabelID
	Name string
}
