package domain

import "time"

type EventKind string

const (
	EventReceiptUploaded EventKind = "receipt.uploaded"
	EventReceiptUpdated  EventKind = "receipt.updated"
	EventReceiptDeleted  EventKind = "receipt.deleted"
)

// ReceiptEvent notifies interested local consumers that a mutation against
// the backend succeeded. Events are best-effort and never block a mutation.
type ReceiptEvent struct {
	ID        string    `json:"id"`
	ReceiptID string    `json:"receipt_id"`
	Kind      EventKind `json:"kind"`
	At        time.Time `json:"at"`
}
