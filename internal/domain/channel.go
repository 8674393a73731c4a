package domain

import "context"

// SendOutcome is the result of a text-send attempt, matched explicitly by
// the dispatch worker instead of being folded into an error.
type SendOutcome int

const (
	// SendFailed is a soft failure (timeout, missing element). The reason
	// travels in the accompanying error; the contact stays retryable.
	SendFailed SendOutcome = iota

	// SendDelivered means the message was handed to the channel.
	SendDelivered

	// SendInvalidRecipient means the channel reported the phone number as
	// not reachable at all. Terminal for the contact.
	SendInvalidRecipient
)

func (o SendOutcome) String() string {
	switch o {
	case SendDelivered:
		return "delivered"
	case SendInvalidRecipient:
		return "invalid-recipient"
	}
	return "failed"
}

// AttachmentKind selects which attach affordance (and selector set) the
// channel drives.
type AttachmentKind string

const (
	KindDocument AttachmentKind = "document"
	KindMedia    AttachmentKind = "media"
)

// Channel is the external delivery mechanism the dispatch engine sends
// through. Implementations own their session lifecycle and keep every
// internal wait bounded; the engine never retries inside a single call.
type Channel interface {
	// SendText delivers an already-rendered, transport-encoded message.
	// A SendFailed outcome carries its reason in the returned error.
	SendText(ctx context.Context, phone, encoded string) (SendOutcome, error)

	// AttachFiles sends the given files to the recipient. Returns true if
	// the files were handed to the channel.
	AttachFiles(ctx context.Context, phone string, paths []string, kind AttachmentKind) (bool, error)
}

// ContactStore is the persisted, write-serialized per-contact status table
// shared by both workers.
type ContactStore interface {
	// Snapshot returns all contacts in table order. It is not synchronized
	// with concurrent UpdateStatus calls and may observe stale rows; the
	// coordinator only calls it between passes.
	Snapshot() ([]Contact, error)

	// UpdateStatus persists a new status for the contact with the given
	// normalized phone. An unknown phone is a logged no-op.
	UpdateStatus(phone string, st Status) error
}
