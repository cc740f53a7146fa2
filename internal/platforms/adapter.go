// Package platforms holds the channel adapters. Each adapter translates one
// provider's webhook payload into the common inbound message shape and sends
// replies back through the provider API.
package platforms

import "context"

// Platform names form a closed set; the webhook routes are registered from it.
const (
	PlatformWhatsApp  = "whatsapp"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// Message is one parsed inbound message. DeliveryID feeds webhook dedupe;
// payloads without a usable message (status updates, read receipts) parse to a
// nil Message with no error.
type Message struct {
	UserID     string
	Text       string
	DeliveryID string
	Timestamp  string
	Type       string
}

// Adapter is the per-channel boundary.
type Adapter interface {
	// Name returns the platform identifier.
	Name() string
	// ParseIncoming extracts the message from a raw webhook body.
	ParseIncoming(body []byte) (*Message, error)
	// Send delivers a reply to the user.
	Send(ctx context.Context, userID, text string) error
	// VerifySignature checks the webhook signature header against the raw
	// body. Adapters without a configured secret accept everything.
	VerifySignature(body []byte, signatureHeader string) bool
}
