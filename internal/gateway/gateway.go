// Package gateway defines the narrow contract the core needs from the real
// chat-bot platform SDK: a way to send messages out, and a normalized
// inbound event shape to dispatch commands and relay traffic from. The SDK
// binding itself (translating platform webhooks into Updates) is out of
// scope; this package only defines the seam and the command router.
package gateway

import (
	"context"
	"encoding/json"
)

// MediaType identifies the kind of payload an outbound/inbound message
// carries. Opaque media handles are passed through without re-upload.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
	MediaVoice MediaType = "voice"
	MediaOther MediaType = "other"
)

// Sender is the outbound seam Relay and Matchmaker notify through. A real
// platform binding implements this against its SDK's send calls.
type Sender interface {
	// SendText delivers a text message to userID.
	SendText(ctx context.Context, userID uint, text string) error
	// SendMedia delivers a message whose content is an opaque platform
	// media handle (no re-upload), optionally captioned.
	SendMedia(ctx context.Context, userID uint, mediaType MediaType, handle, caption string) error
	// SendToModerator mirrors a message to the configured moderator
	// channel. Failures here are logged and swallowed by callers — a
	// mirror failure must never fail the primary relay path.
	SendToModerator(ctx context.Context, text string) error
}

// Update is the normalized inbound event the Dispatcher routes. A real SDK
// binding constructs this from a platform webhook payload.
type Update struct {
	UserID      uint
	Command     string   // empty for plain messages
	Args        []string // command arguments, if any
	Text        string   // message text or caption
	MediaType   MediaType
	MediaHandle string // opaque platform handle, empty for text
	IsReply     bool
	ReplyToUser uint // resolved target when IsReply is set (e.g. admin reply-to-forward)
}

// ResultKind tags the outcome of dispatching an Update.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultUnauthorized
	ResultError
)

// Result is what a Dispatcher hands back to the SDK binding to render as
// a gateway reply, and what the ops HTTP surface's webhook endpoint
// serializes back to the caller.
type Result struct {
	Kind    ResultKind `json:"kind"`
	Message string     `json:"message,omitempty"`
	Err     error      `json:"-"`
}

// MarshalJSON renders Err as a plain string so the webhook response stays
// a flat JSON object regardless of the concrete error type.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias struct {
		Kind    ResultKind `json:"kind"`
		Message string     `json:"message,omitempty"`
		Error   string     `json:"error,omitempty"`
	}
	a := alias{Kind: r.Kind, Message: r.Message}
	if r.Err != nil {
		a.Error = r.Err.Error()
	}
	return json.Marshal(a)
}
