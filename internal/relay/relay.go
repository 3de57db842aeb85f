// Package relay implements the inbound message pipeline for bound users:
// resolve partner, screen content, log, forward, and mirror to the
// moderator channel.
package relay

import (
	"context"
	"fmt"

	"anonrelay/internal/filter"
	"anonrelay/internal/gateway"
	"anonrelay/internal/models"
	"anonrelay/internal/observability"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"
)

// Outcome tags the result of handling one inbound message.
type Outcome int

const (
	// Forwarded means the message was delivered to the partner (and
	// mirrored to the moderator channel, best-effort).
	Forwarded Outcome = iota
	// NotInRoom means the sender holds no active room binding.
	NotInRoom
	// BlockedByFilter means the message matched a blocked word; it was
	// not forwarded.
	BlockedByFilter
	// Forbidden means the message matched a forbidden link/handle
	// pattern; a strike was recorded.
	Forbidden
	// PartnerGone means the forward to the partner failed and the
	// caller's own binding was released; the partner's side is
	// reconciled later by the lifecycle sweep.
	PartnerGone
)

// Result is returned by Handle.
type Result struct {
	Outcome Outcome
	Strikes int
}

// Inbound is one inbound non-command message from a bound user.
type Inbound struct {
	SenderID    uint
	Text        string
	MediaType   gateway.MediaType
	MediaHandle string
}

// Relay implements the §4.7 pipeline.
type Relay struct {
	rooms      *roommgr.RoomMgr
	roomRepo   repository.RoomRepository
	users      repository.UserRepository
	chatlog    repository.ChatLogRepository
	filter     *filter.Filter
	strikes    *filter.StrikeCounter
	sender     gateway.Sender
	maxStrikes int
}

// New creates a Relay wired to its collaborators. maxStrikes is the
// strike threshold at which a forbidden-content infraction escalates to
// the moderator channel instead of just warning the sender.
func New(
	rooms *roommgr.RoomMgr,
	roomRepo repository.RoomRepository,
	users repository.UserRepository,
	chatlog repository.ChatLogRepository,
	f *filter.Filter,
	strikes *filter.StrikeCounter,
	sender gateway.Sender,
	maxStrikes int,
) *Relay {
	return &Relay{
		rooms: rooms, roomRepo: roomRepo, users: users, chatlog: chatlog,
		filter: f, strikes: strikes, sender: sender, maxStrikes: maxStrikes,
	}
}

// Handle runs the full inbound pipeline for one message.
func (r *Relay) Handle(ctx context.Context, in Inbound) (Result, error) {
	room, err := r.rooms.GetActiveRoom(ctx, in.SenderID)
	if err != nil {
		return Result{}, err
	}
	if room == nil {
		_ = r.mirror(ctx, in, nil, nil, nil)
		_ = r.sender.SendText(ctx, in.SenderID, "you are not currently in a room")
		observability.MessagesRelayedTotal.WithLabelValues("not_in_room").Inc()
		return Result{Outcome: NotInRoom}, nil
	}
	partnerID := room.PartnerOf(in.SenderID)

	if in.Text != "" {
		verdict, word := r.filter.Check(in.Text)
		switch verdict {
		case filter.BlockedWord:
			_ = r.sender.SendText(ctx, in.SenderID, fmt.Sprintf("message blocked: contains %q", word))
			observability.MessagesRelayedTotal.WithLabelValues("blocked_by_filter").Inc()
			return Result{Outcome: BlockedByFilter}, nil
		case filter.Forbidden:
			n := r.strikes.Increment(in.SenderID)
			observability.StrikesTotal.WithLabelValues("forbidden_content").Inc()
			if n < r.maxStrikes {
				_ = r.sender.SendText(ctx, in.SenderID, "links and bot handles are not allowed here")
			} else {
				_ = r.sender.SendToModerator(ctx, fmt.Sprintf("#spam user %d exceeded strike threshold in room %s", in.SenderID, room.ID))
				_ = r.sender.SendText(ctx, in.SenderID, "repeated policy violations: this conversation is being reviewed")
			}
			observability.MessagesRelayedTotal.WithLabelValues("forbidden").Inc()
			return Result{Outcome: Forbidden, Strikes: n}, nil
		}
	}

	entry := &models.ChatLogEntry{
		RoomID:    room.ID,
		SenderID:  in.SenderID,
		Body:      in.Text,
		MediaType: string(in.MediaType),
	}
	if err := r.chatlog.Append(ctx, entry); err != nil {
		return Result{}, err
	}

	if err := r.forward(ctx, partnerID, in); err != nil {
		_ = r.rooms.ReleaseBinding(ctx, room.ID, in.SenderID)
		_ = r.sender.SendText(ctx, in.SenderID, "your partner is no longer reachable; you have been returned to matchmaking")
		observability.MessagesRelayedTotal.WithLabelValues("partner_gone").Inc()
		return Result{Outcome: PartnerGone}, nil
	}

	sender, _ := r.users.GetByID(ctx, in.SenderID)
	partner, _ := r.users.GetByID(ctx, partnerID)
	_ = r.mirror(ctx, in, sender, partner, room)

	observability.MessagesRelayedTotal.WithLabelValues("forwarded").Inc()
	return Result{Outcome: Forwarded}, nil
}

func (r *Relay) forward(ctx context.Context, partnerID uint, in Inbound) error {
	if in.MediaHandle != "" {
		return r.sender.SendMedia(ctx, partnerID, in.MediaType, in.MediaHandle, in.Text)
	}
	return r.sender.SendText(ctx, partnerID, in.Text)
}

// mirror sends a structured header plus the message body to the
// moderator channel, grounded on original_source/handlers/forward.py's
// header layout (room id, sender id/username/phone, partner id/username/
// phone, room creation time). Mirror failures are logged by the sender
// implementation and swallowed here — the relay path must never fail
// because the mirror did.
func (r *Relay) mirror(ctx context.Context, in Inbound, sender, partner *models.User, room *models.Room) error {
	header := fmt.Sprintf("Room: unknown\nSender: %d", in.SenderID)
	if room != nil {
		header = fmt.Sprintf("Room #%s\nSender: %d (%s)", room.ID, in.SenderID, identify(sender))
		if partner != nil {
			header += fmt.Sprintf("\nPartner: %d (%s)", partner.UserID, identify(partner))
		}
		header += fmt.Sprintf("\nRoom created: %s", room.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	body := in.Text
	if in.MediaHandle != "" {
		body = fmt.Sprintf("[%s message]", in.MediaType)
	}
	return r.sender.SendToModerator(ctx, fmt.Sprintf("%s\nMessage: %s", header, body))
}

func identify(u *models.User) string {
	if u == nil {
		return "username: unknown, phone: unknown"
	}
	username := u.Username
	if username == "" {
		username = "no username"
	}
	phone := u.PhoneNumber
	if phone == "" {
		phone = "unknown"
	}
	return fmt.Sprintf("username: %s, phone: %s", username, phone)
}
