// Package dispatch wires the gateway command table to Matchmaker, Relay,
// and the admin command table. It is kept separate from internal/gateway
// because Relay depends on gateway.Sender/MediaType — a Dispatcher that
// imports Relay cannot itself live inside package gateway without an
// import cycle.
package dispatch

import (
	"context"
	"log"

	"anonrelay/internal/gateway"
	"anonrelay/internal/presence"
	"anonrelay/internal/relay"
	"anonrelay/internal/repository"
)

// adminCommands is the set of command names routed to the admin table.
// Authorization is still enforced inside AdminCommands.Dispatch — a
// non-admin caller using one of these names gets the fixed Unauthorized
// result, not a "no such command" error.
var adminCommands = map[string]bool{
	"block": true, "unblock": true,
	"setpremium": true, "resetpremium": true,
	"message": true, "ad": true,
	"adminroom": true, "linkusers": true,
	"blockword": true, "unblockword": true,
	"stats": true, "export": true,
	"userinfo": true, "roominfo": true, "viewhistory": true,
}

// Dispatcher routes one normalized inbound Update to its handler.
type Dispatcher struct {
	admin    *gateway.AdminCommands
	user     *gateway.UserCommands
	relay    *relay.Relay
	presence *presence.Tracker
	users    repository.UserRepository
}

// New creates a Dispatcher wired to its collaborators. presence and users
// back the coarse online marker every inbound update refreshes (spec §3
// PoolEntry invariant, SPEC_FULL.md §5): the live tracker is touched on
// every update, the persisted User.IsOnline column only on an
// offline-to-online transition so the relay's hot path does not take a
// write on every message.
func New(admin *gateway.AdminCommands, user *gateway.UserCommands, r *relay.Relay, pr *presence.Tracker, users repository.UserRepository) *Dispatcher {
	return &Dispatcher{admin: admin, user: user, relay: r, presence: pr, users: users}
}

// markOnline refreshes the caller's presence marker before routing.
func (d *Dispatcher) markOnline(ctx context.Context, userID uint) {
	if userID == 0 {
		return
	}
	wasOnline := d.presence.IsOnline(ctx, userID)
	d.presence.MarkOnline(ctx, userID)
	if !wasOnline {
		if err := d.users.SetOnline(ctx, userID, true); err != nil {
			log.Printf("dispatch: mark user %d online failed: %v", userID, err)
		}
	}
}

// Dispatch routes upd to Matchmaker, Relay, or the admin command table,
// returning a tagged Result a real SDK binding would render as a
// gateway reply.
func (d *Dispatcher) Dispatch(ctx context.Context, upd gateway.Update) gateway.Result {
	d.markOnline(ctx, upd.UserID)

	if upd.Command == "" {
		return d.relayResult(ctx, upd)
	}

	if adminCommands[upd.Command] {
		return d.admin.Dispatch(ctx, upd.UserID, upd.Command, upd.Args)
	}

	switch upd.Command {
	case "start":
		return d.user.Start(ctx, upd.UserID, upd.Args)
	case "find":
		return d.user.Find(ctx, upd.UserID)
	case "end":
		return d.user.End(ctx, upd.UserID)
	case "next":
		return d.user.Next(ctx, upd.UserID)
	case "report":
		reason := ""
		if len(upd.Args) > 0 {
			reason = upd.Text
		}
		return d.user.Report(ctx, upd.UserID, reason)
	case "upgrade":
		return d.user.Upgrade(ctx, upd.UserID)
	case "filters":
		return d.user.Filters(ctx, upd.UserID, upd.Args)
	case "referral", "invite":
		return d.user.Referral(ctx, upd.UserID)
	default:
		return gateway.Result{Kind: gateway.ResultError, Message: "unknown command: " + upd.Command}
	}
}

func (d *Dispatcher) relayResult(ctx context.Context, upd gateway.Update) gateway.Result {
	result, err := d.relay.Handle(ctx, relay.Inbound{
		SenderID:    upd.UserID,
		Text:        upd.Text,
		MediaType:   upd.MediaType,
		MediaHandle: upd.MediaHandle,
	})
	if err != nil {
		return gateway.Result{Kind: gateway.ResultError, Err: err}
	}

	switch result.Outcome {
	case relay.Forwarded:
		return gateway.Result{Kind: gateway.ResultOK, Message: "message delivered"}
	case relay.NotInRoom:
		return gateway.Result{Kind: gateway.ResultOK, Message: "you are not currently in a room"}
	case relay.BlockedByFilter:
		return gateway.Result{Kind: gateway.ResultOK, Message: "message blocked"}
	case relay.Forbidden:
		return gateway.Result{Kind: gateway.ResultOK, Message: "message rejected: policy violation"}
	case relay.PartnerGone:
		return gateway.Result{Kind: gateway.ResultOK, Message: "your partner is no longer reachable"}
	default:
		return gateway.Result{Kind: gateway.ResultOK}
	}
}
