package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"anonrelay/internal/config"
	"anonrelay/internal/matchmaker"
	"anonrelay/internal/models"
	"anonrelay/internal/observability"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"
	"anonrelay/internal/validation"
)

// UserCommands implements the non-admin command table (§6): start, find,
// end, next, report, upgrade, filters, referral/invite.
type UserCommands struct {
	cfg     *config.Config
	sender  Sender
	users   repository.UserRepository
	mm      *matchmaker.Matchmaker
	rooms   *roommgr.RoomMgr
	reports repository.ReportRepository
	chatlog repository.ChatLogRepository
}

// NewUserCommands wires the user command table to its collaborators.
func NewUserCommands(
	cfg *config.Config,
	sender Sender,
	users repository.UserRepository,
	mm *matchmaker.Matchmaker,
	rooms *roommgr.RoomMgr,
	reports repository.ReportRepository,
	chatlog repository.ChatLogRepository,
) *UserCommands {
	return &UserCommands{
		cfg: cfg, sender: sender, users: users, mm: mm, rooms: rooms,
		reports: reports, chatlog: chatlog,
	}
}

// Start creates or refreshes the user record and, on a first-time
// referral deep link (`ref_<id>`), credits the referrer (spec §6).
func (u *UserCommands) Start(ctx context.Context, userID uint, args []string) Result {
	existing, err := u.users.GetByID(ctx, userID)
	if err != nil && !models.IsNotFound(err) {
		return Result{Kind: ResultError, Err: err}
	}

	isNew := existing == nil
	user := existing
	if user == nil {
		user = &models.User{UserID: userID, Language: models.LanguageEN}
	}

	if isNew && len(args) > 0 {
		if refID, ok := parseReferral(args[0]); ok && refID != userID {
			user.ReferredBy = &refID
		}
	}

	if err := u.users.Upsert(ctx, user); err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	if isNew && user.ReferredBy != nil {
		if err := u.creditReferral(ctx, *user.ReferredBy); err != nil {
			return Result{Kind: ResultError, Err: err}
		}
	}

	return Result{Kind: ResultOK, Message: "welcome — choose a language to get started, then use /find to meet someone new"}
}

func parseReferral(arg string) (uint, bool) {
	const prefix = "ref_"
	if !strings.HasPrefix(arg, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(arg, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// creditReferral extends the referrer's premium expiry from the later of
// now and their current expiry by the configured grant size.
func (u *UserCommands) creditReferral(ctx context.Context, referrerID uint) error {
	referrer, err := u.users.GetByID(ctx, referrerID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil
		}
		return err
	}
	base := time.Now()
	if referrer.PremiumExpiry != nil && referrer.PremiumExpiry.After(base) {
		base = *referrer.PremiumExpiry
	}
	expiry := base.AddDate(0, 0, u.cfg.ReferralPremiumDays)
	if err := u.users.SetPremium(ctx, referrerID, &expiry); err != nil {
		return err
	}
	if err := u.users.IncrementReferralCount(ctx, referrerID); err != nil {
		return err
	}
	_ = u.sender.SendText(ctx, referrerID, "a referral joined — your premium has been extended")
	return nil
}

// Find enters the matchmaker on the caller's behalf.
func (u *UserCommands) Find(ctx context.Context, userID uint) Result {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	result, err := u.mm.Find(ctx, userID, user.MatchFilters)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	switch result.Outcome {
	case matchmaker.Matched:
		_ = u.sender.SendText(ctx, result.Partner, "you have been matched — say hello")
		return Result{Kind: ResultOK, Message: "you have been matched — say hello"}
	case matchmaker.Queued:
		return Result{Kind: ResultOK, Message: "no match online right now — you have been queued and will be notified"}
	case matchmaker.Searching:
		return Result{Kind: ResultOK, Message: "searching for a partner..."}
	case matchmaker.AlreadyInRoom:
		return Result{Kind: ResultOK, Message: "you are already in a room — use /end first"}
	case matchmaker.AlreadySearching:
		return Result{Kind: ResultOK, Message: "already searching — use /end to cancel"}
	case matchmaker.Blocked:
		return Result{Kind: ResultUnauthorized, Message: "you cannot use matchmaking right now"}
	default:
		return Result{Kind: ResultOK, Message: "searching for a partner..."}
	}
}

// End leaves the caller's active room, or cancels an in-progress search.
func (u *UserCommands) End(ctx context.Context, userID uint) Result {
	partner, err := u.rooms.EndRoom(ctx, userID)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	if partner != 0 {
		_ = u.sender.SendText(ctx, partner, "your partner has left — the room was closed")
		return Result{Kind: ResultOK, Message: "room closed"}
	}
	if err := u.mm.Cancel(ctx, userID); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: "search cancelled"}
}

// Next ends any current room or search, then immediately re-enters
// matchmaking.
func (u *UserCommands) Next(ctx context.Context, userID uint) Result {
	if r := u.End(ctx, userID); r.Kind == ResultError {
		return r
	}
	return u.Find(ctx, userID)
}

// Report records a Report against the caller's current room partner and
// mirrors it, with transcript context, to the moderator channel.
func (u *UserCommands) Report(ctx context.Context, userID uint, reason string) Result {
	room, err := u.rooms.GetActiveRoom(ctx, userID)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	if room == nil {
		return Result{Kind: ResultOK, Message: "you can only report a user while in a chat room — use /find to start chatting"}
	}
	reportedID := room.PartnerOf(userID)

	history, err := u.chatlog.ListByRoom(ctx, room.ID, 0, 0)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	report := &models.Report{RoomID: room.ID, ReporterID: userID, ReportedID: reportedID, Reason: reason}
	if err := u.reports.Create(ctx, report); err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	_ = u.sender.SendToModerator(ctx, fmt.Sprintf(
		"report received\nRoom: %s\nReporter: %d\nReported: %d\nReason: %s\nMessages in room: %d",
		room.ID, userID, reportedID, orDefault(reason, "(none given)"), len(history),
	))
	observability.ReportsTotal.Inc()

	return Result{Kind: ResultOK, Message: "report sent to admins — thank you for helping keep this platform safe"}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Upgrade begins the payment-proof flow. Verifying and recording the
// proof itself is out of scope (spec §1 Non-goals); this only hands back
// the instructional message a real gateway binding would show.
func (u *UserCommands) Upgrade(ctx context.Context, userID uint) Result {
	return Result{Kind: ResultOK, Message: "send your payment proof to an admin to upgrade to premium"}
}

// Filters edits the caller's saved matching_preferences. Premium-only
// (spec §4.4/§6).
func (u *UserCommands) Filters(ctx context.Context, userID uint, args []string) Result {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	if !user.IsPremium {
		return Result{Kind: ResultUnauthorized, Message: "filters are a premium feature — use /upgrade"}
	}
	if len(args) < 2 {
		return Result{Kind: ResultError, Message: "usage: filters <gender|region|language|clear> <value>"}
	}

	switch args[0] {
	case "gender":
		g, err := validation.ValidateGender(args[1])
		if err != nil {
			return Result{Kind: ResultError, Message: err.Error()}
		}
		user.MatchFilters.Gender = g
	case "region":
		r, err := validation.ValidateRegion(args[1])
		if err != nil {
			return Result{Kind: ResultError, Message: err.Error()}
		}
		user.MatchFilters.Region = r
	case "language":
		l, err := validation.ValidateLanguage(args[1])
		if err != nil {
			return Result{Kind: ResultError, Message: err.Error()}
		}
		user.MatchFilters.Language = l
	case "clear":
		user.MatchFilters = models.MatchFilters{}
	default:
		return Result{Kind: ResultError, Message: "usage: filters <gender|region|language|clear> <value>"}
	}

	if err := u.users.Update(ctx, user); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: "filters updated"}
}

// Referral displays the caller's referral link and accrued count.
func (u *UserCommands) Referral(ctx context.Context, userID uint) Result {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf(
		"your referral link: %s\nreferrals so far: %d",
		u.cfg.ReferralLink(userID), user.ReferralCount,
	)}
}
