package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"anonrelay/internal/config"
	"anonrelay/internal/filter"
	"anonrelay/internal/models"
	"anonrelay/internal/pool"
	"anonrelay/internal/queue"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"
)

// AdminCommands implements the full admin command table (§6 plus §4.9/
// §4.10): block/unblock, setpremium/resetpremium, message, ad broadcast,
// adminroom, linkusers, blockword/unblockword, stats, export,
// userinfo/roominfo/viewhistory. Authorization checks the caller id
// against configured admin ids; unauthorized calls return the fixed
// Unauthorized result. UserInfo/RoomInfo/ViewHistory/ComputeStats/
// ExportUsers are also exported directly so the ops HTTP surface
// (internal/server) can read the same data without routing through the
// command-string Dispatch entrypoint.
type AdminCommands struct {
	cfg      *config.Config
	sender   Sender
	users    repository.UserRepository
	rooms    *roommgr.RoomMgr
	roomRepo repository.RoomRepository
	chatlog  repository.ChatLogRepository
	words    repository.BlockedWordRepository
	reports  repository.ReportRepository
	filter   *filter.Filter
	pool     *pool.Pool
	queue    *queue.Queue
}

// NewAdminCommands wires the admin command table to its collaborators. p
// and q are the same Pool/Queue the matchmaker uses — linkusers withdraws
// both targets from them before sealing a room (spec §4.6).
func NewAdminCommands(
	cfg *config.Config,
	sender Sender,
	users repository.UserRepository,
	rooms *roommgr.RoomMgr,
	roomRepo repository.RoomRepository,
	chatlog repository.ChatLogRepository,
	words repository.BlockedWordRepository,
	reports repository.ReportRepository,
	f *filter.Filter,
	p *pool.Pool,
	q *queue.Queue,
) *AdminCommands {
	return &AdminCommands{
		cfg: cfg, sender: sender, users: users, rooms: rooms,
		roomRepo: roomRepo, chatlog: chatlog, words: words, reports: reports, filter: f,
		pool: p, queue: q,
	}
}

var unauthorized = Result{Kind: ResultUnauthorized, Message: "you are not authorized to run this command"}

func parseUint(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return uint(n), nil
}

// resolveTarget parses an admin command's user target, either a bare
// numeric id or an "@name" reference to a saved username (spec §6: admin
// targets are <id|@name>). Username lookup is case-insensitive.
func (a *AdminCommands) resolveTarget(ctx context.Context, arg string) (uint, error) {
	if strings.HasPrefix(arg, "@") {
		username := strings.TrimPrefix(arg, "@")
		user, err := a.users.GetByUsername(ctx, username)
		if err != nil {
			return 0, err
		}
		if user == nil {
			return 0, fmt.Errorf("no user with username %q", username)
		}
		return user.UserID, nil
	}
	return parseUint(arg)
}

// Dispatch routes an admin command to its handler after checking caller
// authorization. args follows the command name in-order, e.g. for
// "setpremium 42 7" args is ["42", "7"].
func (a *AdminCommands) Dispatch(ctx context.Context, callerID uint, command string, args []string) Result {
	if !a.cfg.IsAdmin(callerID) {
		return unauthorized
	}

	switch command {
	case "block":
		return a.setBlocked(ctx, args, true)
	case "unblock":
		return a.setBlocked(ctx, args, false)
	case "setpremium":
		return a.setPremium(ctx, args)
	case "resetpremium":
		return a.resetPremium(ctx, args)
	case "message":
		return a.message(ctx, args)
	case "ad":
		return a.broadcast(ctx, args)
	case "adminroom":
		return a.adminRoom(ctx, callerID, args)
	case "linkusers":
		return a.linkUsers(ctx, args)
	case "blockword":
		return a.blockWord(ctx, callerID, args)
	case "unblockword":
		return a.unblockWord(ctx, args)
	case "stats":
		return a.stats(ctx)
	case "export":
		return a.export(ctx, args)
	case "userinfo":
		return a.userInfoCmd(ctx, args)
	case "roominfo":
		return a.roomInfoCmd(ctx, args)
	case "viewhistory":
		return a.viewHistoryCmd(ctx, args)
	default:
		return Result{Kind: ResultError, Message: fmt.Sprintf("unknown admin command %q", command)}
	}
}

func (a *AdminCommands) setBlocked(ctx context.Context, args []string, blocked bool) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: block/unblock <id|@name>"}
	}
	userID, err := a.resolveTarget(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	if err := a.users.SetBlocked(ctx, userID, blocked); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf("user %d blocked=%v", userID, blocked)}
}

func (a *AdminCommands) setPremium(ctx context.Context, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: setpremium <id|@name> [days]"}
	}
	userID, err := a.resolveTarget(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	days := a.cfg.ReferralPremiumDays
	if len(args) > 1 {
		if n, perr := strconv.Atoi(args[1]); perr == nil && n > 0 {
			days = n
		}
	}
	expiry := time.Now().AddDate(0, 0, days)
	if err := a.users.SetPremium(ctx, userID, &expiry); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf("user %d is premium until %s", userID, expiry.Format(time.RFC3339))}
}

func (a *AdminCommands) resetPremium(ctx context.Context, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: resetpremium <id|@name>"}
	}
	userID, err := a.resolveTarget(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	if err := a.users.SetPremium(ctx, userID, nil); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf("user %d premium cleared", userID)}
}

func (a *AdminCommands) message(ctx context.Context, args []string) Result {
	if len(args) < 2 {
		return Result{Kind: ResultError, Message: "usage: message <id|@name> <text>"}
	}
	userID, err := a.resolveTarget(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	text := joinArgs(args[1:])
	if err := a.sender.SendText(ctx, userID, text); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: "message delivered"}
}

// broadcast sends text to every known user with a small delay between
// sends so the platform rate limit is respected (§5 backpressure notes).
// It reports aggregate success/failure counts rather than failing fast.
func (a *AdminCommands) broadcast(ctx context.Context, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: ad <text>"}
	}
	text := joinArgs(args)

	const page = 200
	sent, failed := 0, 0
	for offset := 0; ; offset += page {
		users, err := a.users.List(ctx, page, offset)
		if err != nil {
			return Result{Kind: ResultError, Err: err}
		}
		if len(users) == 0 {
			break
		}
		for _, u := range users {
			if err := a.sender.SendText(ctx, u.UserID, text); err != nil {
				failed++
			} else {
				sent++
			}
			time.Sleep(a.cfg.BroadcastPace())
		}
		if len(users) < page {
			break
		}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf("broadcast complete: %d sent, %d failed", sent, failed)}
}

func (a *AdminCommands) adminRoom(ctx context.Context, adminID uint, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: adminroom <id|@name>"}
	}
	userID, err := a.resolveTarget(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	room, err := a.rooms.AdoptAdminRoom(ctx, adminID, userID)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf("admin room %s created with user %d", room.ID, userID)}
}

func (a *AdminCommands) linkUsers(ctx context.Context, args []string) Result {
	if len(args) < 2 {
		return Result{Kind: ResultError, Message: "usage: linkusers <a|@name> <b|@name>"}
	}
	userA, err := a.resolveTarget(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	userB, err := a.resolveTarget(ctx, args[1])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	// linkusers must not leave either target sitting in the pool/queue it
	// was just pulled out of (spec §4.6, scenario S6): withdraw both
	// before sealing the room.
	a.withdrawFromMatching(ctx, userA)
	a.withdrawFromMatching(ctx, userB)

	room, err := a.rooms.LinkUsers(ctx, userA, userB)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf("linked users %d and %d into room %s", userA, userB, room.ID)}
}

// withdrawFromMatching removes userID from the opportunistic pool and the
// premium queue. Both removals are no-ops if userID isn't present in
// either collection.
func (a *AdminCommands) withdrawFromMatching(ctx context.Context, userID uint) {
	a.pool.Remove(userID)
	_ = a.queue.Remove(ctx, userID)
}

func (a *AdminCommands) blockWord(ctx context.Context, callerID uint, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: blockword <word>"}
	}
	if err := a.words.Add(ctx, args[0], callerID); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	a.filter.AddWord(args[0])
	return Result{Kind: ResultOK, Message: fmt.Sprintf("blocked word %q added", args[0])}
}

func (a *AdminCommands) unblockWord(ctx context.Context, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: unblockword <word>"}
	}
	if err := a.words.Remove(ctx, args[0]); err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	a.filter.RemoveWord(args[0])
	return Result{Kind: ResultOK, Message: fmt.Sprintf("blocked word %q removed", args[0])}
}

// Stats is the aggregate snapshot returned by the stats admin command and
// mirrored on the ops HTTP surface's /stats endpoint.
type Stats struct {
	TotalUsers   int64 `json:"total_users"`
	OnlineUsers  int64 `json:"online_users"`
	PremiumUsers int64 `json:"premium_users"`
	ActiveRooms  int64 `json:"active_rooms"`
	TotalRooms   int64 `json:"total_rooms"`
	OpenReports  int64 `json:"open_reports"`
}

// ComputeStats gathers the counters behind the stats admin command and the
// ops HTTP surface's /stats endpoint.
func (a *AdminCommands) ComputeStats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.TotalUsers, err = a.users.Count(ctx); err != nil {
		return s, err
	}
	if s.OnlineUsers, err = a.users.CountOnline(ctx); err != nil {
		return s, err
	}
	if s.PremiumUsers, err = a.users.CountPremium(ctx); err != nil {
		return s, err
	}
	if s.ActiveRooms, err = a.roomRepo.CountActive(ctx); err != nil {
		return s, err
	}
	if s.TotalRooms, err = a.roomRepo.CountTotal(ctx); err != nil {
		return s, err
	}
	if s.OpenReports, err = a.reports.CountOpen(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func (a *AdminCommands) stats(ctx context.Context) Result {
	s, err := a.ComputeStats(ctx)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf(
		"users: %d total, %d online, %d premium | rooms: %d active, %d total | reports: %d open",
		s.TotalUsers, s.OnlineUsers, s.PremiumUsers, s.ActiveRooms, s.TotalRooms, s.OpenReports,
	)}
}

// ExportUsers dumps every user as CSV (user_id,username,language,region,
// is_premium,blocked,is_online,referral_count) for the export admin
// command and the ops HTTP surface's /export endpoint.
func (a *AdminCommands) ExportUsers(ctx context.Context) (string, error) {
	const page = 200
	var b strings.Builder
	b.WriteString("user_id,username,language,region,is_premium,blocked,is_online,referral_count\n")
	for offset := 0; ; offset += page {
		users, err := a.users.List(ctx, page, offset)
		if err != nil {
			return "", err
		}
		if len(users) == 0 {
			break
		}
		for _, u := range users {
			fmt.Fprintf(&b, "%d,%s,%s,%s,%t,%t,%t,%d\n",
				u.UserID, u.Username, u.Language, u.Region,
				u.IsPremium, u.Blocked, u.IsOnline, u.ReferralCount)
		}
		if len(users) < page {
			break
		}
	}
	return b.String(), nil
}

func (a *AdminCommands) export(ctx context.Context, args []string) Result {
	kind := "users"
	if len(args) > 0 {
		kind = args[0]
	}
	if kind != "users" {
		return Result{Kind: ResultError, Message: fmt.Sprintf("unsupported export target %q", kind)}
	}
	csv, err := a.ExportUsers(ctx)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: csv}
}

// UserInfo returns the profile for a userinfo admin lookup.
func (a *AdminCommands) UserInfo(ctx context.Context, userID uint) (*models.User, error) {
	return a.users.GetByID(ctx, userID)
}

// RoomInfo returns the room for a roominfo admin lookup.
func (a *AdminCommands) RoomInfo(ctx context.Context, roomID string) (*models.Room, error) {
	return a.roomRepo.GetByID(ctx, roomID)
}

// ViewHistory returns the chat transcript for a viewhistory admin lookup.
func (a *AdminCommands) ViewHistory(ctx context.Context, roomID string, limit, offset int) ([]models.ChatLogEntry, error) {
	return a.chatlog.ListByRoom(ctx, roomID, limit, offset)
}

func (a *AdminCommands) userInfoCmd(ctx context.Context, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: userinfo <id|@name>"}
	}
	userID, err := a.resolveTarget(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	u, err := a.UserInfo(ctx, userID)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf(
		"user %d: username=%s lang=%s region=%s premium=%v blocked=%v online=%v referrals=%d",
		u.UserID, u.Username, u.Language, u.Region, u.IsPremium, u.Blocked, u.IsOnline, u.ReferralCount,
	)}
}

func (a *AdminCommands) roomInfoCmd(ctx context.Context, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: roominfo <room_id>"}
	}
	room, err := a.RoomInfo(ctx, args[0])
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	return Result{Kind: ResultOK, Message: fmt.Sprintf(
		"room %s: status=%s userA=%d userB=%d admin=%v createdAt=%s",
		room.ID, room.Status, room.UserAID, room.UserBID, room.IsAdmin, room.CreatedAt.Format(time.RFC3339),
	)}
}

func (a *AdminCommands) viewHistoryCmd(ctx context.Context, args []string) Result {
	if len(args) < 1 {
		return Result{Kind: ResultError, Message: "usage: viewhistory <room_id> [limit] [offset]"}
	}
	limit, offset := 50, 0
	if len(args) > 1 {
		if n, perr := strconv.Atoi(args[1]); perr == nil {
			limit = n
		}
	}
	if len(args) > 2 {
		if n, perr := strconv.Atoi(args[2]); perr == nil {
			offset = n
		}
	}
	entries, err := a.ViewHistory(ctx, args[0], limit, offset)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "room %s: %d message(s)\n", args[0], len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %d: %s\n", e.CreatedAt.Format(time.RFC3339), e.SenderID, e.Body)
	}
	return Result{Kind: ResultOK, Message: b.String()}
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}
