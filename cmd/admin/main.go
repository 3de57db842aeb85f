// Command admin runs a single admin command table entry from the shell,
// for operators who want to script moderation actions instead of issuing
// them in-chat or through the ops HTTP surface.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"anonrelay/internal/config"
	"anonrelay/internal/database"
	"anonrelay/internal/filter"
	"anonrelay/internal/gateway"
	"anonrelay/internal/pool"
	"anonrelay/internal/queue"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"
)

// logSender prints outbound sends instead of delivering them; the CLI has
// no live gateway connection to the chat platform.
type logSender struct{}

func (logSender) SendText(_ context.Context, userID uint, text string) error {
	fmt.Printf("[send user=%d] %s\n", userID, text)
	return nil
}

func (logSender) SendMedia(_ context.Context, userID uint, mediaType gateway.MediaType, handle, caption string) error {
	fmt.Printf("[send user=%d media=%s handle=%s] %s\n", userID, mediaType, handle, caption)
	return nil
}

func (logSender) SendToModerator(_ context.Context, text string) error {
	fmt.Printf("[moderator] %s\n", text)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	rooms := roommgr.New(roomRepo)
	chatlog := repository.NewChatLogRepository(db)
	words := repository.NewBlockedWordRepository(db)
	reports := repository.NewReportRepository(db)
	f := filter.New(nil)
	p := pool.New()
	q := queue.New(repository.NewQueueRepository(db))

	admin := gateway.NewAdminCommands(cfg, logSender{}, users, rooms, roomRepo, chatlog, words, reports, f, p, q)

	command := os.Args[1]
	args := os.Args[2:]

	var callerID uint
	if len(cfg.AdminUserIDs) == 0 {
		log.Fatal("no ADMIN_USER_IDS configured; the admin CLI needs at least one to authorize as")
	}
	callerID = uint(cfg.AdminUserIDs[0])

	result := admin.Dispatch(context.Background(), callerID, command, args)
	switch result.Kind {
	case gateway.ResultOK:
		fmt.Println(result.Message)
	case gateway.ResultUnauthorized:
		fmt.Fprintln(os.Stderr, result.Message)
		os.Exit(1)
	default:
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", result.Err)
		} else {
			fmt.Fprintln(os.Stderr, result.Message)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: admin <command> [args...]")
	fmt.Println("Commands: block unblock setpremium resetpremium message ad")
	fmt.Println("          adminroom linkusers blockword unblockword stats export")
}
