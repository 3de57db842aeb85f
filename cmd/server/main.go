// Command server is the entry point for the anonrelay backend: the ops
// HTTP surface, the gateway webhook, and the three lifecycle sweep loops
// all run in this one process.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anonrelay/internal/bootstrap"
	"anonrelay/internal/config"
	"anonrelay/internal/gateway"
	"anonrelay/internal/server"
)

// @title anonrelay ops API
// @version 1.0
// @description Operator-facing HTTP surface for an anonymous two-party chat relay: stats, user/room lookups, and a live moderation feed.

// @contact.name Platform operators

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// stdoutSender prints outbound sends instead of delivering them. A real
// deployment swaps this for a binding against the actual chat platform
// SDK; the dispatcher and its collaborators only depend on the
// gateway.Sender interface, not on this implementation.
type stdoutSender struct{}

func (stdoutSender) SendText(_ context.Context, userID uint, text string) error {
	fmt.Printf("[send user=%d] %s\n", userID, text)
	return nil
}

func (stdoutSender) SendMedia(_ context.Context, userID uint, mediaType gateway.MediaType, handle, caption string) error {
	fmt.Printf("[send user=%d media=%s handle=%s] %s\n", userID, mediaType, handle, caption)
	return nil
}

func (stdoutSender) SendToModerator(_ context.Context, text string) error {
	fmt.Printf("[moderator] %s\n", text)
	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("runtime initialization failed: %v", err)
	}

	srv, err := server.NewServer(cfg, db, redisClient, stdoutSender{})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
