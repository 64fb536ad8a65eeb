// pocketchat - A chat session engine with a minimal terminal front end.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jeranaias/pocketchat/internal/cloud"
	"github.com/jeranaias/pocketchat/internal/config"
	"github.com/jeranaias/pocketchat/internal/storage"
	"github.com/jeranaias/pocketchat/internal/store"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pocketchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for API keys; absence is fine.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	settings := config.NewSettings(cfg)

	// Hot-reload settings when the config file changes.
	if path, err := config.ConfigPathTOML(); err == nil {
		if watcher, werr := config.NewWatcher(settings, path, logger); werr == nil {
			if werr := watcher.Watch(); werr == nil {
				defer watcher.Close()
			}
		}
	}

	dataDir := settings.StorageDir()
	var snapshots *storage.SnapshotStore
	if dataDir != "" {
		snapshots, err = storage.NewSnapshotStoreWithDir(dataDir)
	} else {
		snapshots, err = storage.NewSnapshotStore()
	}
	if err != nil {
		return err
	}

	client := cloud.NewClient(settings, logger)
	titler := cloud.NewTitleGenerator(logger)

	st, err := store.New(settings, client, titler, snapshots, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return repl(ctx, st, settings)
}

// repl runs the line-oriented chat loop on the newest chat, creating
// one if the collection is empty.
func repl(ctx context.Context, st *store.Store, settings *config.Settings) error {
	chats := st.Chats()
	var chatID string
	if len(chats) > 0 {
		chatID = chats[0].ID
	} else {
		id, err := st.CreateChat()
		if err != nil {
			return err
		}
		chatID = id
	}

	fmt.Printf("pocketchat %s (model: %s)\n", Version, settings.SelectedModel())
	fmt.Println("Type a message, /clear, /model <id>, /export, or Ctrl-D to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if err := st.SendMessage(ctx, chatID, input); err != nil {
			if errors.Is(err, store.ErrUnknownCommand) {
				fmt.Println("Unknown command. Known commands: /clear, /model <id>, /export")
				continue
			}
			fmt.Printf("Error: %v\n", err)
			continue
		}

		printLatest(st, chatID)
		if st.Offline() {
			fmt.Println("(offline)")
		}
	}
}

// printLatest prints the newest assistant or system message of the chat.
func printLatest(st *store.Store, chatID string) {
	chat, ok := st.Chat(chatID)
	if !ok || chat.MessageCount() == 0 {
		return
	}
	last := chat.Messages[chat.MessageCount()-1]
	fmt.Printf("%s: %s\n", last.Role.DisplayName(), last.Content)
}
