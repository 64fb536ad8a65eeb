// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the chat session engine for pocketchat.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/pocketchat/internal/commands"
	"github.com/jeranaias/pocketchat/internal/config"
	"github.com/jeranaias/pocketchat/internal/export"
	"github.com/jeranaias/pocketchat/internal/model"
	"github.com/jeranaias/pocketchat/internal/offline"
	"github.com/jeranaias/pocketchat/internal/storage"
	"github.com/jeranaias/pocketchat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSendFailed is the generic failure returned when a completion
	// fails for a non-connectivity reason. The cause is wrapped.
	ErrSendFailed = errors.New("failed to get AI response")

	// ErrUnknownCommand is returned for a slash command the engine does
	// not recognize, and for /model without an argument.
	ErrUnknownCommand = errors.New("unknown command")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Completer produces an assistant reply for a conversation.
// Implemented by cloud.Client.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message, modelID string) (string, error)
}

// Titler produces a short chat title from the first user message.
// Implemented by cloud.TitleGenerator.
type Titler interface {
	Title(ctx context.Context, firstMessage string) string
}

// =============================================================================
// STORE
// =============================================================================

// Store is the chat session engine. Safe for concurrent use.
type Store struct {
	settings  *config.Settings
	completer Completer
	titler    Titler
	snapshots *storage.SnapshotStore
	logger    *zap.Logger
	parser    *commands.Parser

	// mu guards chats. The slice is most-recent-first.
	mu    sync.RWMutex
	chats []*model.Chat

	// lockMu guards chatLocks; each chat id gets one send mutex.
	lockMu    sync.Mutex
	chatLocks map[string]*sync.Mutex

	offline offline.Flag

	// saveCh carries coalesced snapshots to the background writer.
	saveCh     chan []*model.Chat
	done       chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once
}

// New creates a store, loads the persisted snapshot, and starts the
// background snapshot writer. A corrupt snapshot is logged and replaced
// with an empty collection on the next save.
func New(settings *config.Settings, completer Completer, titler Titler, snapshots *storage.SnapshotStore, logger *zap.Logger) (*Store, error) {
	chats, err := snapshots.Load()
	if err != nil {
		if errors.Is(err, storage.ErrCorruptSnapshot) {
			logger.Warn("chat snapshot corrupt, starting empty", zap.Error(err))
		} else {
			return nil, err
		}
	}

	s := &Store{
		settings:   settings,
		completer:  completer,
		titler:     titler,
		snapshots:  snapshots,
		logger:     logger,
		parser:     commands.NewParser(commands.NewRegistry()),
		chats:      chats,
		chatLocks:  make(map[string]*sync.Mutex),
		saveCh:     make(chan []*model.Chat, 1),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	go s.writer()
	return s, nil
}

// Close flushes any pending snapshot and stops the background writer.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.writerDone
	return nil
}

// =============================================================================
// COLLECTION OPERATIONS
// =============================================================================

// CreateChat creates an empty chat targeting the currently selected
// model and prepends it to the collection.
func (s *Store) CreateChat() (string, error) {
	chat := model.NewChat(s.settings.SelectedModel())

	s.mu.Lock()
	s.chats = append([]*model.Chat{chat}, s.chats...)
	s.mu.Unlock()

	s.logger.Debug("chat created",
		zap.String("chat_id", chat.ID),
		zap.String("model", chat.Model))

	s.persist()
	return chat.ID, nil
}

// DeleteChat removes a chat. Absent ids are a no-op.
func (s *Store) DeleteChat(id string) {
	s.mu.Lock()
	for i, chat := range s.chats {
		if chat.ID == id {
			s.chats = append(s.chats[:i], s.chats[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.persist()
}

// ClearAllChats empties the collection.
func (s *Store) ClearAllChats() {
	s.mu.Lock()
	s.chats = []*model.Chat{}
	s.mu.Unlock()

	s.persist()
}

// Chat returns a deep copy of the chat with the given id.
func (s *Store) Chat(id string) (*model.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if chat := s.findLocked(id); chat != nil {
		return chat.Clone(), true
	}
	return nil, false
}

// Chats returns deep copies of all chats, most recent first.
func (s *Store) Chats() []*model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Chat, len(s.chats))
	for i, chat := range s.chats {
		out[i] = chat.Clone()
	}
	return out
}

// Offline reports whether the last send hit a connectivity failure.
func (s *Store) Offline() bool {
	return s.offline.Active()
}

// ExportChat renders a chat as a plain-text transcript. Returns the
// empty string for an unknown id.
func (s *Store) ExportChat(id string) string {
	chat, ok := s.Chat(id)
	if !ok {
		return ""
	}
	return export.Transcript(chat)
}

// findLocked returns the chat with the given id, or nil. Caller holds mu.
func (s *Store) findLocked(id string) *model.Chat {
	for _, chat := range s.chats {
		if chat.ID == id {
			return chat
		}
	}
	return nil
}

// =============================================================================
// SEND MESSAGE
// =============================================================================

// SendMessage processes user input for a chat: slash commands mutate
// state locally, plain text goes to the completion client. Sends to the
// same chat are serialized; an unknown chat id is a no-op.
func (s *Store) SendMessage(ctx context.Context, id, content string) error {
	lock := s.chatLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	exists := s.findLocked(id) != nil
	s.mu.RUnlock()
	if !exists {
		return nil
	}

	// Every send starts from a clean slate; the flag is re-set below
	// if this send also fails to reach the network.
	s.offline.Clear()

	if res := s.parser.Parse(content); res.IsCommand {
		return s.runCommand(id, res)
	}

	// Append the user message and persist before dialing out, so the
	// message survives a crash or failure.
	s.mu.Lock()
	chat := s.findLocked(id)
	if chat == nil {
		s.mu.Unlock()
		return nil
	}
	wasFirst := chat.MessageCount() == 0
	chat.Append(model.NewUserMessage(content))
	history := make([]model.Message, len(chat.Messages))
	copy(history, chat.Messages)
	modelID := chat.Model
	s.mu.Unlock()

	s.persist()

	reply, err := s.completer.Complete(ctx, history, modelID)
	if err != nil {
		if offline.IsConnectivityError(err) {
			s.logger.Warn("send hit connectivity failure, going offline",
				zap.String("chat_id", id),
				zap.Error(err))
			s.offline.Set()
			s.appendMessage(id, model.NewAssistantMessage(offline.Notice()))
			s.persist()
			return nil
		}
		s.logger.Warn("send failed",
			zap.String("chat_id", id),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	s.mu.Lock()
	if chat := s.findLocked(id); chat != nil {
		chat.Append(model.NewAssistantMessage(reply))
	}
	s.mu.Unlock()

	if wasFirst {
		s.adoptTitle(ctx, id, content)
	}

	s.persist()
	return nil
}

// runCommand applies a parsed slash command.
func (s *Store) runCommand(id string, res commands.ParseResult) error {
	switch res.Name {
	case "clear":
		s.mu.Lock()
		if chat := s.findLocked(id); chat != nil {
			chat.Reset()
		}
		s.mu.Unlock()
		s.persist()
		return nil

	case "model":
		if res.Args == "" {
			return fmt.Errorf("%w: /model needs a model id", ErrUnknownCommand)
		}
		s.settings.SetSelectedModel(res.Args)
		s.mu.Lock()
		if chat := s.findLocked(id); chat != nil {
			chat.Append(model.NewSystemMessage("Switched to model: " + res.Args))
			chat.Model = res.Args
		}
		s.mu.Unlock()
		s.logger.Info("model switched",
			zap.String("chat_id", id),
			zap.String("model", res.Args))
		s.persist()
		return nil

	case "export":
		transcript := s.ExportChat(id)
		s.logger.Info("chat exported",
			zap.String("chat_id", id),
			zap.String("preview", util.TruncateRunes(util.Singleline(transcript), 120)))
		return nil

	default:
		return fmt.Errorf("%w: /%s", ErrUnknownCommand, res.Name)
	}
}

// adoptTitle generates and adopts a title from the first user message.
func (s *Store) adoptTitle(ctx context.Context, id, firstMessage string) {
	title := s.titler.Title(ctx, firstMessage)
	if title == "" {
		title = model.DefaultTitle
	}

	s.mu.Lock()
	if chat := s.findLocked(id); chat != nil {
		chat.Title = title
	}
	s.mu.Unlock()
}

// appendMessage appends a message to a chat if it still exists.
func (s *Store) appendMessage(id string, msg model.Message) {
	s.mu.Lock()
	if chat := s.findLocked(id); chat != nil {
		chat.Append(msg)
	}
	s.mu.Unlock()
}

// chatLock returns the send mutex for a chat id, creating it on first use.
func (s *Store) chatLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.chatLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.chatLocks[id] = lock
	}
	return lock
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persist enqueues a snapshot for the background writer. If one is
// already pending it is replaced, so the writer always saves the most
// recent state.
func (s *Store) persist() {
	s.mu.RLock()
	snap := make([]*model.Chat, len(s.chats))
	for i, chat := range s.chats {
		snap[i] = chat.Clone()
	}
	s.mu.RUnlock()

	for {
		select {
		case s.saveCh <- snap:
			return
		default:
		}
		// Channel full: drop the stale pending snapshot and retry.
		select {
		case <-s.saveCh:
		default:
		}
	}
}

// writer is the background snapshot writer. Failures are logged and
// swallowed; chat state stays usable in memory.
func (s *Store) writer() {
	defer close(s.writerDone)

	for {
		select {
		case snap := <-s.saveCh:
			s.save(snap)
		case <-s.done:
			// Flush the last pending snapshot before exiting.
			select {
			case snap := <-s.saveCh:
				s.save(snap)
			default:
			}
			return
		}
	}
}

func (s *Store) save(snap []*model.Chat) {
	if err := s.snapshots.Save(snap); err != nil {
		s.logger.Warn("chat snapshot save failed", zap.Error(err))
	}
}
