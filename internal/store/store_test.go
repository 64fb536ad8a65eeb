// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/pocketchat/internal/config"
	"github.com/jeranaias/pocketchat/internal/model"
	"github.com/jeranaias/pocketchat/internal/offline"
	"github.com/jeranaias/pocketchat/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	inFlight int
	maxSeen  int
	delay    time.Duration

	gotModel    string
	gotMessages []model.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []model.Message, modelID string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.gotModel = modelID
	f.gotMessages = append([]model.Message(nil), messages...)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	reply, err := f.reply, f.err
	f.mu.Unlock()
	return reply, err
}

type fakeTitler struct {
	mu    sync.Mutex
	title string
	calls int
}

func (f *fakeTitler) Title(ctx context.Context, firstMessage string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.title
}

func newTestStore(t *testing.T, completer Completer, titler Titler) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	snapshots, err := storage.NewSnapshotStoreWithDir(dir)
	require.NoError(t, err)

	if completer == nil {
		completer = &fakeCompleter{reply: "assistant reply"}
	}
	if titler == nil {
		titler = &fakeTitler{title: "Test Title"}
	}

	st, err := New(config.NewSettings(config.Default()), completer, titler, snapshots, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return st, dir
}

// =============================================================================
// COLLECTION TESTS
// =============================================================================

func TestCreateChat(t *testing.T) {
	st, _ := newTestStore(t, nil, nil)

	id, err := st.CreateChat()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	chat, ok := st.Chat(id)
	require.True(t, ok)
	require.Equal(t, model.DefaultTitle, chat.Title)
	require.Equal(t, model.DefaultModelID, chat.Model)
	require.Zero(t, chat.MessageCount())
}

func TestChatsMostRecentFirst(t *testing.T) {
	st, _ := newTestStore(t, nil, nil)

	first, _ := st.CreateChat()
	second, _ := st.CreateChat()

	chats := st.Chats()
	require.Len(t, chats, 2)
	require.Equal(t, second, chats[0].ID)
	require.Equal(t, first, chats[1].ID)
}

func TestDeleteChat(t *testing.T) {
	st, _ := newTestStore(t, nil, nil)

	id, _ := st.CreateChat()
	st.DeleteChat(id)

	_, ok := st.Chat(id)
	require.False(t, ok)

	// Absent id is a no-op
	st.DeleteChat("no-such-id")
	require.Empty(t, st.Chats())
}

func TestClearAllChats(t *testing.T) {
	st, _ := newTestStore(t, nil, nil)

	st.CreateChat()
	st.CreateChat()
	st.ClearAllChats()

	require.Empty(t, st.Chats())
}

func TestChatReturnsDeepCopy(t *testing.T) {
	st, _ := newTestStore(t, nil, nil)
	id, _ := st.CreateChat()

	copy1, _ := st.Chat(id)
	copy1.Title = "tampered"
	copy1.Append(model.NewUserMessage("injected"))

	copy2, _ := st.Chat(id)
	require.Equal(t, model.DefaultTitle, copy2.Title)
	require.Zero(t, copy2.MessageCount())
}

// =============================================================================
// SEND MESSAGE TESTS
// =============================================================================

func TestSendMessageUnknownChat(t *testing.T) {
	completer := &fakeCompleter{reply: "reply"}
	st, _ := newTestStore(t, completer, nil)

	err := st.SendMessage(context.Background(), "no-such-id", "hello")
	require.NoError(t, err)
	require.Zero(t, completer.calls)
}

func TestSendMessageSuccess(t *testing.T) {
	completer := &fakeCompleter{reply: "the answer"}
	titler := &fakeTitler{title: "Adopted Title"}
	st, _ := newTestStore(t, completer, titler)
	id, _ := st.CreateChat()

	require.NoError(t, st.SendMessage(context.Background(), id, "what is Go?"))

	chat, _ := st.Chat(id)
	require.Equal(t, 2, chat.MessageCount())
	require.Equal(t, model.RoleUser, chat.Messages[0].Role)
	require.Equal(t, "what is Go?", chat.Messages[0].Content)
	require.Equal(t, model.RoleAssistant, chat.Messages[1].Role)
	require.Equal(t, "the answer", chat.Messages[1].Content)

	// First exchange adopts a generated title
	require.Equal(t, "Adopted Title", chat.Title)
	require.Equal(t, 1, titler.calls)

	// The completer saw the chat's model and the full history
	require.Equal(t, model.DefaultModelID, completer.gotModel)
	require.Len(t, completer.gotMessages, 1)
	require.Equal(t, "what is Go?", completer.gotMessages[0].Content)
}

func TestSendMessageTitleOnlyOnFirstExchange(t *testing.T) {
	titler := &fakeTitler{title: "Only Once"}
	st, _ := newTestStore(t, &fakeCompleter{reply: "ok"}, titler)
	id, _ := st.CreateChat()

	require.NoError(t, st.SendMessage(context.Background(), id, "first"))
	require.NoError(t, st.SendMessage(context.Background(), id, "second"))

	require.Equal(t, 1, titler.calls)
}

func TestSendMessageConnectivityFailure(t *testing.T) {
	completer := &fakeCompleter{
		err: &url.Error{Op: "Post", URL: "https://api", Err: syscall.ECONNREFUSED},
	}
	st, _ := newTestStore(t, completer, nil)
	id, _ := st.CreateChat()

	err := st.SendMessage(context.Background(), id, "hello")
	require.NoError(t, err, "connectivity failures are absorbed")
	require.True(t, st.Offline())

	chat, _ := st.Chat(id)
	require.Equal(t, 2, chat.MessageCount())
	require.Equal(t, model.RoleUser, chat.Messages[0].Role)
	require.Equal(t, model.RoleAssistant, chat.Messages[1].Role)
	require.Equal(t, offline.Notice(), chat.Messages[1].Content)
}

func TestSendMessageClearsOfflineFlag(t *testing.T) {
	completer := &fakeCompleter{
		err: &url.Error{Op: "Post", URL: "https://api", Err: syscall.ECONNREFUSED},
	}
	st, _ := newTestStore(t, completer, nil)
	id, _ := st.CreateChat()

	require.NoError(t, st.SendMessage(context.Background(), id, "hello"))
	require.True(t, st.Offline())

	// Network is back
	completer.mu.Lock()
	completer.err = nil
	completer.reply = "back online"
	completer.mu.Unlock()

	require.NoError(t, st.SendMessage(context.Background(), id, "still there?"))
	require.False(t, st.Offline())
}

func TestSendMessageOtherFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("boom")}
	st, _ := newTestStore(t, completer, nil)
	id, _ := st.CreateChat()

	err := st.SendMessage(context.Background(), id, "hello")
	require.ErrorIs(t, err, ErrSendFailed)
	require.False(t, st.Offline())

	// The user message is durable; no assistant message was added
	chat, _ := st.Chat(id)
	require.Equal(t, 1, chat.MessageCount())
	require.Equal(t, model.RoleUser, chat.Messages[0].Role)
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestClearCommand(t *testing.T) {
	st, _ := newTestStore(t, &fakeCompleter{reply: "ok"}, nil)
	id, _ := st.CreateChat()

	require.NoError(t, st.SendMessage(context.Background(), id, "hello"))
	require.NoError(t, st.SendMessage(context.Background(), id, "/clear"))

	chat, _ := st.Chat(id)
	require.Zero(t, chat.MessageCount())
}

func TestModelCommand(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	st, _ := newTestStore(t, completer, nil)
	id, _ := st.CreateChat()

	const next = "mistralai/mistral-7b-instruct:free"
	require.NoError(t, st.SendMessage(context.Background(), id, "/model "+next))

	chat, _ := st.Chat(id)
	require.Equal(t, next, chat.Model)
	require.Equal(t, 1, chat.MessageCount())
	require.Equal(t, model.RoleSystem, chat.Messages[0].Role)
	require.Equal(t, "Switched to model: "+next, chat.Messages[0].Content)

	// No remote call was made
	require.Zero(t, completer.calls)

	// New chats pick up the switched model
	second, _ := st.CreateChat()
	chat2, _ := st.Chat(second)
	require.Equal(t, next, chat2.Model)
}

func TestModelCommandWithoutArgs(t *testing.T) {
	st, _ := newTestStore(t, nil, nil)
	id, _ := st.CreateChat()

	err := st.SendMessage(context.Background(), id, "/model")
	require.ErrorIs(t, err, ErrUnknownCommand)

	chat, _ := st.Chat(id)
	require.Zero(t, chat.MessageCount())
}

func TestExportCommand(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	st, _ := newTestStore(t, completer, nil)
	id, _ := st.CreateChat()

	require.NoError(t, st.SendMessage(context.Background(), id, "hello"))
	before, _ := st.Chat(id)

	require.NoError(t, st.SendMessage(context.Background(), id, "/export"))

	after, _ := st.Chat(id)
	require.Equal(t, before.MessageCount(), after.MessageCount())
	require.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestUnknownCommandRejected(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	st, _ := newTestStore(t, completer, nil)
	id, _ := st.CreateChat()

	err := st.SendMessage(context.Background(), id, "/dance fast")
	require.ErrorIs(t, err, ErrUnknownCommand)

	chat, _ := st.Chat(id)
	require.Zero(t, chat.MessageCount())
	require.Zero(t, completer.calls)
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestExportChat(t *testing.T) {
	st, _ := newTestStore(t, &fakeCompleter{reply: "lightweight threads"}, nil)
	id, _ := st.CreateChat()

	require.NoError(t, st.SendMessage(context.Background(), id, "goroutines?"))

	transcript := st.ExportChat(id)
	require.Contains(t, transcript, "Chat: ")
	require.Contains(t, transcript, "Model: "+model.DefaultModelID)
	require.Contains(t, transcript, "You: goroutines?")
	require.Contains(t, transcript, "AI: lightweight threads")

	require.Empty(t, st.ExportChat("no-such-id"))
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	snapshots, err := storage.NewSnapshotStoreWithDir(dir)
	require.NoError(t, err)

	settings := config.NewSettings(config.Default())
	st, err := New(settings, &fakeCompleter{reply: "persisted reply"}, &fakeTitler{title: "Kept Title"}, snapshots, zap.NewNop())
	require.NoError(t, err)

	id, _ := st.CreateChat()
	require.NoError(t, st.SendMessage(context.Background(), id, "remember me"))
	require.NoError(t, st.Close())

	reopened, err := storage.NewSnapshotStoreWithDir(dir)
	require.NoError(t, err)
	st2, err := New(settings, &fakeCompleter{}, &fakeTitler{}, reopened, zap.NewNop())
	require.NoError(t, err)
	defer st2.Close()

	chat, ok := st2.Chat(id)
	require.True(t, ok)
	require.Equal(t, "Kept Title", chat.Title)
	require.Equal(t, 2, chat.MessageCount())
	require.Equal(t, "remember me", chat.Messages[0].Content)
	require.Equal(t, "persisted reply", chat.Messages[1].Content)
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

// TestSendMessageSerializedPerChat verifies that concurrent sends to the
// same chat never overlap. Run with: go test -race -v ./internal/store/
func TestSendMessageSerializedPerChat(t *testing.T) {
	completer := &fakeCompleter{reply: "ok", delay: 10 * time.Millisecond}
	st, _ := newTestStore(t, completer, nil)
	id, _ := st.CreateChat()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, st.SendMessage(context.Background(), id, "ping"))
		}()
	}
	wg.Wait()

	completer.mu.Lock()
	maxSeen := completer.maxSeen
	completer.mu.Unlock()
	require.Equal(t, 1, maxSeen, "sends to one chat must not overlap")

	// Every send produced a complete user/assistant pair
	chat, _ := st.Chat(id)
	require.Equal(t, 10, chat.MessageCount())
	for i, msg := range chat.Messages {
		if i%2 == 0 {
			require.Equal(t, model.RoleUser, msg.Role, "message %d", i)
		} else {
			require.Equal(t, model.RoleAssistant, msg.Role, "message %d", i)
		}
	}
}

func TestConcurrentCollectionAccess(t *testing.T) {
	st, _ := newTestStore(t, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id, err := st.CreateChat()
			require.NoError(t, err)
			if strings.HasSuffix(id, "0") {
				st.DeleteChat(id)
			}
		}()
		go func() {
			defer wg.Done()
			_ = st.Chats()
		}()
	}
	wg.Wait()
}
