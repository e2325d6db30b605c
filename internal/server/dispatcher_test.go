package server_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/Tyrowin/relaychat/internal/mocks"
	"github.com/Tyrowin/relaychat/internal/server"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newDispatcherFixture(t *testing.T, opts ...server.DispatcherOption) (*server.Dispatcher, *server.Registry, *mocks.MockBroadcaster) {
	t.Helper()
	ctrl := gomock.NewController(t)
	broadcaster := mocks.NewMockBroadcaster(ctrl)
	registry := server.NewRegistry()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	opts = append([]server.DispatcherOption{server.WithClock(func() time.Time { return fixedNow })}, opts...)
	return server.NewDispatcher(log, registry, broadcaster, opts...), registry, broadcaster
}

func newClient() *server.Client {
	return server.NewClient(nil, nil, nil, logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:4000", server.ClientLimits{})
}

func TestDispatcher_Announce_Broadcasts_UserCount_To_All(t *testing.T) {
	req := require.New(t)
	dispatcher, registry, broadcaster := newDispatcherFixture(t)
	alice := newClient()

	// Then one userCount goes to everyone, sender included
	broadcaster.EXPECT().Broadcast([]byte(`{"type":"userCount","count":1}`), gomock.Nil()).Times(1)

	// When Alice announces
	dispatcher.Dispatch(alice, []byte(`{"type":"username","username":"Alice"}`))

	p, ok := registry.Lookup(alice)
	req.True(ok)
	req.Equal(server.Participant{ID: alice.ID(), Name: "Alice"}, p)
}

func TestDispatcher_Typing_Excludes_Sender(t *testing.T) {
	dispatcher, registry, broadcaster := newDispatcherFixture(t)
	alice := newClient()

	// Given Alice has announced
	registry.Put(alice, server.Participant{ID: alice.ID(), Name: "Alice"})

	// Then the relay names Alice and excludes her connection
	broadcaster.EXPECT().
		Broadcast([]byte(`{"type":"typing","isTyping":true,"username":"Alice"}`), alice).
		Times(1)

	// When Alice starts typing
	dispatcher.Dispatch(alice, []byte(`{"type":"typing","isTyping":true}`))
}

func TestDispatcher_Chat_Reaches_Everyone_With_Timestamp(t *testing.T) {
	dispatcher, registry, broadcaster := newDispatcherFixture(t)
	alice := newClient()

	// Given Alice has announced
	registry.Put(alice, server.Participant{ID: alice.ID(), Name: "Alice"})

	// Then the message is stamped and goes to everyone
	broadcaster.EXPECT().
		Broadcast([]byte(`{"type":"message","username":"Alice","text":"hi","timestamp":"2024-05-01T09:30:00.000Z"}`), gomock.Nil()).
		Times(1)

	// When Alice says hi
	dispatcher.Dispatch(alice, []byte(`{"type":"message","text":"hi"}`))
}

func TestDispatcher_Unannounced_Sender_Produces_Nothing(t *testing.T) {
	dispatcher, _, broadcaster := newDispatcherFixture(t)
	stranger := newClient()

	// Then nothing is broadcast
	broadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Times(0)

	// When a connection that never announced sends typing and chat
	dispatcher.Dispatch(stranger, []byte(`{"type":"typing","isTyping":true}`))
	dispatcher.Dispatch(stranger, []byte(`{"type":"message","text":"hello"}`))
}

func TestDispatcher_Malformed_Payload_Is_Dropped_And_Next_Event_Processed(t *testing.T) {
	dispatcher, registry, broadcaster := newDispatcherFixture(t)
	alice := newClient()
	registry.Put(alice, server.Participant{ID: alice.ID(), Name: "Alice"})

	// Then only the valid message that follows is broadcast
	broadcaster.EXPECT().
		Broadcast([]byte(`{"type":"message","username":"Alice","text":"still here","timestamp":"2024-05-01T09:30:00.000Z"}`), gomock.Nil()).
		Times(1)

	// When garbage is followed by a valid message
	dispatcher.Dispatch(alice, []byte(`this is not json`))
	dispatcher.Dispatch(alice, []byte(`{"type":"typing"}`))
	dispatcher.Dispatch(alice, []byte(`{"type":"message","text":"still here"}`))
}

func TestDispatcher_Reannounce_Replaces_Name(t *testing.T) {
	req := require.New(t)
	dispatcher, registry, broadcaster := newDispatcherFixture(t)
	alice := newClient()

	// Then two count broadcasts (both 1) precede the renamed chat
	gomock.InOrder(
		broadcaster.EXPECT().Broadcast([]byte(`{"type":"userCount","count":1}`), gomock.Nil()).Times(2),
		broadcaster.EXPECT().
			Broadcast([]byte(`{"type":"message","username":"Alicia","text":"hi","timestamp":"2024-05-01T09:30:00.000Z"}`), gomock.Nil()).
			Times(1),
	)

	// When the same connection announces twice and then chats
	dispatcher.Dispatch(alice, []byte(`{"type":"username","username":"Alice"}`))
	dispatcher.Dispatch(alice, []byte(`{"type":"username","username":"Alicia"}`))
	dispatcher.Dispatch(alice, []byte(`{"type":"message","text":"hi"}`))

	req.Equal(1, registry.Size())
}

func TestDispatcher_Unknown_Type_Falls_Through_To_Chat(t *testing.T) {
	dispatcher, registry, broadcaster := newDispatcherFixture(t)
	alice := newClient()
	registry.Put(alice, server.Participant{ID: alice.ID(), Name: "Alice"})

	broadcaster.EXPECT().
		Broadcast([]byte(`{"type":"message","username":"Alice","text":"boo","timestamp":"2024-05-01T09:30:00.000Z"}`), gomock.Nil()).
		Times(1)

	dispatcher.Dispatch(alice, []byte(`{"type":"shout","text":"boo"}`))
}

func TestDispatcher_Strict_Mode_Drops_Unknown_Type(t *testing.T) {
	dispatcher, registry, broadcaster := newDispatcherFixture(t, server.WithStrictEventTypes(true))
	alice := newClient()
	registry.Put(alice, server.Participant{ID: alice.ID(), Name: "Alice"})

	broadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Times(0)

	dispatcher.Dispatch(alice, []byte(`{"type":"shout","text":"boo"}`))
}

func TestDispatcher_Disconnect_Removes_Then_Broadcasts_Count(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockDirectory(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)
	dispatcher := server.NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), directory, broadcaster)
	bob := newClient()

	// Then the entry is removed before the post-removal size is broadcast
	gomock.InOrder(
		directory.EXPECT().Remove(bob),
		directory.EXPECT().Size().Return(2),
		broadcaster.EXPECT().Broadcast([]byte(`{"type":"userCount","count":2}`), gomock.Nil()),
	)

	// When Bob's connection ends
	dispatcher.Disconnect(bob)
}

func TestDispatcher_Disconnect_Of_Unannounced_Connection_Still_Broadcasts(t *testing.T) {
	dispatcher, registry, broadcaster := newDispatcherFixture(t)
	alice := newClient()
	stranger := newClient()
	registry.Put(alice, server.Participant{ID: alice.ID(), Name: "Alice"})

	broadcaster.EXPECT().Broadcast([]byte(`{"type":"userCount","count":1}`), gomock.Nil()).Times(1)

	dispatcher.Disconnect(stranger)
}
