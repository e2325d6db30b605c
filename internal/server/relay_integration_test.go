package server_test

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tyrowin/relaychat/internal/server"
	"github.com/Tyrowin/relaychat/internal/testhelpers"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type RelaySuite struct {
	suite.Suite
	cfg    testhelpers.SuiteConfig
	relay  *server.Relay
	server *httptest.Server
	url    string
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	var err error
	s.cfg, err = testhelpers.LoadSuiteConfig()
	s.Require().NoError(err)
}

func (s *RelaySuite) SetupTest() {
	s.startRelay(server.NewConfig())
}

func (s *RelaySuite) TearDownTest() {
	s.server.Close()
	s.NoError(s.relay.Shutdown(2 * time.Second))
}

func (s *RelaySuite) startRelay(cfg *server.Config) {
	s.relay = server.NewRelay(cfg, logs.GetLoggerFromLevel(slog.LevelDebug))
	s.relay.Start()
	s.server = httptest.NewServer(server.SetupRoutes(s.relay))
	s.url = testhelpers.WebSocketURL(s.server.URL)
}

// connect dials n peers and waits until the hub has registered all of them,
// so that no broadcast can race ahead of a registration.
func (s *RelaySuite) connect(n int) []*testhelpers.Peer {
	peers := make([]*testhelpers.Peer, n)
	for i := range peers {
		p, err := testhelpers.Dial(s.url)
		s.Require().NoError(err)
		peers[i] = p
		s.T().Cleanup(func() { _ = p.Close() })
	}
	s.Require().Eventually(func() bool {
		return s.relay.Hub().ClientCount() == n
	}, 2*time.Second, 5*time.Millisecond)
	return peers
}

func (s *RelaySuite) expectEvent(p *testhelpers.Peer, want map[string]any) map[string]any {
	evt, err := p.Next(s.cfg.ReadTimeout)
	s.Require().NoError(err, "expected %v", want)
	for k, v := range want {
		s.Require().Equal(v, evt[k], "field %q of %v", k, evt)
	}
	return evt
}

func (s *RelaySuite) expectUserCount(count int, peers ...*testhelpers.Peer) {
	for _, p := range peers {
		s.expectEvent(p, map[string]any{"type": "userCount", "count": float64(count)})
	}
}

func (s *RelaySuite) expectSilence(peers ...*testhelpers.Peer) {
	for i, p := range peers {
		s.Require().True(p.Silent(s.cfg.QuietPeriod), "peer %d received an unexpected event", i)
	}
}

func (s *RelaySuite) expectChat(p *testhelpers.Peer, username, text string) {
	evt := s.expectEvent(p, map[string]any{"type": "message", "username": username, "text": text})
	stamp, ok := evt["timestamp"].(string)
	s.Require().True(ok)
	_, err := time.Parse(time.RFC3339Nano, stamp)
	s.Require().NoError(err)
}

func (s *RelaySuite) TestThreePeerScenario() {
	t := s.T()
	peers := s.connect(3)
	c1, c2, c3 := peers[0], peers[1], peers[2]

	testhelpers.Step(t, s.cfg, "C1 announces Alice")
	s.Require().NoError(c1.Announce("Alice"))
	s.expectUserCount(1, c1, c2, c3)

	testhelpers.Step(t, s.cfg, "C2 announces Bob")
	s.Require().NoError(c2.Announce("Bob"))
	s.expectUserCount(2, c1, c2, c3)

	testhelpers.Step(t, s.cfg, "C1 starts typing")
	s.Require().NoError(c1.Typing(true))
	for _, p := range []*testhelpers.Peer{c2, c3} {
		s.expectEvent(p, map[string]any{"type": "typing", "isTyping": true, "username": "Alice"})
	}
	s.expectSilence(c1)

	testhelpers.Step(t, s.cfg, "C3 chats before announcing")
	s.Require().NoError(c3.Say("hello"))
	s.expectSilence(c1, c2, c3)

	testhelpers.Step(t, s.cfg, "C3 announces Carol")
	s.Require().NoError(c3.Announce("Carol"))
	s.expectUserCount(3, c1, c2, c3)

	testhelpers.Step(t, s.cfg, "C3 chats")
	s.Require().NoError(c3.Say("hello"))
	for _, p := range peers {
		s.expectChat(p, "Carol", "hello")
	}
	s.Equal(3, s.relay.Registry().Size())
}

func (s *RelaySuite) TestDisconnectBroadcastsPostRemovalCount() {
	peers := s.connect(3)
	c1, c2, c3 := peers[0], peers[1], peers[2]

	s.Require().NoError(c1.Announce("Alice"))
	s.expectUserCount(1, c1, c2, c3)
	s.Require().NoError(c2.Announce("Bob"))
	s.expectUserCount(2, c1, c2, c3)

	// When Bob leaves
	s.Require().NoError(c2.Close())

	// Then the remaining peers see exactly one count of 1
	s.expectUserCount(1, c1, c3)
	s.expectSilence(c1, c3)
	s.Eventually(func() bool { return s.relay.Registry().Size() == 1 }, time.Second, 5*time.Millisecond)
}

func (s *RelaySuite) TestUnannouncedDisconnectStillBroadcastsCount() {
	peers := s.connect(2)
	alice, stranger := peers[0], peers[1]

	s.Require().NoError(alice.Announce("Alice"))
	s.expectUserCount(1, alice, stranger)

	s.Require().NoError(stranger.Close())

	s.expectUserCount(1, alice)
}

func (s *RelaySuite) TestMalformedPayloadKeepsConnectionOpen() {
	peers := s.connect(2)
	alice, bob := peers[0], peers[1]

	s.Require().NoError(alice.Announce("Alice"))
	s.expectUserCount(1, alice, bob)

	// When Alice sends garbage
	s.Require().NoError(alice.SendRaw("definitely not json"))
	s.Require().NoError(alice.SendRaw(`{"type":"typing"}`))

	// Then nobody hears anything and the connection survives
	s.expectSilence(alice, bob)
	s.False(alice.Closed(50 * time.Millisecond))

	// And a following valid event is relayed
	s.Require().NoError(alice.Say("still here"))
	s.expectChat(alice, "Alice", "still here")
	s.expectChat(bob, "Alice", "still here")
}

func (s *RelaySuite) TestReannounceRenamesSender() {
	peers := s.connect(2)
	alice, bob := peers[0], peers[1]

	s.Require().NoError(alice.Announce("Alice"))
	s.expectUserCount(1, alice, bob)
	s.Require().NoError(alice.Announce("Alicia"))
	s.expectUserCount(1, alice, bob)

	s.Require().NoError(alice.Say("new name"))
	s.expectChat(bob, "Alicia", "new name")
	s.expectChat(alice, "Alicia", "new name")
}

func (s *RelaySuite) TestStrictModeDropsUnknownTypes() {
	s.TearDownTest()
	cfg := server.NewConfig()
	cfg.StrictEventTypes = true
	s.startRelay(cfg)

	peers := s.connect(2)
	alice, bob := peers[0], peers[1]
	s.Require().NoError(alice.Announce("Alice"))
	s.expectUserCount(1, alice, bob)

	s.Require().NoError(alice.SendJSON(map[string]any{"type": "shout", "text": "HEY"}))
	s.expectSilence(alice, bob)
}

func (s *RelaySuite) TestShutdownClosesConnections() {
	peers := s.connect(2)

	s.Require().NoError(s.relay.Shutdown(2 * time.Second))

	for _, p := range peers {
		s.True(p.Closed(2 * time.Second))
	}
}
