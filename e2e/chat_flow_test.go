package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Prateek-02/ChatterHub/auth"
	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/moderation"
	"github.com/Prateek-02/ChatterHub/observability"
	"github.com/Prateek-02/ChatterHub/presence"
	"github.com/Prateek-02/ChatterHub/realtime"
	"github.com/Prateek-02/ChatterHub/repositories"
	"github.com/Prateek-02/ChatterHub/services"

	chathttp "github.com/Prateek-02/ChatterHub/infrastructure/http"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "e2e-test-secret"

type wsFrame struct {
	Event string          `json:"event"`
	AckID *int64          `json:"ackId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type account struct {
	ID    string
	Token string
}

type chatFlowSuite struct {
	suite.Suite

	db     *badger.DB
	index  *repositories.SearchIndex
	server *httptest.Server

	// testT is the test method's T. Inside s.Run the suite swaps s.T()
	// to the subtest's T, so cleanups registered there would fire when
	// the subtest ends instead of when the whole test does.
	testT *testing.T
}

func TestChatFlowSuite(t *testing.T) {
	suite.Run(t, &chatFlowSuite{})
}

func (s *chatFlowSuite) SetupTest() {
	s.testT = s.T()
	logger := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db

	index, err := repositories.NewSearchIndex(s.T().TempDir(), logger)
	s.Require().NoError(err)
	s.index = index

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	s.Require().NoError(err)

	userRepo := repositories.NewUserRepository(db)
	messageRepo := repositories.NewMessageRepository(db, logger, nil)

	verifier, err := auth.NewJWTVerifier([]byte(testJWTSecret), userRepo, 64)
	s.Require().NoError(err)

	authService := services.NewAuthService(userRepo, []byte(testJWTSecret), time.Hour)
	chatService := services.NewChatService(messageRepo, userRepo, index, moderator, 500, logger)
	userService := services.NewUserService(userRepo)

	registry := presence.NewRegistry()
	router := realtime.NewRouter()
	manager := realtime.NewManager(verifier, registry, router, chatService, userRepo,
		8, time.Second, logger)

	monitor := observability.NewMonitor(logger, func() int {
		return len(registry.DistinctOnlineUsers())
	})

	s.server = httptest.NewServer(chathttp.NewRouter(chathttp.RouterDeps{
		Verifier:    verifier,
		AuthService: authService,
		UserService: userService,
		ChatService: chatService,
		Realtime:    manager,
		Monitor:     monitor,
		Log:         logger,
	}))
}

func (s *chatFlowSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.index.Close())
	s.Require().NoError(s.db.Close())
}

func (s *chatFlowSuite) register(username string) account {
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"Secret123456"}`,
		username, username)
	resp, err := http.Post(s.server.URL+"/api/auth/register", "application/json",
		strings.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var payload struct {
		Token string            `json:"token"`
		User  domain.PublicUser `json:"user"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	return account{ID: payload.User.ID, Token: payload.Token}
}

func (s *chatFlowSuite) dial(token string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.testT.Cleanup(func() { conn.Close() })
	return conn
}

// waitFor reads frames until the wanted event arrives, skipping the
// presence churn that interleaves with everything else.
func (s *chatFlowSuite) waitFor(conn *websocket.Conn, event string) wsFrame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for {
		var frame wsFrame
		s.Require().NoError(conn.ReadJSON(&frame))
		if frame.Event == event {
			return frame
		}
	}
}

// waitForPresence reads presence broadcasts until the online set matches.
func (s *chatFlowSuite) waitForPresence(conn *websocket.Conn, want []string) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for {
		frame := s.waitFor(conn, "users:update")
		var online []string
		s.Require().NoError(json.Unmarshal(frame.Data, &online))
		if len(online) == len(want) {
			s.Require().ElementsMatch(want, online)
			return
		}
	}
}

func (s *chatFlowSuite) get(path, token string, out any) int {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *chatFlowSuite) TestFullChatFlow() {
	var alice, bob account
	var aliceConn, bobConn *websocket.Conn

	s.Run("Step 1: Register two accounts", func() {
		alice = s.register("alice")
		bob = s.register("bob")
		s.Require().NotEqual(alice.ID, bob.ID)
	})

	s.Run("Step 2: Connect both and observe presence", func() {
		aliceConn = s.dial(alice.Token)
		s.waitForPresence(aliceConn, []string{alice.ID})

		bobConn = s.dial(bob.Token)
		s.waitForPresence(aliceConn, []string{alice.ID, bob.ID})
		s.waitForPresence(bobConn, []string{alice.ID, bob.ID})
	})

	s.Run("Step 3: Send a message and receive it on both sides", func() {
		send := map[string]any{
			"event": "chatMessage",
			"ackId": 1,
			"data":  map[string]string{"receiverId": bob.ID, "text": "hello bob"},
		}
		s.Require().NoError(aliceConn.WriteJSON(send))

		// The sender echo lands before the ack on alice's wire.
		for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
			frame := s.waitFor(conn, "chatMessage")
			var event struct {
				SenderUsername   string `json:"senderUsername"`
				ReceiverUsername string `json:"receiverUsername"`
				Text             string `json:"text"`
			}
			s.Require().NoError(json.Unmarshal(frame.Data, &event))
			s.Require().Equal("alice", event.SenderUsername)
			s.Require().Equal("bob", event.ReceiverUsername)
			s.Require().Equal("hello bob", event.Text)
		}

		ackFrame := s.waitFor(aliceConn, "ack")
		s.Require().NotNil(ackFrame.AckID)
		s.Require().EqualValues(1, *ackFrame.AckID)
		var ack struct {
			Status string `json:"status"`
		}
		s.Require().NoError(json.Unmarshal(ackFrame.Data, &ack))
		s.Require().Equal("ok", ack.Status)
	})

	s.Run("Step 4: Reject an invalid send with an error ack", func() {
		send := map[string]any{
			"event": "chatMessage",
			"ackId": 2,
			"data":  map[string]string{"receiverId": bob.ID, "text": "   "},
		}
		s.Require().NoError(aliceConn.WriteJSON(send))

		ackFrame := s.waitFor(aliceConn, "ack")
		var ack struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		s.Require().NoError(json.Unmarshal(ackFrame.Data, &ack))
		s.Require().Equal("error", ack.Status)
		s.Require().Equal("Receiver and text required", ack.Message)
	})

	s.Run("Step 5: Relay a typing pulse", func() {
		send := map[string]any{"event": "typing", "data": "bob"}
		s.Require().NoError(aliceConn.WriteJSON(send))

		frame := s.waitFor(bobConn, "userTyping")
		var username string
		s.Require().NoError(json.Unmarshal(frame.Data, &username))
		s.Require().Equal("alice", username)
	})

	s.Run("Step 6: Fetch the durable history over REST", func() {
		var history []services.PopulatedMessage
		status := s.get("/api/messages/"+bob.ID, alice.Token, &history)
		s.Require().Equal(http.StatusOK, status)
		s.Require().Len(history, 1)
		s.Require().Equal("hello bob", history[0].Text)

		// The other side sees the identical conversation.
		var mirrored []services.PopulatedMessage
		status = s.get("/api/messages/"+alice.ID, bob.Token, &mirrored)
		s.Require().Equal(http.StatusOK, status)
		s.Require().Equal(history, mirrored)
	})

	s.Run("Step 7: Search the conversation", func() {
		var results []services.PopulatedMessage
		status := s.get("/api/messages/search?q=hello", alice.Token, &results)
		s.Require().Equal(http.StatusOK, status)
		s.Require().Len(results, 1)
		s.Require().Equal("hello bob", results[0].Text)
	})

	s.Run("Step 8: List contacts and the online snapshot", func() {
		var contacts []domain.PublicUser
		status := s.get("/api/users", alice.Token, &contacts)
		s.Require().Equal(http.StatusOK, status)
		s.Require().Len(contacts, 1)
		s.Require().Equal("bob", contacts[0].Username)

		var online []string
		status = s.get("/api/users/online", alice.Token, &online)
		s.Require().Equal(http.StatusOK, status)
		s.Require().ElementsMatch([]string{alice.ID, bob.ID}, online)
	})

	s.Run("Step 9: Disconnect and observe the presence update", func() {
		s.Require().NoError(bobConn.Close())
		s.waitForPresence(aliceConn, []string{alice.ID})
	})
}

func (s *chatFlowSuite) TestRejectedHandshakes() {
	base := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"

	for _, tc := range []struct {
		name string
		url  string
	}{
		{"missing token", base},
		{"garbage token", base + "?token=garbage"},
	} {
		s.Run(tc.name, func() {
			conn, _, err := websocket.DefaultDialer.Dial(tc.url, nil)
			s.Require().NoError(err) // the upgrade succeeds, the close follows
			defer conn.Close()

			s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
			_, _, err = conn.ReadMessage()
			var closeErr *websocket.CloseError
			s.Require().ErrorAs(err, &closeErr)
			s.Require().Equal(4401, closeErr.Code)
		})
	}
}

func (s *chatFlowSuite) TestModerationOverREST() {
	alice := s.register("alice")
	bob := s.register("bob")

	body, err := json.Marshal(map[string]string{
		"recipientId": bob.ID,
		"text":        "what a badger move",
	})
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/messages", bytes.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var message services.PopulatedMessage
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&message))
	s.Require().Equal("what a ****** move", message.Text)
}

func (s *chatFlowSuite) TestHealthEndpoint() {
	resp, err := http.Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var snapshot observability.HealthSnapshot
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&snapshot))
	s.Require().Equal("ok", snapshot.Status)
}
