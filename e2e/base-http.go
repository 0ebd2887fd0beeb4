package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"chatdesk/api"
	"chatdesk/auth"
	"chatdesk/hub"
	"chatdesk/observability"
	"chatdesk/projection"
	"chatdesk/repositories"
	"chatdesk/runtime"
	"chatdesk/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/mama165/sdk-go/logs"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/suite"
)

// BaseHTTPSuite boots the whole service in-process: real storage, real
// deferred-reply scheduler, real hub, served over a test HTTP listener.
// Scenarios talk to it exactly the way the dashboard frontend does.
type BaseHTTPSuite struct {
	suite.Suite

	Config Config
	Server *httptest.Server
	Token  string
	Hub    *hub.Hub

	db   *badger.DB
	pool *ants.Pool
}

func (s *BaseHTTPSuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	s.Config = cfg

	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	opts := badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR)
	s.db, err = badger.Open(opts)
	s.Require().NoError(err)

	messages := repositories.NewMessageRepository(s.db, log)
	contacts := repositories.NewContactRepository(s.db, log)
	campaigns := repositories.NewCampaignRepository(s.db, log)
	templates := repositories.NewTemplateRepository(s.db, log)

	s.Hub = hub.NewHub(log)
	s.pool, err = ants.NewPool(16)
	s.Require().NoError(err)

	scheduler := runtime.NewReplyScheduler(log, messages, s.Hub, s.pool, cfg.ReplyDelay)
	dispatcher := runtime.NewCampaignDispatcher(log, messages, contacts, campaigns, scheduler)
	projector := projection.NewSessionProjector(log, contacts, messages)
	chatService := services.NewChatService(log, messages, projector, scheduler)

	monitor, err := observability.NewMonitor()
	s.Require().NoError(err)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	s.Token, err = verifier.GenerateToken("e2e-operator", "e2e@example.com", time.Hour)
	s.Require().NoError(err)

	handler := api.NewHandler(log, chatService, dispatcher, contacts, campaigns, templates, monitor)
	wsHandler := api.NewWSHandler(log, s.Hub)

	router := chi.NewRouter()
	api.RegisterRoutes(router, handler, wsHandler, verifier)
	s.Server = httptest.NewServer(router)
}

func (s *BaseHTTPSuite) TearDownSuite() {
	if s.Server != nil {
		s.Server.Close()
	}
	if s.pool != nil {
		s.pool.Release()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// DoJSON performs an authenticated request and decodes the response
// body into out when out is non nil.
func (s *BaseHTTPSuite) DoJSON(method, path string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if out != nil && resp.StatusCode == http.StatusOK {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

// WSURL converts the test server URL to the websocket endpoint for a client id.
func (s *BaseHTTPSuite) WSURL(clientID string) string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/api/ws/" + clientID
}
