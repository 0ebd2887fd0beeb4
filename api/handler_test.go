package api

import (
	"bytes"
	"chatdesk/auth"
	"chatdesk/domain"
	"chatdesk/hub"
	"chatdesk/mocks"
	"chatdesk/observability"
	"chatdesk/projection"
	"chatdesk/repositories"
	"chatdesk/runtime"
	"chatdesk/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// apiFixture wires the real storage, projection and dispatch layers
// behind the router. Only the reply scheduler is mocked, so requests
// stay deterministic.
type apiFixture struct {
	router    *chi.Mux
	token     string
	scheduler *mocks.MockReplyScheduler
	contacts  *repositories.ContactRepository
	campaigns *repositories.CampaignRepository
	hub       *hub.Hub
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	scheduler := mocks.NewMockReplyScheduler(ctrl)

	messages := repositories.NewMessageRepository(db, log)
	contacts := repositories.NewContactRepository(db, log)
	campaigns := repositories.NewCampaignRepository(db, log)
	templates := repositories.NewTemplateRepository(db, log)

	projector := projection.NewSessionProjector(log, contacts, messages)
	chatService := services.NewChatService(log, messages, projector, scheduler)
	dispatcher := runtime.NewCampaignDispatcher(log, messages, contacts, campaigns, scheduler)

	monitor, err := observability.NewMonitor()
	req.NoError(err)

	liveHub := hub.NewHub(log)
	verifier := auth.NewVerifier("test-secret")
	token, err := verifier.GenerateToken("operator-1", "ops@example.com", time.Hour)
	req.NoError(err)

	handler := NewHandler(log, chatService, dispatcher, contacts, campaigns, templates, monitor)
	wsHandler := NewWSHandler(log, liveHub)

	router := chi.NewRouter()
	RegisterRoutes(router, handler, wsHandler, verifier)

	return apiFixture{
		router:    router,
		token:     token,
		scheduler: scheduler,
		contacts:  contacts,
		campaigns: campaigns,
		hub:       liveHub,
	}
}

func (f apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func TestAPI_Requires_Auth(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats", nil))
	req.Equal(http.StatusUnauthorized, rec.Code)

	// The health probe stays public
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	req.Equal(http.StatusOK, rec.Code)
}

func TestSend_Queues_Operator_Message(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	// The operator shorthand schedules exactly one simulated reply
	f.scheduler.EXPECT().ScheduleReply("alice").Times(1)

	rec := f.do(t, http.MethodPost, "/api/send", map[string]string{
		"chatId": "alice",
		"text":   "Hello Alice!",
	})
	req.Equal(http.StatusOK, rec.Code)

	var ack map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &ack))
	req.Equal("queued", ack["status"])
	req.NotEmpty(ack["messageId"])

	rec = f.do(t, http.MethodGet, "/api/chats/alice/messages", nil)
	req.Equal(http.StatusOK, rec.Code)

	var messages []domain.Message
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &messages))
	req.Len(messages, 1)
	req.Equal(domain.OperatorID, messages[0].SenderID)
	req.Equal("Hello Alice!", messages[0].Text)
	req.Equal(domain.StatusSent, messages[0].Status)
}

func TestSend_Missing_Text_Rejected(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/send", map[string]string{"chatId": "alice"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestCreateMessage_Contact_Sender(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	// A contact-sent message does not schedule a reply: no expectation set
	rec := f.do(t, http.MethodPost, "/api/chats/alice/messages", map[string]string{
		"senderId": "alice",
		"text":     "Is this still available?",
	})
	req.Equal(http.StatusOK, rec.Code)

	var stored domain.Message
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &stored))
	req.Equal("alice", stored.ChatID)
	req.Equal("alice", stored.SenderID)
	req.NotEmpty(stored.ID)
}

func TestListChats_Ordering_And_Unread(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	_, err := f.contacts.Create(domain.Contact{ID: "alice", Name: "Alice", Phone: "+100"})
	req.NoError(err)
	_, err = f.contacts.Create(domain.Contact{ID: "bob", Name: "Bob", Phone: "+200"})
	req.NoError(err)

	f.scheduler.EXPECT().ScheduleReply("bob").Times(1)
	rec := f.do(t, http.MethodPost, "/api/send", map[string]string{
		"chatId": "bob",
		"text":   "Hey Bob",
	})
	req.Equal(http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/chats", nil)
	req.Equal(http.StatusOK, rec.Code)

	var sessions []domain.ChatSession
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &sessions))
	req.Len(sessions, 2)

	// Bob has a message so his session leads; Alice follows in
	// directory insertion order with no last message.
	req.Equal("bob", sessions[0].ContactID)
	req.NotNil(sessions[0].LastMessage)
	req.Equal(0, sessions[0].UnreadCount)
	req.Equal("alice", sessions[1].ContactID)
	req.Nil(sessions[1].LastMessage)
}

func TestCampaign_Send_Flow(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/campaigns/nope/send", nil)
	req.Equal(http.StatusNotFound, rec.Code)

	empty, err := f.campaigns.Create(domain.Campaign{Name: "Empty"})
	req.NoError(err)
	rec = f.do(t, http.MethodPost, "/api/campaigns/"+empty.ID+"/send", nil)
	req.Equal(http.StatusBadRequest, rec.Code)

	_, err = f.contacts.Create(domain.Contact{ID: "alice", Name: "Alice", Phone: "+100"})
	req.NoError(err)
	_, err = f.contacts.Create(domain.Contact{ID: "bob", Name: "Bob", Phone: "+200"})
	req.NoError(err)
	campaign, err := f.campaigns.Create(domain.Campaign{
		Name:        "Summer Sale",
		AudienceIDs: []string{"alice", "bob"},
	})
	req.NoError(err)

	f.scheduler.EXPECT().ScheduleReply("alice").Times(1)
	f.scheduler.EXPECT().ScheduleReply("bob").Times(1)

	rec = f.do(t, http.MethodPost, "/api/campaigns/"+campaign.ID+"/send", nil)
	req.Equal(http.StatusOK, rec.Code)

	var ack map[string]any
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &ack))
	req.Equal("completed", ack["status"])
	req.EqualValues(2, ack["sentCount"])

	updated, err := f.campaigns.Get(campaign.ID)
	req.NoError(err)
	req.Equal(domain.CampaignCompleted, updated.Status)
	req.Equal(2, updated.Stats.Sent)
}

func TestContacts_Create_List_Delete(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/contacts", map[string]any{
		"name":  "Alice",
		"phone": "+100",
		"tags":  []string{"vip"},
	})
	req.Equal(http.StatusOK, rec.Code)

	var created domain.Contact
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	req.NotEmpty(created.ID)

	rec = f.do(t, http.MethodGet, "/api/contacts", nil)
	req.Equal(http.StatusOK, rec.Code)
	var listed []domain.Contact
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &listed))
	req.Len(listed, 1)

	rec = f.do(t, http.MethodDelete, "/api/contacts/"+created.ID, nil)
	req.Equal(http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/contacts/"+created.ID, nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestTemplates_Create_List_Delete(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/templates", map[string]string{
		"name":    "Welcome",
		"content": "Hi {{name}}, welcome aboard!",
	})
	req.Equal(http.StatusOK, rec.Code)

	var created domain.Template
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	req.NotEmpty(created.ID)
	req.Equal("en", created.Language)

	rec = f.do(t, http.MethodGet, "/api/templates", nil)
	req.Equal(http.StatusOK, rec.Code)
	var listed []domain.Template
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &listed))
	req.Len(listed, 1)

	rec = f.do(t, http.MethodDelete, "/api/templates/"+created.ID, nil)
	req.Equal(http.StatusOK, rec.Code)
}

func TestConnectSheet(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/integrations/google-sheets/connect", map[string]string{
		"sheetUrl": "https://example.com/not-a-sheet",
	})
	req.Equal(http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/integrations/google-sheets/connect", map[string]string{
		"sheetUrl": "https://docs.google.com/spreadsheets/d/abc123",
	})
	req.Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("success", resp["status"])
}

func TestWebSocket_Receives_Broadcast(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	server := httptest.NewServer(f.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/dash-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.NoError(err)
	defer conn.Close()

	// Wait for the hub registration before broadcasting
	req.Eventually(func() bool { return f.hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	f.hub.Broadcast(domain.NewMessageEvent(domain.Message{
		ID:     "m1",
		ChatID: "alice",
		Text:   "live update",
	}))

	req.NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))
	var evt struct {
		Type string         `json:"type"`
		Data domain.Message `json:"data"`
	}
	req.NoError(conn.ReadJSON(&evt))
	req.Equal("message", evt.Type)
	req.Equal("m1", evt.Data.ID)
	req.Equal("live update", evt.Data.Text)
}
