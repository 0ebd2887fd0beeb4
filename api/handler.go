package api

import (
	"chatdesk/contract"
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"chatdesk/observability"
	"chatdesk/services"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// ContactStore is the contact surface the handlers need.
type ContactStore interface {
	contract.ContactDirectory
	Create(c domain.Contact) (domain.Contact, error)
	Delete(id string) error
}

// CampaignAdmin is the campaign CRUD surface next to the core send path.
type CampaignAdmin interface {
	Create(c domain.Campaign) (domain.Campaign, error)
	List() ([]domain.Campaign, error)
}

type Handler struct {
	log       *slog.Logger
	chat      services.IChatService
	sender    contract.CampaignSender
	contacts  ContactStore
	campaigns CampaignAdmin
	templates contract.TemplateStore
	monitor   *observability.Monitor
	validate  *validator.Validate
}

func NewHandler(log *slog.Logger, chat services.IChatService, sender contract.CampaignSender,
	contacts ContactStore, campaigns CampaignAdmin, templates contract.TemplateStore,
	monitor *observability.Monitor) *Handler {
	return &Handler{
		log:       log,
		chat:      chat,
		sender:    sender,
		contacts:  contacts,
		campaigns: campaigns,
		templates: templates,
		monitor:   monitor,
		validate:  validator.New(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrTransientIO):
		h.log.Error("Storage failure on request path", "error", err)
		http.Error(w, "storage temporarily unavailable", http.StatusBadGateway)
	default:
		h.log.Error("Unhandled request error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// --- chat ---

func (h *Handler) ListChats(w http.ResponseWriter, _ *http.Request) {
	sessions, err := h.chat.Sessions()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.Messages(chi.URLParam(r, "chatID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type createMessageRequest struct {
	SenderID string `json:"senderId" validate:"required"`
	Text     string `json:"text" validate:"required"`
	Type     string `json:"type"`
	MediaURL string `json:"mediaUrl"`
}

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var payload createMessageRequest
	if !h.decode(w, r, &payload) {
		return
	}

	stored, err := h.chat.SendMessage(services.SendMessageCommand{
		ChatID:   chi.URLParam(r, "chatID"),
		SenderID: payload.SenderID,
		Text:     payload.Text,
		Type:     domain.MessageType(payload.Type),
		MediaURL: payload.MediaURL,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

type sendRequest struct {
	ChatID string `json:"chatId" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// Send is the operator shorthand: sender fixed to the operator token,
// response acknowledges queueing rather than echoing the message.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var payload sendRequest
	if !h.decode(w, r, &payload) {
		return
	}

	stored, err := h.chat.SendMessage(services.SendMessageCommand{
		ChatID:   payload.ChatID,
		SenderID: domain.OperatorID,
		Text:     payload.Text,
		Type:     domain.TypeText,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "queued",
		"messageId": stored.ID,
	})
}

// --- campaigns ---

func (h *Handler) ListCampaigns(w http.ResponseWriter, _ *http.Request) {
	campaigns, err := h.campaigns.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var campaign domain.Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	created, err := h.campaigns.Create(campaign)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *Handler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	sent, err := h.sender.SendCampaign(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "completed",
		"sentCount": sent,
	})
}

// --- contacts ---

func (h *Handler) ListContacts(w http.ResponseWriter, _ *http.Request) {
	contacts, err := h.contacts.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var contact domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	created, err := h.contacts.Create(contact)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Delete(chi.URLParam(r, "contactID")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- templates ---

func (h *Handler) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	templates, err := h.templates.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var template domain.Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	saved, err := h.templates.Save(template)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.Delete(chi.URLParam(r, "templateID")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- integrations ---

type connectSheetRequest struct {
	SheetURL string `json:"sheetUrl" validate:"required,url"`
}

// ConnectSheet is the mock sheet hookup kept from the original system.
func (h *Handler) ConnectSheet(w http.ResponseWriter, r *http.Request) {
	var payload connectSheetRequest
	if !h.decode(w, r, &payload) {
		return
	}
	if !strings.Contains(payload.SheetURL, "docs.google.com/spreadsheets") {
		http.Error(w, "invalid Google Sheet URL", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Connected to Google Sheet successfully",
		"sheetId":       "mock-sheet-id-12345",
		"columnsMapped": []string{"Name", "Phone", "Email"},
	})
}

// --- health ---

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.monitor.Stats()
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
