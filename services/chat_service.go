package services

import (
	"chatdesk/contract"
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"fmt"
	"log/slog"
)

// SendMessageCommand carries one message-creation intent.
type SendMessageCommand struct {
	ChatID   string
	SenderID string
	Text     string
	Type     domain.MessageType
	MediaURL string
}

type IChatService interface {
	SendMessage(cmd SendMessageCommand) (domain.Message, error)
	Messages(chatID string) ([]domain.Message, error)
	Sessions() ([]domain.ChatSession, error)
}

// ChatService orchestrates the conversation operations: ledger writes,
// the derived session view, and the deferred-reply trigger for
// operator-sent messages.
type ChatService struct {
	log       *slog.Logger
	ledger    contract.Ledger
	projector SessionLister
	scheduler contract.ReplyScheduler
}

// SessionLister is what the service needs from the projection layer.
type SessionLister interface {
	ListSessions() ([]domain.ChatSession, error)
}

func NewChatService(log *slog.Logger, ledger contract.Ledger,
	projector SessionLister, scheduler contract.ReplyScheduler) *ChatService {
	return &ChatService{log: log, ledger: ledger, projector: projector, scheduler: scheduler}
}

// SendMessage appends the message and, when it comes from the operator,
// schedules the simulated contact reply. The reply trigger is
// fire-and-forget; the stored message is returned either way.
func (s *ChatService) SendMessage(cmd SendMessageCommand) (domain.Message, error) {
	if cmd.SenderID == "" {
		return domain.Message{}, fmt.Errorf("%w: sender id is required", apperrors.ErrValidation)
	}

	stored, err := s.ledger.Append(domain.Message{
		ChatID:    cmd.ChatID,
		SenderID:  cmd.SenderID,
		ContactID: cmd.ChatID,
		Text:      cmd.Text,
		Type:      cmd.Type,
		MediaURL:  cmd.MediaURL,
		Status:    domain.StatusSent,
	})
	if err != nil {
		return domain.Message{}, err
	}

	if stored.FromOperator() {
		s.scheduler.ScheduleReply(stored.ChatID)
	}
	return stored, nil
}

func (s *ChatService) Messages(chatID string) ([]domain.Message, error) {
	return s.ledger.MessagesByChat(chatID)
}

func (s *ChatService) Sessions() ([]domain.ChatSession, error) {
	return s.projector.ListSessions()
}
