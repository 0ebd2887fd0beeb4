// Package projection builds derived read models over the ledger.
// Projections are recomputed on demand and never persisted.
package projection

import (
	"chatdesk/contract"
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// SessionProjector joins the contact directory with the ledger to
// produce the dashboard's chat-session list. Every call issues one
// latest-message lookup per contact; fine at dashboard scale, not
// designed for high contact cardinality.
type SessionProjector struct {
	log      *slog.Logger
	contacts contract.ContactDirectory
	ledger   contract.Ledger
}

func NewSessionProjector(log *slog.Logger, contacts contract.ContactDirectory, ledger contract.Ledger) *SessionProjector {
	return &SessionProjector{log: log, contacts: contacts, ledger: ledger}
}

// ListSessions assembles one session per contact, newest conversation
// first. Sessions without any message sort after all sessions that have
// one, keeping the directory's insertion order among themselves; a
// missing timestamp is never compared against a present one.
func (p *SessionProjector) ListSessions() ([]domain.ChatSession, error) {
	contacts, err := p.contacts.List()
	if err != nil {
		return nil, err
	}

	var withMessage, withoutMessage []domain.ChatSession
	for _, contact := range contacts {
		last, err := p.ledger.LatestByChat(contact.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Contact disappeared mid-computation; skip it rather
				// than failing the whole listing.
				p.log.Debug(fmt.Sprintf("Skipping vanished contact %s", contact.ID))
				continue
			}
			return nil, err
		}

		session := domain.ChatSession{
			ID:          contact.ID,
			ContactID:   contact.ID,
			Contact:     contact,
			LastMessage: last,
			UnreadCount: domain.Unread(last),
			Status:      "active",
		}
		if last != nil {
			withMessage = append(withMessage, session)
		} else {
			withoutMessage = append(withoutMessage, session)
		}
	}

	sort.SliceStable(withMessage, func(i, j int) bool {
		return withMessage[i].LastMessage.Timestamp.After(withMessage[j].LastMessage.Timestamp)
	})

	return append(withMessage, withoutMessage...), nil
}
