package projection

import (
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"chatdesk/mocks"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestListSessions_Orders_Newest_First_And_Empty_Last(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	contacts := mocks.NewMockContactDirectory(ctrl)
	ledger := mocks.NewMockLedger(ctrl)

	// Directory insertion order: alice, bob, clara, denis.
	contacts.EXPECT().List().Return([]domain.Contact{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "clara", Name: "Clara"},
		{ID: "denis", Name: "Denis"},
	}, nil)

	at := time.Now().UTC()
	ledger.EXPECT().LatestByChat("alice").Return(&domain.Message{
		ChatID: "alice", SenderID: domain.OperatorID, Text: "old", Timestamp: at,
	}, nil)
	ledger.EXPECT().LatestByChat("bob").Return(nil, nil)
	ledger.EXPECT().LatestByChat("clara").Return(&domain.Message{
		ChatID: "clara", SenderID: "clara", Text: "new", Timestamp: at.Add(time.Minute),
	}, nil)
	ledger.EXPECT().LatestByChat("denis").Return(nil, nil)

	sessions, err := NewSessionProjector(log, contacts, ledger).ListSessions()
	req.NoError(err)
	req.Len(sessions, 4)

	// Conversations with a message first, newest first; the rest keep
	// directory insertion order.
	req.Equal("clara", sessions[0].ID)
	req.Equal("alice", sessions[1].ID)
	req.Equal("bob", sessions[2].ID)
	req.Equal("denis", sessions[3].ID)
}

func TestListSessions_Unread_Heuristic(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	contacts := mocks.NewMockContactDirectory(ctrl)
	ledger := mocks.NewMockLedger(ctrl)

	contacts.EXPECT().List().Return([]domain.Contact{
		{ID: "alice"}, {ID: "bob"}, {ID: "clara"},
	}, nil)

	at := time.Now().UTC()
	// Last message from the contact: one unread.
	ledger.EXPECT().LatestByChat("alice").Return(&domain.Message{
		ChatID: "alice", SenderID: "alice", Timestamp: at,
	}, nil)
	// Last message from the operator: read.
	ledger.EXPECT().LatestByChat("bob").Return(&domain.Message{
		ChatID: "bob", SenderID: domain.OperatorID, Timestamp: at.Add(time.Second),
	}, nil)
	// No message at all.
	ledger.EXPECT().LatestByChat("clara").Return(nil, nil)

	sessions, err := NewSessionProjector(log, contacts, ledger).ListSessions()
	req.NoError(err)

	byID := map[string]domain.ChatSession{}
	for _, s := range sessions {
		byID[s.ID] = s
	}
	req.Equal(1, byID["alice"].UnreadCount)
	req.Equal(0, byID["bob"].UnreadCount)
	req.Equal(0, byID["clara"].UnreadCount)
	req.Nil(byID["clara"].LastMessage)
	req.Equal("active", byID["alice"].Status)
}

func TestListSessions_Skips_Vanished_Contact(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	contacts := mocks.NewMockContactDirectory(ctrl)
	ledger := mocks.NewMockLedger(ctrl)

	contacts.EXPECT().List().Return([]domain.Contact{{ID: "ghost"}, {ID: "alice"}}, nil)
	ledger.EXPECT().LatestByChat("ghost").Return(nil,
		fmt.Errorf("%w: contact ghost", apperrors.ErrNotFound))
	ledger.EXPECT().LatestByChat("alice").Return(nil, nil)

	sessions, err := NewSessionProjector(log, contacts, ledger).ListSessions()
	req.NoError(err)
	req.Len(sessions, 1)
	req.Equal("alice", sessions[0].ID)
}
