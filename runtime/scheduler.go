// Package runtime carries the background machinery of the dashboard:
// the deferred-reply scheduler and the campaign dispatcher.
package runtime

import (
	"chatdesk/contract"
	"chatdesk/domain"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
)

// ReplyText is the canned inbound reply standing in for a real
// messaging-provider webhook.
const ReplyText = "That sounds interesting! Tell me more."

// ReplyScheduler simulates the contact side of a conversation: each
// ScheduleReply call fires one delayed inbound message through the
// ledger and broadcasts the stored result.
//
// Fire-and-forget by contract: callers get no outcome signal, failures
// are logged locally, and there is no dedup, no retry, and no
// cancellation. N calls for the same chat produce N independent fires.
type ReplyScheduler struct {
	log    *slog.Logger
	ledger contract.Ledger
	hub    contract.Broadcaster
	pool   *ants.Pool
	delay  time.Duration

	// cancel is unused: once scheduled, a reply fires unless the
	// process terminates first.
	cancel context.CancelFunc
}

func NewReplyScheduler(log *slog.Logger, ledger contract.Ledger, hub contract.Broadcaster,
	pool *ants.Pool, delay time.Duration) *ReplyScheduler {
	return &ReplyScheduler{log: log, ledger: ledger, hub: hub, pool: pool, delay: delay}
}

// ScheduleReply arms a timer and returns immediately. The pool comes
// into play only when the timer fires, so a worker is occupied for the
// duration of one fire, not for the whole delay window; a burst of
// schedules larger than the pool never blocks the caller. A pool
// rejection at fire time is logged and swallowed like every other
// failure, since the contract offers no signal to the caller.
func (s *ReplyScheduler) ScheduleReply(chatID string) {
	time.AfterFunc(s.delay, func() {
		if err := s.pool.Submit(func() { s.fire(chatID) }); err != nil {
			s.log.Warn("Dropping scheduled reply, pool unavailable", "chat_id", chatID, "error", err)
		}
	})
}

// fire builds the simulated inbound message, appends it, and broadcasts
// the stored copy with id and timestamp materialized.
func (s *ReplyScheduler) fire(chatID string) {
	stored, err := s.ledger.Append(domain.Message{
		ChatID:    chatID,
		SenderID:  chatID, // the reply comes FROM the contact
		ContactID: chatID,
		Text:      ReplyText,
		Status:    domain.StatusDelivered,
		Type:      domain.TypeText,
	})
	if err != nil {
		s.log.Error("Simulated reply lost, ledger append failed", "chat_id", chatID, "error", err)
		return
	}

	s.hub.Broadcast(domain.NewMessageEvent(stored))
	s.log.Debug(fmt.Sprintf("Simulated reply sent to chat %s", chatID))
}
