package runtime

import (
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"chatdesk/mocks"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestPool(t *testing.T) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(8)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func TestScheduleReply_Fires_After_Delay(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	ledger := mocks.NewMockLedger(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)

	stored := domain.Message{
		ID: "m1", ChatID: "alice", SenderID: "alice",
		Text: ReplyText, Status: domain.StatusDelivered, Type: domain.TypeText,
		Timestamp: time.Now().UTC(),
	}

	appended := make(chan domain.Message, 1)
	ledger.EXPECT().Append(gomock.Any()).DoAndReturn(func(msg domain.Message) (domain.Message, error) {
		appended <- msg
		return stored, nil
	}).Times(1)

	broadcasted := make(chan domain.Event, 1)
	broadcaster.EXPECT().Broadcast(gomock.Any()).Do(func(evt domain.Event) {
		broadcasted <- evt
	}).Times(1)

	scheduler := NewReplyScheduler(log, ledger, broadcaster, newTestPool(t), 20*time.Millisecond)

	scheduler.ScheduleReply("alice")

	select {
	case msg := <-appended:
		req.Equal("alice", msg.ChatID)
		req.Equal("alice", msg.SenderID) // the reply comes from the contact
		req.Equal(ReplyText, msg.Text)
		req.Equal(domain.StatusDelivered, msg.Status)
		req.Equal(domain.TypeText, msg.Type)
	case <-time.After(time.Second):
		req.Fail("scheduled reply never fired")
	}

	select {
	case evt := <-broadcasted:
		req.Equal("message", evt.Type)
		req.Equal(stored, evt.Data) // broadcast carries the stored copy
	case <-time.After(time.Second):
		req.Fail("stored reply was never broadcast")
	}
}

func TestScheduleReply_N_Calls_Produce_N_Fires(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	ledger := mocks.NewMockLedger(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)

	const n = 3
	var wg sync.WaitGroup
	wg.Add(n)
	ledger.EXPECT().Append(gomock.Any()).DoAndReturn(func(msg domain.Message) (domain.Message, error) {
		defer wg.Done()
		return msg, nil
	}).Times(n)
	broadcaster.EXPECT().Broadcast(gomock.Any()).Times(n)

	scheduler := NewReplyScheduler(log, ledger, broadcaster, newTestPool(t), 5*time.Millisecond)

	// No dedup: same chat id, three independent fires.
	for i := 0; i < n; i++ {
		scheduler.ScheduleReply("alice")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("expected three independent fires")
	}
}

func TestScheduleReply_Does_Not_Block_On_Saturated_Pool(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	ledger := mocks.NewMockLedger(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)

	var wg sync.WaitGroup
	wg.Add(2)
	ledger.EXPECT().Append(gomock.Any()).DoAndReturn(func(msg domain.Message) (domain.Message, error) {
		defer wg.Done()
		return msg, nil
	}).Times(2)
	broadcaster.EXPECT().Broadcast(gomock.Any()).Times(2)

	pool, err := ants.NewPool(1)
	req.NoError(err)
	t.Cleanup(pool.Release)

	delay := 300 * time.Millisecond
	scheduler := NewReplyScheduler(log, ledger, broadcaster, pool, delay)

	// A single worker cannot carry two delay windows at once; scheduling
	// must still return without waiting for one to free up.
	start := time.Now()
	scheduler.ScheduleReply("alice")
	scheduler.ScheduleReply("bob")
	req.Less(time.Since(start), delay/2)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("both scheduled replies should fire")
	}
}

func TestScheduleReply_Swallows_Ledger_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	ledger := mocks.NewMockLedger(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)

	failed := make(chan struct{})
	ledger.EXPECT().Append(gomock.Any()).DoAndReturn(func(domain.Message) (domain.Message, error) {
		close(failed)
		return domain.Message{}, apperrors.ErrTransientIO
	}).Times(1)
	// No broadcast expectation: a lost write must not publish anything.

	scheduler := NewReplyScheduler(log, ledger, broadcaster, newTestPool(t), 5*time.Millisecond)
	scheduler.ScheduleReply("alice")

	select {
	case <-failed:
		// The failure stays local: nothing to assert on the caller side,
		// which is the point of the fire-and-forget contract.
		time.Sleep(20 * time.Millisecond)
	case <-time.After(time.Second):
		req.Fail("scheduled reply never attempted the append")
	}
}
