//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chatdesk/domain"
	"context"
	"reflect"
)

// Ledger is the append-only per-conversation message log.
// Append materializes the id and timestamp when absent; timestamps never
// go backward within one chat id, ties broken by append order.
type Ledger interface {
	Append(msg domain.Message) (domain.Message, error)
	MessagesByChat(chatID string) ([]domain.Message, error)
	LatestByChat(chatID string) (*domain.Message, error)
}

// ContactDirectory is the external contact collaborator. List preserves
// insertion order; the session projector's tie-break depends on it.
type ContactDirectory interface {
	Get(id string) (domain.Contact, error)
	List() ([]domain.Contact, error)
}

type CampaignStore interface {
	Get(id string) (domain.Campaign, error)
	Save(c domain.Campaign) error
	List() ([]domain.Campaign, error)
}

type TemplateStore interface {
	Save(t domain.Template) (domain.Template, error)
	List() ([]domain.Template, error)
	Delete(id string) error
}

// Conn is one live subscriber connection held by the hub.
type Conn interface {
	SendEvent(evt domain.Event) error
}

// Broadcaster fans an event out to every registered connection,
// best effort per connection.
type Broadcaster interface {
	Broadcast(evt domain.Event)
}

// ReplyScheduler schedules a simulated inbound reply after a fixed
// delay. Fire-and-forget: the caller gets no outcome signal.
type ReplyScheduler interface {
	ScheduleReply(chatID string)
}

// CampaignSender drives a campaign fan-out and returns how many
// messages were actually written.
type CampaignSender interface {
	SendCampaign(ctx context.Context, campaignID string) (int, error)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
