package repositories

import (
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// MessageRepository is the append-only message ledger backed by BadgerDB.
//
// The key is formatted as "msg:{chat_id}:{timestamp_padded}:{seq_padded}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Preserve append order when two messages carry the same timestamp, via a
//     process-wide 12-digit append sequence as the final segment.
//
// A prefix scan over one chat id is therefore the (chatId, timestamp)-ascending
// index the dashboard queries require.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger

	mu     sync.Mutex
	seq    uint64
	lastTS map[string]int64 // chat id -> last appended unix-nano
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log, lastTS: make(map[string]int64)}
}

// Append stores a new message and returns it with id and timestamp
// materialized. Timestamps never go backward within a chat: a timestamp
// older than the last appended one for the same chat is clamped to it,
// and the append sequence keeps the display order stable.
func (m *MessageRepository) Append(msg domain.Message) (domain.Message, error) {
	if strings.TrimSpace(msg.ChatID) == "" {
		return domain.Message{}, fmt.Errorf("%w: chat id is required", apperrors.ErrValidation)
	}
	// ":" is the key separator; a chat id containing it would corrupt
	// prefix scans for neighbouring chats.
	if strings.Contains(msg.ChatID, ":") {
		return domain.Message{}, fmt.Errorf("%w: chat id must not contain ':'", apperrors.ErrValidation)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return domain.Message{}, fmt.Errorf("%w: text is required", apperrors.ErrValidation)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = domain.StatusSent
	}
	if msg.Type == "" {
		msg.Type = domain.TypeText
	}

	key, err := m.nextKey(&msg)
	if err != nil {
		return domain.Message{}, err
	}

	bytes, err := enc.Marshal(msg)
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: ledger append: %v", apperrors.ErrTransientIO, err)
	}
	return msg, nil
}

// nextKey clamps the timestamp against the last append for the chat and
// allocates the tie-breaking sequence number. On the first append to a
// chat after startup both the clamp and the sequence counter are seeded
// from the last stored key, so a clamped append after a restart can
// never sort before, or collide with, a pre-restart entry.
func (m *MessageRepository) nextKey(msg *domain.Message) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.lastTS[msg.ChatID]
	if !ok {
		ts, seq, found, err := m.lastKey(msg.ChatID)
		if err != nil {
			return nil, err
		}
		if found {
			last = ts
			if seq > m.seq {
				m.seq = seq
			}
		}
	}
	if ts := msg.Timestamp.UnixNano(); ts < last {
		msg.Timestamp = time.Unix(0, last).UTC()
	}
	m.lastTS[msg.ChatID] = msg.Timestamp.UnixNano()
	m.seq++

	return []byte(fmt.Sprintf("msg:%s:%019d:%012d",
		msg.ChatID,
		msg.Timestamp.UnixNano(),
		m.seq,
	)), nil
}

// lastKey returns the timestamp and sequence segments of the newest
// stored key for a chat, parsed from the key itself so no value
// decoding is involved.
func (m *MessageRepository) lastKey(chatID string) (int64, uint64, bool, error) {
	var key []byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		key = it.Item().KeyCopy(nil)
		return nil
	})
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: ledger scan: %v", apperrors.ErrTransientIO, err)
	}
	if key == nil {
		return 0, 0, false, nil
	}

	parts := strings.Split(string(key), ":")
	if len(parts) != 4 {
		return 0, 0, false, nil
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, false, nil
	}
	seq, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return 0, 0, false, nil
	}
	return ts, seq, true, nil
}

// MessagesByChat retrieves the full conversation for a chat id using a
// prefix scan. Thanks to the padded timestamp in the key, messages come
// back naturally sorted ascending. The scan runs inside one read
// transaction, so the result is a point-in-time snapshot: appends that
// land afterwards are not visible in an already-produced slice.
func (m *MessageRepository) MessagesByChat(chatID string) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ledger scan: %v", apperrors.ErrTransientIO, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var msg domain.Message
		if err = cbor.Unmarshal(b, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// LatestByChat returns the most recent message of a chat, or nil when
// the conversation is empty.
func (m *MessageRepository) LatestByChat(chatID string) (*domain.Message, error) {
	var raw []byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then step back.
		seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(value []byte) error {
			raw = append([]byte(nil), value...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ledger scan: %v", apperrors.ErrTransientIO, err)
	}
	if raw == nil {
		return nil, nil
	}
	var msg domain.Message
	if err = cbor.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
