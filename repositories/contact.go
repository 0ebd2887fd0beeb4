package repositories

import (
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// ContactRepository is the contact directory backed by BadgerDB.
//
// Records live under "contact:id:{id}" for point lookups. A second key,
// "contact:ts:{created_padded}:{seq_padded}" holding the contact id,
// acts as an insertion-order index so List returns contacts in the
// order they were created.
type ContactRepository struct {
	db  *badger.DB
	log *slog.Logger

	mu  sync.Mutex
	seq uint64
}

func NewContactRepository(db *badger.DB, log *slog.Logger) *ContactRepository {
	return &ContactRepository{db: db, log: log}
}

func contactKey(id string) []byte {
	return []byte("contact:id:" + id)
}

func (c *ContactRepository) Create(contact domain.Contact) (domain.Contact, error) {
	if strings.TrimSpace(contact.Name) == "" {
		return domain.Contact{}, fmt.Errorf("%w: contact name is required", apperrors.ErrValidation)
	}
	// The contact id doubles as the chat id in ledger keys; ":" is the
	// key separator in both namespaces.
	if strings.Contains(contact.ID, ":") {
		return domain.Contact{}, fmt.Errorf("%w: contact id must not contain ':'", apperrors.ErrValidation)
	}
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}
	if contact.LastActive == "" {
		contact.LastActive = contact.CreatedAt.Format(time.RFC3339)
	}
	if contact.Tags == nil {
		contact.Tags = []string{}
	}

	c.mu.Lock()
	c.seq++
	indexKey := []byte(fmt.Sprintf("contact:ts:%019d:%012d", contact.CreatedAt.UnixNano(), c.seq))
	c.mu.Unlock()

	bytes, err := enc.Marshal(contact)
	if err != nil {
		return domain.Contact{}, err
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(contactKey(contact.ID), bytes); err != nil {
			return err
		}
		return txn.Set(indexKey, []byte(contact.ID))
	})
	if err != nil {
		return domain.Contact{}, fmt.Errorf("%w: contact write: %v", apperrors.ErrTransientIO, err)
	}
	return contact, nil
}

func (c *ContactRepository) Get(id string) (domain.Contact, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contactKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			raw = append([]byte(nil), value...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Contact{}, fmt.Errorf("%w: contact %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Contact{}, fmt.Errorf("%w: contact read: %v", apperrors.ErrTransientIO, err)
	}
	var contact domain.Contact
	if err = cbor.Unmarshal(raw, &contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

// List returns all contacts in insertion order by walking the
// time-ordered index and resolving each id. Index entries whose record
// disappeared mid-walk are skipped rather than failing the listing.
func (c *ContactRepository) List() ([]domain.Contact, error) {
	var ids []string
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("contact:ts:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				ids = append(ids, string(value))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: contact scan: %v", apperrors.ErrTransientIO, err)
	}

	contacts := make([]domain.Contact, 0, len(ids))
	for _, id := range ids {
		contact, err := c.Get(id)
		if err != nil {
			c.log.Debug(fmt.Sprintf("Skipping dangling contact index entry %s", id))
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

func (c *ContactRepository) Delete(id string) error {
	contact, err := c.Get(id)
	if err != nil {
		return err
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(contactKey(id)); err != nil {
			return err
		}
		// Index entries for this creation instant are few; scan and drop the one
		// pointing at this id.
		prefix := []byte(fmt.Sprintf("contact:ts:%019d:", contact.CreatedAt.UnixNano()))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := append([]byte(nil), it.Item().Key()...)
			var match bool
			err := it.Item().Value(func(value []byte) error {
				match = string(value) == id
				return nil
			})
			if err != nil {
				return err
			}
			if match {
				return txn.Delete(key)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: contact delete: %v", apperrors.ErrTransientIO, err)
	}
	return nil
}
