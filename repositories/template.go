package repositories

import (
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// TemplateRepository stores message templates under "template:{id}".
type TemplateRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewTemplateRepository(db *badger.DB, log *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, log: log}
}

func templateKey(id string) []byte {
	return []byte("template:" + id)
}

func (r *TemplateRepository) Save(t domain.Template) (domain.Template, error) {
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Content) == "" {
		return domain.Template{}, fmt.Errorf("%w: template name and content are required", apperrors.ErrValidation)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Language == "" {
		t.Language = "en"
	}
	if t.Status == "" {
		t.Status = "approved"
	}
	if t.Category == "" {
		t.Category = "marketing"
	}
	bytes, err := enc.Marshal(t)
	if err != nil {
		return domain.Template{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(templateKey(t.ID), bytes)
	})
	if err != nil {
		return domain.Template{}, fmt.Errorf("%w: template write: %v", apperrors.ErrTransientIO, err)
	}
	return t, nil
}

func (r *TemplateRepository) List() ([]domain.Template, error) {
	var raw [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("template:")
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
		return nil, fmt.Errorf("%w: template scan: %v", apperrors.ErrTransientIO, err)
	}

	templates := make([]domain.Template, 0, len(raw))
	for _, b := range raw {
		var t domain.Template
		if err = cbor.Unmarshal(b, &t); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (r *TemplateRepository) Delete(id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(templateKey(id)); err != nil {
			return err
		}
		return txn.Delete(templateKey(id))
	})
	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("%w: template %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: template delete: %v", apperrors.ErrTransientIO, err)
	}
	return nil
}
