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

// CampaignRepository stores campaigns under "campaign:{id}".
type CampaignRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCampaignRepository(db *badger.DB, log *slog.Logger) *CampaignRepository {
	return &CampaignRepository{db: db, log: log}
}

func campaignKey(id string) []byte {
	return []byte("campaign:" + id)
}

// Create assigns an id and default status, then persists.
func (r *CampaignRepository) Create(c domain.Campaign) (domain.Campaign, error) {
	if strings.TrimSpace(c.Name) == "" {
		return domain.Campaign{}, fmt.Errorf("%w: campaign name is required", apperrors.ErrValidation)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}
	if c.AudienceIDs == nil {
		c.AudienceIDs = []string{}
	}
	if err := r.Save(c); err != nil {
		return domain.Campaign{}, err
	}
	return c, nil
}

func (r *CampaignRepository) Get(id string) (domain.Campaign, error) {
	var raw []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(campaignKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			raw = append([]byte(nil), value...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Campaign{}, fmt.Errorf("%w: campaign %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("%w: campaign read: %v", apperrors.ErrTransientIO, err)
	}
	var c domain.Campaign
	if err = cbor.Unmarshal(raw, &c); err != nil {
		return domain.Campaign{}, err
	}
	return c, nil
}

func (r *CampaignRepository) Save(c domain.Campaign) error {
	bytes, err := enc.Marshal(c)
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(campaignKey(c.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: campaign write: %v", apperrors.ErrTransientIO, err)
	}
	return nil
}

func (r *CampaignRepository) List() ([]domain.Campaign, error) {
	var raw [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("campaign:")
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
		return nil, fmt.Errorf("%w: campaign scan: %v", apperrors.ErrTransientIO, err)
	}

	campaigns := make([]domain.Campaign, 0, len(raw))
	for _, b := range raw {
		var c domain.Campaign
		if err = cbor.Unmarshal(b, &c); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}
