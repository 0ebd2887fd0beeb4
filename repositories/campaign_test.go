package repositories

import (
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Campaign_Create_Defaults(t *testing.T) {
	req := require.New(t)
	repository := NewCampaignRepository(openTestDB(t), slog.Default())

	created, err := repository.Create(domain.Campaign{Name: "Summer Sale"})
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal(domain.CampaignDraft, created.Status)
	req.NotNil(created.AudienceIDs)

	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal(created.Name, fetched.Name)
}

func Test_Campaign_Get_Unknown(t *testing.T) {
	req := require.New(t)
	repository := NewCampaignRepository(openTestDB(t), slog.Default())

	_, err := repository.Get("missing")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func Test_Campaign_Save_Updates_Stats(t *testing.T) {
	req := require.New(t)
	repository := NewCampaignRepository(openTestDB(t), slog.Default())

	created, err := repository.Create(domain.Campaign{Name: "Relance", AudienceIDs: []string{"a", "b"}})
	req.NoError(err)

	created.Status = domain.CampaignCompleted
	created.Stats.Sent = 2
	req.NoError(repository.Save(created))

	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal(domain.CampaignCompleted, fetched.Status)
	req.Equal(2, fetched.Stats.Sent)
}

func Test_Campaign_List(t *testing.T) {
	req := require.New(t)
	repository := NewCampaignRepository(openTestDB(t), slog.Default())

	_, err := repository.Create(domain.Campaign{Name: "One"})
	req.NoError(err)
	_, err = repository.Create(domain.Campaign{Name: "Two"})
	req.NoError(err)

	campaigns, err := repository.List()
	req.NoError(err)
	req.Len(campaigns, 2)
}
