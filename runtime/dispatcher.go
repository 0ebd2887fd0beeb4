package runtime

import (
	"chatdesk/contract"
	"chatdesk/domain"
	apperrors "chatdesk/errors"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// CampaignDispatcher fans a campaign out to its resolved audience: one
// outbound ledger write plus one scheduled reply per contact, then a
// single campaign save with the final counters.
//
// The loop is sequential and non-transactional on purpose. A failed
// write for contact k leaves the messages of contacts 1..k-1 in place:
// no rollback, no retry, no atomicity across the audience. The
// campaign reports only what was actually written.
type CampaignDispatcher struct {
	log       *slog.Logger
	ledger    contract.Ledger
	contacts  contract.ContactDirectory
	campaigns contract.CampaignStore
	scheduler contract.ReplyScheduler
}

func NewCampaignDispatcher(log *slog.Logger, ledger contract.Ledger,
	contacts contract.ContactDirectory, campaigns contract.CampaignStore,
	scheduler contract.ReplyScheduler) *CampaignDispatcher {
	return &CampaignDispatcher{
		log:       log,
		ledger:    ledger,
		contacts:  contacts,
		campaigns: campaigns,
		scheduler: scheduler,
	}
}

// SendCampaign runs the fan-out and returns the number of messages
// written. An empty audience is rejected up front: there is
// deliberately no "send to everyone" fallback. Audience ids that do
// not resolve in the directory are dropped from the send set without
// failing the campaign.
func (d *CampaignDispatcher) SendCampaign(ctx context.Context, campaignID string) (int, error) {
	campaign, err := d.campaigns.Get(campaignID)
	if err != nil {
		return 0, err
	}
	if len(campaign.AudienceIDs) == 0 {
		return 0, fmt.Errorf("%w: campaign %s has an empty audience", apperrors.ErrValidation, campaignID)
	}

	// The loop is not cancellable mid-audience: once started it runs to
	// completion, even if the request context dies underneath it.
	sent := 0
	for _, contactID := range campaign.AudienceIDs {
		contact, err := d.contacts.Get(contactID)
		if errors.Is(err, apperrors.ErrNotFound) {
			d.log.Debug(fmt.Sprintf("Campaign %s: audience id %s does not resolve, dropping", campaignID, contactID))
			continue
		}
		if err != nil {
			return sent, err
		}

		_, err = d.ledger.Append(domain.Message{
			ChatID:    contact.ID,
			SenderID:  domain.OperatorID,
			ContactID: contact.ID,
			Text:      fmt.Sprintf("Hi %s! Check out our campaign: %s", contact.Name, campaign.Name),
			Status:    domain.StatusSent,
			Type:      domain.TypeText,
		})
		if err != nil {
			// Continue past the failure and report only the successes.
			d.log.Warn("Campaign message lost, ledger append failed",
				"campaign_id", campaignID,
				"contact_id", contact.ID,
				"error", err)
			continue
		}
		sent++
		d.scheduler.ScheduleReply(contact.ID)
	}

	campaign.Status = domain.CampaignCompleted
	campaign.Stats.Sent = sent
	if err := d.campaigns.Save(campaign); err != nil {
		return sent, err
	}
	return sent, nil
}
