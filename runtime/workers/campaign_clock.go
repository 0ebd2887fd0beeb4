package workers

import (
	"chatdesk/contract"
	"chatdesk/domain"
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CampaignClock sweeps the campaign store once a minute and hands every
// scheduled campaign whose date has arrived to the dispatcher. The
// dispatcher owns all send semantics; the clock only decides "due now".
type CampaignClock struct {
	log       *slog.Logger
	campaigns contract.CampaignStore
	sender    contract.CampaignSender
}

func NewCampaignClock(log *slog.Logger, campaigns contract.CampaignStore, sender contract.CampaignSender) *CampaignClock {
	return &CampaignClock{log: log, campaigns: campaigns, sender: sender}
}

func (w *CampaignClock) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc("@every 1m", func() {
		w.sweep(ctx)
	})
	if err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

func (w *CampaignClock) sweep(ctx context.Context) {
	campaigns, err := w.campaigns.List()
	if err != nil {
		w.log.Warn("Campaign sweep failed", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, campaign := range campaigns {
		if campaign.Status != domain.CampaignScheduled {
			continue
		}
		if campaign.ScheduledDate == nil || campaign.ScheduledDate.After(now) {
			continue
		}
		sent, err := w.sender.SendCampaign(ctx, campaign.ID)
		if err != nil {
			w.log.Warn("Scheduled campaign failed to send",
				"campaign_id", campaign.ID,
				"error", err)
			continue
		}
		w.log.Info("Scheduled campaign sent",
			"campaign_id", campaign.ID,
			"sent_count", sent)
	}
}
