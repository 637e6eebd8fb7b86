// Package drops polls the viewer drops dashboard and the account
// inventory, reconciles the two into each streamer's eligible campaigns,
// and claims any drop that becomes claimable.
package drops

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brightloom/pointsminer/internal/config"
	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/notify"
)

// Notifier is the subset of notify.Hub the drops tracker needs.
type Notifier interface {
	Send(event notify.EventKind, message string)
}

// Client is the subset of gql.Client the drops tracker needs.
type Client interface {
	GetDropsDashboard() ([]map[string]interface{}, error)
	GetInventory() (map[string]interface{}, error)
	ClaimDrop(dropInstanceID string) (bool, error)
}

type Tracker struct {
	client    Client
	streamers []*models.Streamer
	settings  config.RateLimitSettings
	notifier  Notifier

	campaigns []*models.Campaign
	stopChan  chan struct{}

	mu sync.RWMutex
}

func NewTracker(client Client, streamers []*models.Streamer, settings config.RateLimitSettings, notifier Notifier) *Tracker {
	return &Tracker{
		client:    client,
		streamers: streamers,
		settings:  settings,
		notifier:  notifier,
		stopChan:  make(chan struct{}),
	}
}

func (d *Tracker) notify(kind notify.EventKind, message string) {
	if d.notifier == nil {
		return
	}
	d.notifier.Send(kind, message)
}

func (d *Tracker) Start() {
	go d.loop()
}

func (d *Tracker) Stop() {
	close(d.stopChan)
}

func (d *Tracker) loop() {
	syncInterval := time.Duration(d.settings.CampaignSyncInterval) * time.Minute

	d.syncCampaigns()

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.syncCampaigns()
		}
	}
}

// SyncNow forces an immediate sync, used on startup when
// claimDropsOnStartup is set.
func (d *Tracker) SyncNow() {
	d.syncCampaigns()
}

func (d *Tracker) syncCampaigns() {
	if !d.anyStreamerWantsDrops() {
		return
	}

	d.claimAllDropsFromInventory()

	campaigns, err := d.getActiveCampaigns()
	if err != nil {
		slog.Error("failed to get campaigns", "error", err)
		return
	}

	campaigns = d.syncWithInventory(campaigns)

	d.mu.Lock()
	d.campaigns = campaigns
	d.mu.Unlock()

	d.updateStreamerCampaigns()
	d.notify(notify.DropStatus, fmt.Sprintf("%d active drop campaign(s) tracked", len(campaigns)))
}

func (d *Tracker) anyStreamerWantsDrops() bool {
	for _, s := range d.streamers {
		if s.GetSettings().ClaimDrops {
			return true
		}
	}
	return false
}

func (d *Tracker) getActiveCampaigns() ([]*models.Campaign, error) {
	dashboard, err := d.client.GetDropsDashboard()
	if err != nil {
		return nil, err
	}

	var campaigns []*models.Campaign
	for _, c := range dashboard {
		status, _ := c["status"].(string)
		if status != "ACTIVE" {
			continue
		}

		campaign := models.NewCampaignFromGQL(c)
		if campaign.DateMatch {
			campaign.ClearClaimedDrops()
			if len(campaign.Drops) > 0 {
				campaigns = append(campaigns, campaign)
			}
		}
	}

	return campaigns, nil
}

func (d *Tracker) inProgressCampaigns() ([]interface{}, error) {
	inventory, err := d.client.GetInventory()
	if err != nil || inventory == nil {
		return nil, err
	}

	inProgress, ok := inventory["dropCampaignsInProgress"].([]interface{})
	if !ok {
		return nil, nil
	}
	return inProgress, nil
}

func (d *Tracker) syncWithInventory(campaigns []*models.Campaign) []*models.Campaign {
	inProgress, err := d.inProgressCampaigns()
	if err != nil || inProgress == nil {
		return campaigns
	}

	for _, campaign := range campaigns {
		campaign.ClearClaimedDrops()

		for _, prog := range inProgress {
			progData, ok := prog.(map[string]interface{})
			if !ok {
				continue
			}

			progID, ok := progData["id"].(string)
			if !ok || progID != campaign.ID {
				continue
			}

			campaign.InInventory = true

			if drops, ok := progData["timeBasedDrops"].([]interface{}); ok {
				campaign.SyncDrops(drops, func(drop *models.Drop) bool {
					claimed, err := d.client.ClaimDrop(drop.DropInstanceID)
					if err != nil {
						slog.Error("failed to claim drop", "drop", drop.Name, "error", err)
						return false
					}
					if claimed {
						d.notify(notify.DropClaim, fmt.Sprintf("claimed drop: %s (%s)", drop.Name, campaign.Name))
					}
					return claimed
				})
			}

			campaign.ClearClaimedDrops()
			break
		}
	}

	return campaigns
}

func (d *Tracker) claimAllDropsFromInventory() {
	inProgress, err := d.inProgressCampaigns()
	if err != nil || inProgress == nil {
		return
	}

	for _, campaign := range inProgress {
		campaignData, ok := campaign.(map[string]interface{})
		if !ok {
			continue
		}

		drops, ok := campaignData["timeBasedDrops"].([]interface{})
		if !ok || drops == nil {
			continue
		}

		for _, dropData := range drops {
			dropMap, ok := dropData.(map[string]interface{})
			if !ok {
				continue
			}

			drop := models.NewDropFromGQL(dropMap)
			if selfData, ok := dropMap["self"].(map[string]interface{}); ok {
				drop.Update(selfData)
			}

			if !drop.IsClaimable {
				continue
			}

			if claimed, err := d.client.ClaimDrop(drop.DropInstanceID); err != nil {
				slog.Error("failed to claim drop", "drop", drop.Name, "error", err)
			} else if claimed {
				slog.Info("claimed drop", "drop", drop.Name)
				d.notify(notify.DropClaim, fmt.Sprintf("claimed drop: %s", drop.Name))
			}
			time.Sleep(5 * time.Second)
		}
	}
}

func (d *Tracker) updateStreamerCampaigns() {
	d.mu.RLock()
	campaigns := d.campaigns
	d.mu.RUnlock()

	for _, streamer := range d.streamers {
		if !streamer.DropsCondition() {
			continue
		}

		var streamerCampaigns []*models.Campaign
		for _, campaign := range campaigns {
			if len(campaign.Drops) == 0 {
				continue
			}

			if campaign.Game == nil || streamer.Stream.GameID() == "" {
				continue
			}

			if campaign.Game.ID != streamer.Stream.GameID() {
				continue
			}

			hasID := false
			for _, id := range streamer.Stream.CampaignIDs {
				if id == campaign.ID {
					hasID = true
					break
				}
			}

			if hasID {
				streamerCampaigns = append(streamerCampaigns, campaign)
			}
		}

		streamer.Stream.Campaigns = streamerCampaigns
	}
}
