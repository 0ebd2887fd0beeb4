package domain

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
)

// CampaignStats aggregates delivery counters. Sent is the number of
// messages actually written by a fan-out, which may be below the
// audience size when ids fail to resolve or writes fail.
type CampaignStats struct {
	Sent      int `json:"sent" cbor:"1,keyasint"`
	Delivered int `json:"delivered" cbor:"2,keyasint"`
	Read      int `json:"read" cbor:"3,keyasint"`
	Failed    int `json:"failed" cbor:"4,keyasint"`
}

type Campaign struct {
	ID            string         `json:"id" cbor:"1,keyasint"`
	Name          string         `json:"name" cbor:"2,keyasint"`
	Status        CampaignStatus `json:"status" cbor:"3,keyasint"`
	AudienceIDs   []string       `json:"audienceIds" cbor:"4,keyasint"`
	Stats         CampaignStats  `json:"stats" cbor:"5,keyasint"`
	TemplateID    string         `json:"templateId,omitempty" cbor:"6,keyasint,omitempty"`
	Goal          string         `json:"goal,omitempty" cbor:"7,keyasint,omitempty"`
	ScheduledDate *time.Time     `json:"scheduledDate,omitempty" cbor:"8,keyasint,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" cbor:"9,keyasint"`
}

// Template is a reusable message body for campaigns.
type Template struct {
	ID       string `json:"id" cbor:"1,keyasint"`
	Name     string `json:"name" cbor:"2,keyasint"`
	Content  string `json:"content" cbor:"3,keyasint"`
	Language string `json:"language" cbor:"4,keyasint"`
	Status   string `json:"status" cbor:"5,keyasint"`
	Category string `json:"category" cbor:"6,keyasint"`
}
