// Package domain defines the persistence models for site configurations,
// leads, and status-change audit rows. These types are mapped with GORM and
// form the core data layer of the lead ingestion backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Lead lifecycle statuses. New leads start as StatusNew unless the spam
// scorer flags them, in which case they are stored as StatusSpam.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusSpam      = "spam"
	StatusRejected  = "rejected"
	StatusConverted = "converted"
)

// ValidStatus reports whether s is a known lead lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusSpam, StatusRejected, StatusConverted:
		return true
	}
	return false
}

// Quality tiers derived from the quality score.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// SiteConfig represents one customer website integration. Each site owns an
// API key used to authenticate inbound webhooks and, optionally, a shared
// secret used to verify webhook signatures.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: human-readable site name.
//   - APIKey: unique credential presented in the X-API-Key header.
//   - WebhookSecret: optional HMAC secret; empty means signature checks are
//     skipped for this site (an explicit opt-out the operator accepts).
//   - Active: inactive sites are rejected at the webhook boundary.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type SiteConfig struct {
	ID            string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name          string    `json:"name"       gorm:"type:varchar(255);not null"`
	APIKey        string    `json:"-"          gorm:"type:varchar(64);not null;uniqueIndex:ux_site_api_key"`
	WebhookSecret string    `json:"-"          gorm:"type:varchar(128)"`
	Active        bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for SiteConfig.
func (SiteConfig) TableName() string { return "site_configs" }

// Lead is the persisted, fully scored record produced by the ingestion
// pipeline. The composite key (site id, form id, entry id) is unique among
// stored leads; concurrent redeliveries of the same webhook collapse onto a
// single row via the unique index.
//
// Status is the only field mutated after creation (by operators or the
// system); everything else is frozen at accept time. RawPayload keeps the
// submission verbatim for audit and debugging.
type Lead struct {
	ID           string `json:"id"       gorm:"type:char(36);primaryKey"`
	SiteID       string `json:"site_id"  gorm:"type:char(36);not null;index:idx_site_leads,priority:1"`
	FormID       string `json:"form_id"  gorm:"type:varchar(64);not null"`
	EntryID      string `json:"entry_id" gorm:"type:varchar(64);not null"`
	CompositeKey string `json:"-"        gorm:"type:varchar(192);not null;uniqueIndex:ux_lead_composite"`

	Name          string  `json:"name"            gorm:"type:varchar(255);not null"`
	Email         *string `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone         *string `json:"phone,omitempty" gorm:"type:varchar(64)"`
	Message       string  `json:"message"         gorm:"type:text;not null"`
	ArrivalDate   *string `json:"arrival_date,omitempty"   gorm:"type:varchar(32)"`
	DepartureDate *string `json:"departure_date,omitempty" gorm:"type:varchar(32)"`
	EnquiryDate   *string `json:"enquiry_date,omitempty"   gorm:"type:varchar(32)"`
	BookedDate    *string `json:"booked_date,omitempty"    gorm:"type:varchar(32)"`
	Adults        int     `json:"adults"          gorm:"not null;default:0"`
	Children      int     `json:"children"        gorm:"not null;default:0"`
	InterestedIn  string  `json:"interested_in"   gorm:"type:varchar(255)"`
	Nationality   string  `json:"nationality"     gorm:"type:varchar(128)"`
	LeadValue     float64 `json:"lead_value"      gorm:"not null;default:0"`
	Source        string  `json:"source"          gorm:"type:varchar(64)"`

	SourceURL   string    `json:"source_url"   gorm:"type:varchar(1024)"`
	Referrer    string    `json:"referrer"     gorm:"type:varchar(1024)"`
	UTMSource   string    `json:"utm_source"   gorm:"type:varchar(255)"`
	UTMMedium   string    `json:"utm_medium"   gorm:"type:varchar(255)"`
	UTMCampaign string    `json:"utm_campaign" gorm:"type:varchar(255)"`
	IPAddress   string    `json:"ip_address"   gorm:"type:varchar(64)"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"not null;index:idx_site_leads,priority:2"`

	QualityScore   float64    `json:"quality_score"   gorm:"not null;default:0"`
	QualityTier    string     `json:"quality_tier"    gorm:"type:varchar(16);not null;check:quality_tier IN ('high','medium','low')"`
	QualityReasons StringList `json:"quality_reasons" gorm:"type:text"`
	SpamScore      float64    `json:"spam_score"      gorm:"not null;default:0"`
	SpamFlags      StringList `json:"spam_flags"      gorm:"type:text"`
	IsSpam         bool       `json:"is_spam"         gorm:"not null;default:false"`
	// IsDuplicate is a soft marker counted by the daily exception analyzer.
	// The ingestion pipeline suppresses duplicates before storage and never
	// sets it; the column exists for deliberate soft-duplicate marking.
	IsDuplicate bool   `json:"is_duplicate" gorm:"not null;default:false"`
	Status      string `json:"status"       gorm:"type:varchar(16);not null;default:'new'"`

	RawPayload string `json:"-" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// CompositeKeyFor joins the composite identity (site, form, entry) into the
// stable string persisted on the lead and enforced by the unique index.
func CompositeKeyFor(siteID, formID, entryID string) string {
	return siteID + ":" + formID + ":" + entryID
}

// StatusChange is an append-only audit row recording one field transition on
// a lead. Actor is nil for system-initiated transitions (e.g., the spam
// scorer forcing status "spam" at accept time). Rows are never mutated.
type StatusChange struct {
	ID       string  `json:"id"        gorm:"type:char(36);primaryKey"`
	LeadID   string  `json:"lead_id"   gorm:"type:char(36);not null;index"`
	Field    string  `json:"field"     gorm:"type:varchar(64);not null"`
	OldValue string  `json:"old_value" gorm:"type:varchar(255)"`
	NewValue string  `json:"new_value" gorm:"type:varchar(255)"`
	Actor    *string `json:"actor,omitempty" gorm:"type:varchar(64)"`
	Reason   string  `json:"reason"    gorm:"type:varchar(512)"`

	CreatedAt time.Time `json:"created_at"`

	// Lead is the audited record. Audit rows follow the lead row if it is
	// ever removed out-of-band (the pipeline itself never deletes leads).
	Lead Lead `json:"-" gorm:"foreignKey:LeadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for StatusChange.
func (StatusChange) TableName() string { return "status_changes" }
