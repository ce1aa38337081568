// Package report derives per-site daily anomaly alerts from a day's worth
// of accepted leads. Each rule is evaluated independently, so a day can
// trigger zero, one, or several exceptions; the thresholds are the contract
// operators alert on and are reproduced exactly in the defaults.
package report

import (
	"fmt"
	"time"

	"github.com/lodgera/go-leads-backend/internal/domain"
)

// Exception severities.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Exception type names as surfaced to operators.
const (
	TypeHighSpamRate  = "High Spam Rate"
	TypeDuplicates    = "Duplicate Submissions"
	TypeLowQuality    = "Low Quality Majority"
	TypeSpike         = "Submission Spike"
	TypeNoHighQuality = "No High-Quality Leads"
)

// Exception is one named anomaly for a site-day. Detail carries the literal
// numbers involved so alerts are self-explanatory.
type Exception struct {
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

// Stats are the per-tier counts included in the daily report.
type Stats struct {
	Total     int `json:"total"`
	High      int `json:"high"`
	Medium    int `json:"medium"`
	Low       int `json:"low"`
	Spam      int `json:"spam"`
	Duplicate int `json:"duplicate"`
}

// DailyReport is the payload handed to the external report emitter, one per
// active site per day.
type DailyReport struct {
	SiteID     string      `json:"site_id"`
	SiteName   string      `json:"site_name"`
	Date       string      `json:"date"`
	Stats      Stats       `json:"stats"`
	Exceptions []Exception `json:"exceptions"`
	Summary    string      `json:"summary"`
}

// Config holds the exception thresholds. The defaults are the operator
// contract; they are configuration so staging environments can tighten or
// silence individual rules without a redeploy.
type Config struct {
	SpamRate        float64 // spam share of the day strictly above this → error
	DuplicateMax    int     // soft-duplicate count strictly above this → warning
	LowQualityRate  float64 // low-tier share strictly above this → warning
	SpikeMultiplier float64 // day total strictly above multiplier × 7d average → warning
	SpikeMinAverage float64 // spike rule only armed when the average exceeds this
	NoHighMinTotal  int     // no-high rule only armed when day total exceeds this
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		SpamRate:        0.20,
		DuplicateMax:    5,
		LowQualityRate:  0.50,
		SpikeMultiplier: 2.0,
		SpikeMinAverage: 5.0,
		NoHighMinTotal:  10,
	}
}

// Analyzer rolls a site-day of leads into exceptions and a report.
// Safe for concurrent use; analysis is a pure function of its inputs.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer builds an Analyzer with the given thresholds.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Tally computes the per-tier counts for a day's leads.
func Tally(leads []domain.Lead) Stats {
	var s Stats
	s.Total = len(leads)
	for _, l := range leads {
		switch l.QualityTier {
		case domain.TierHigh:
			s.High++
		case domain.TierMedium:
			s.Medium++
		default:
			s.Low++
		}
		if l.IsSpam {
			s.Spam++
		}
		if l.IsDuplicate {
			s.Duplicate++
		}
	}
	return s
}

// Analyze evaluates every exception rule against one site-day.
// trailingAvg is the trailing 7-day daily average for the site, excluding
// the day itself. The returned slice is ordered by rule, not severity.
func (a *Analyzer) Analyze(leads []domain.Lead, trailingAvg float64) []Exception {
	stats := Tally(leads)
	out := make([]Exception, 0, 3)
	total := stats.Total

	if total > 0 {
		spamRate := float64(stats.Spam) / float64(total)
		if spamRate > a.cfg.SpamRate {
			out = append(out, Exception{
				Type:     TypeHighSpamRate,
				Count:    stats.Spam,
				Detail:   fmt.Sprintf("%.1f%% of %d leads flagged as spam", spamRate*100, total),
				Severity: SeverityError,
			})
		}
	}

	if stats.Duplicate > a.cfg.DuplicateMax {
		out = append(out, Exception{
			Type:     TypeDuplicates,
			Count:    stats.Duplicate,
			Detail:   fmt.Sprintf("%d submissions soft-marked as duplicates", stats.Duplicate),
			Severity: SeverityWarning,
		})
	}

	if total > 0 {
		lowRate := float64(stats.Low) / float64(total)
		if lowRate > a.cfg.LowQualityRate {
			out = append(out, Exception{
				Type:     TypeLowQuality,
				Count:    stats.Low,
				Detail:   fmt.Sprintf("%.1f%% of %d leads scored low quality", lowRate*100, total),
				Severity: SeverityWarning,
			})
		}
	}

	// The average floor guards low-volume sites: doubling from 1 to 3
	// leads a day is noise, not a spike.
	if trailingAvg > a.cfg.SpikeMinAverage && float64(total) > a.cfg.SpikeMultiplier*trailingAvg {
		out = append(out, Exception{
			Type:     TypeSpike,
			Count:    total,
			Detail:   fmt.Sprintf("%d leads vs trailing 7-day average of %.1f/day", total, trailingAvg),
			Severity: SeverityWarning,
		})
	}

	if total > a.cfg.NoHighMinTotal && stats.High == 0 {
		out = append(out, Exception{
			Type:     TypeNoHighQuality,
			Count:    0,
			Detail:   fmt.Sprintf("%d leads received, none scored high quality", total),
			Severity: SeverityError,
		})
	}

	return out
}

// Build assembles the full daily report for one site-day.
func (a *Analyzer) Build(site domain.SiteConfig, day time.Time, leads []domain.Lead, trailingAvg float64) DailyReport {
	stats := Tally(leads)
	exceptions := a.Analyze(leads, trailingAvg)
	return DailyReport{
		SiteID:     site.ID,
		SiteName:   site.Name,
		Date:       day.UTC().Format("2006-01-02"),
		Stats:      stats,
		Exceptions: exceptions,
		Summary:    summarize(stats, len(exceptions)),
	}
}

// summarize renders the one-line report header.
func summarize(s Stats, exceptions int) string {
	return fmt.Sprintf("%d leads (%d high, %d medium, %d low), %d spam, %d duplicate, %d exception(s)",
		s.Total, s.High, s.Medium, s.Low, s.Spam, s.Duplicate, exceptions)
}
