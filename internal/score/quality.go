// Package score implements the two independent classification models of the
// ingestion pipeline: the quality scorer (how complete and intentful a lead
// looks) and the spam scorer (how likely the submission is junk). Both are
// pure functions of their inputs; every signal check tolerates missing data
// by contributing zero, so scoring never fails on a partial lead.
//
// All weights and thresholds live in explicit config structs so operators
// can tune them without touching classification logic.
package score

import (
	"fmt"
	"regexp"
	"time"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/extract"
)

// QualityConfig holds the weights and tier thresholds of the quality model.
// Weights should sum to 1.0; the score is clamped to [0,1] regardless.
type QualityConfig struct {
	WeightEmail   float64 // valid email present
	WeightPhone   float64 // phone present
	WeightMessage float64 // message length above MessageMinLen
	WeightDates   float64 // both travel dates present, departure after arrival
	WeightParty   float64 // party size specified (adults > 0)
	WeightValue   float64 // budget / lead value specified
	WeightName    float64 // a real name, not a fallback placeholder

	MessageMinLen int

	HighThreshold   float64 // score >= high → "high"
	MediumThreshold float64 // score >= medium → "medium"
}

// DefaultQualityConfig returns the production defaults.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		WeightEmail:     0.25,
		WeightPhone:     0.15,
		WeightMessage:   0.15,
		WeightDates:     0.20,
		WeightParty:     0.10,
		WeightValue:     0.10,
		WeightName:      0.05,
		MessageMinLen:   20,
		HighThreshold:   0.70,
		MediumThreshold: 0.40,
	}
}

// QualityResult is the outcome of quality scoring: a score in [0,1], the
// derived tier, and one human-readable reason per contributing signal, in
// signal order.
type QualityResult struct {
	Score   float64
	Tier    string
	Reasons []string
}

// qualitySignal is one weighted check. The signal list is ordered and each
// entry owns exactly one reason string, so reasons map 1:1 to weights.
type qualitySignal struct {
	reason string
	weight func(QualityConfig) float64
	test   func(*extract.CandidateLead) bool
}

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var qualitySignals = []qualitySignal{
	{
		reason: "valid email address provided",
		weight: func(c QualityConfig) float64 { return c.WeightEmail },
		test: func(l *extract.CandidateLead) bool {
			return l.Email != nil && emailRE.MatchString(*l.Email)
		},
	},
	{
		reason: "phone number provided",
		weight: func(c QualityConfig) float64 { return c.WeightPhone },
		test:   func(l *extract.CandidateLead) bool { return l.Phone != nil },
	},
	{
		reason: "detailed message provided",
		weight: func(c QualityConfig) float64 { return c.WeightMessage },
		test:   nil, // length check needs the config; handled inline
	},
	{
		reason: "travel dates provided",
		weight: func(c QualityConfig) float64 { return c.WeightDates },
		test: func(l *extract.CandidateLead) bool {
			return datesWellFormed(l.ArrivalDate, l.DepartureDate)
		},
	},
	{
		reason: "party size specified",
		weight: func(c QualityConfig) float64 { return c.WeightParty },
		test:   func(l *extract.CandidateLead) bool { return l.Adults > 0 },
	},
	{
		reason: "budget specified",
		weight: func(c QualityConfig) float64 { return c.WeightValue },
		test:   func(l *extract.CandidateLead) bool { return l.LeadValue > 0 },
	},
	{
		reason: "name provided",
		weight: func(c QualityConfig) float64 { return c.WeightName },
		test: func(l *extract.CandidateLead) bool {
			return l.Name != "" && l.Name != "Anonymous" &&
				(l.Email == nil || l.Name != *l.Email) &&
				(l.Phone == nil || l.Name != *l.Phone)
		},
	},
}

// QualityScorer maps candidate leads to a score, tier, and reasons.
// Safe for concurrent use.
type QualityScorer struct {
	cfg QualityConfig
}

// NewQualityScorer builds a scorer with the given config.
func NewQualityScorer(cfg QualityConfig) *QualityScorer {
	return &QualityScorer{cfg: cfg}
}

// Score evaluates the ordered signal list against lead. Absent or malformed
// data simply contributes zero; Score never fails.
func (s *QualityScorer) Score(lead *extract.CandidateLead) QualityResult {
	var total float64
	reasons := make([]string, 0, len(qualitySignals))

	for _, sig := range qualitySignals {
		hit := false
		if sig.test != nil {
			hit = sig.test(lead)
		} else {
			// The message-length signal depends on the configured minimum.
			hit = len(lead.Message) >= s.cfg.MessageMinLen
		}
		if hit {
			total += sig.weight(s.cfg)
			reasons = append(reasons, sig.reason)
		}
	}

	total = clamp01(total)
	return QualityResult{
		Score:   total,
		Tier:    s.Tier(total),
		Reasons: reasons,
	}
}

// Tier maps a score to high/medium/low. The mapping is monotonic: a higher
// score never yields a lower tier.
func (s *QualityScorer) Tier(score float64) string {
	switch {
	case score >= s.cfg.HighThreshold:
		return domain.TierHigh
	case score >= s.cfg.MediumThreshold:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// datesWellFormed reports whether both dates parse as ISO dates with the
// departure strictly after the arrival.
func datesWellFormed(arrival, departure *string) bool {
	if arrival == nil || departure == nil {
		return false
	}
	a, errA := time.Parse("2006-01-02", *arrival)
	d, errD := time.Parse("2006-01-02", *departure)
	return errA == nil && errD == nil && d.After(a)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Validate checks that the config is internally consistent. Used at config
// load time so a bad deployment fails fast instead of mis-tiering leads.
func (c QualityConfig) Validate() error {
	if c.HighThreshold < c.MediumThreshold {
		return fmt.Errorf("score: high threshold %.2f below medium threshold %.2f", c.HighThreshold, c.MediumThreshold)
	}
	if c.HighThreshold > 1 || c.MediumThreshold < 0 {
		return fmt.Errorf("score: tier thresholds must be within [0,1]")
	}
	return nil
}
