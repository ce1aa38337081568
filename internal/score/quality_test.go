package score

import (
	"math"
	"strings"
	"testing"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/extract"
)

func strp(s string) *string { return &s }

func TestQualityScore_AllSignals(t *testing.T) {
	s := NewQualityScorer(DefaultQualityConfig())
	lead := &extract.CandidateLead{
		Name:          "Jane Doe",
		Email:         strp("jane@example.com"),
		Phone:         strp("+44 20 7946 0958"),
		Message:       "We are planning our honeymoon and would love a sea view.",
		ArrivalDate:   strp("2026-05-01"),
		DepartureDate: strp("2026-05-08"),
		Adults:        2,
		LeadValue:     1500,
	}

	res := s.Score(lead)
	if math.Abs(res.Score-1.0) > 1e-9 {
		t.Fatalf("Score = %v, want 1.0 (weights sum to 1)", res.Score)
	}
	if res.Tier != domain.TierHigh {
		t.Fatalf("Tier = %q", res.Tier)
	}
	if len(res.Reasons) != 7 {
		t.Fatalf("Reasons = %v", res.Reasons)
	}
}

func TestQualityScore_EmptyLead(t *testing.T) {
	s := NewQualityScorer(DefaultQualityConfig())
	res := s.Score(&extract.CandidateLead{Name: "Anonymous", Message: "short"})

	// The "Anonymous" fallback does not count as a name; nothing fires.
	if res.Score != 0 {
		t.Fatalf("Score = %v, want 0", res.Score)
	}
	if len(res.Reasons) != 0 {
		t.Fatalf("Reasons = %v, want none", res.Reasons)
	}
	if res.Tier != domain.TierLow {
		t.Fatalf("Tier = %q", res.Tier)
	}
}

func TestQualityScore_Dates(t *testing.T) {
	s := NewQualityScorer(DefaultQualityConfig())

	base := func() *extract.CandidateLead {
		return &extract.CandidateLead{Name: "A B", Message: "x"}
	}

	// Departure must be strictly after arrival.
	good := base()
	good.ArrivalDate = strp("2026-05-01")
	good.DepartureDate = strp("2026-05-02")
	if res := s.Score(good); !containsReason(res.Reasons, "travel dates") {
		t.Fatalf("well-formed dates should score: %v", res.Reasons)
	}

	same := base()
	same.ArrivalDate = strp("2026-05-01")
	same.DepartureDate = strp("2026-05-01")
	if res := s.Score(same); containsReason(res.Reasons, "travel dates") {
		t.Fatalf("same-day dates must not score")
	}

	malformed := base()
	malformed.ArrivalDate = strp("May 1st")
	malformed.DepartureDate = strp("2026-05-08")
	if res := s.Score(malformed); containsReason(res.Reasons, "travel dates") {
		t.Fatalf("malformed dates must not score")
	}
}

func TestQualityScore_MessageLength(t *testing.T) {
	cfg := DefaultQualityConfig()
	s := NewQualityScorer(cfg)

	short := &extract.CandidateLead{Message: strings.Repeat("a", cfg.MessageMinLen-1)}
	long := &extract.CandidateLead{Message: strings.Repeat("a", cfg.MessageMinLen)}

	if containsReason(s.Score(short).Reasons, "detailed message") {
		t.Fatalf("message below minimum must not score")
	}
	if !containsReason(s.Score(long).Reasons, "detailed message") {
		t.Fatalf("message at minimum must score")
	}
}

func TestTier_Monotonic(t *testing.T) {
	s := NewQualityScorer(DefaultQualityConfig())
	order := map[string]int{domain.TierLow: 0, domain.TierMedium: 1, domain.TierHigh: 2}

	prev := domain.TierLow
	for v := 0.0; v <= 1.0; v += 0.01 {
		tier := s.Tier(v)
		if order[tier] < order[prev] {
			t.Fatalf("tier regressed from %q to %q at score %v", prev, tier, v)
		}
		prev = tier
	}

	// Boundary behavior: thresholds are inclusive.
	if s.Tier(0.70) != domain.TierHigh {
		t.Errorf("Tier(0.70) = %q", s.Tier(0.70))
	}
	if s.Tier(0.40) != domain.TierMedium {
		t.Errorf("Tier(0.40) = %q", s.Tier(0.40))
	}
	if s.Tier(0.3999) != domain.TierLow {
		t.Errorf("Tier(0.3999) = %q", s.Tier(0.3999))
	}
}

func TestQualityConfig_Validate(t *testing.T) {
	cfg := DefaultQualityConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	bad := cfg
	bad.HighThreshold = 0.3 // below medium
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected validation error when high < medium")
	}

	out := cfg
	out.HighThreshold = 1.5
	if err := out.Validate(); err == nil {
		t.Fatalf("expected validation error for threshold above 1")
	}
}

func containsReason(reasons []string, frag string) bool {
	for _, r := range reasons {
		if strings.Contains(r, frag) {
			return true
		}
	}
	return false
}
