// Package score – spam model.
//
// Spam scoring is independent of quality scoring: a submission can look
// complete and well-formed yet still be flagged (an automated but polished
// bot run), and vice versa. The scorer combines content signals computed
// from the candidate lead with one behavioral signal — the count of recent
// submissions from the same IP or email — that the caller fetches from the
// store and passes in, keeping this model a pure function.
package score

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// SpamConfig holds the weights and thresholds of the spam model.
type SpamConfig struct {
	WeightNoContact  float64 // neither email nor phone extracted
	WeightBadEmail   float64 // email extracted but malformed
	WeightLinkSpam   float64 // message dominated by links
	WeightGibberish  float64 // message mostly non-alphabetic
	WeightAllCaps    float64 // message is shouting
	WeightShortName  float64 // single-character name
	WeightRepetition float64 // burst of recent submissions from same origin

	// Threshold above which a lead is marked is_spam.
	Threshold float64

	// RecentWindow and RecentMax define the behavioral burst rule: more
	// than RecentMax submissions from the same IP or email inside
	// RecentWindow triggers the repetition flag.
	RecentWindow time.Duration
	RecentMax    int
}

// DefaultSpamConfig returns the production defaults.
func DefaultSpamConfig() SpamConfig {
	return SpamConfig{
		WeightNoContact:  0.30,
		WeightBadEmail:   0.25,
		WeightLinkSpam:   0.30,
		WeightGibberish:  0.25,
		WeightAllCaps:    0.15,
		WeightShortName:  0.15,
		WeightRepetition: 0.35,
		Threshold:        0.60,
		RecentWindow:     10 * time.Minute,
		RecentMax:        3,
	}
}

// SpamResult is the outcome of spam scoring: a score in [0,1], one flag
// string per triggered signal, and the verdict.
type SpamResult struct {
	Score  float64
	Flags  []string
	IsSpam bool
}

// SpamScorer evaluates candidate leads against the spam model.
// Safe for concurrent use.
type SpamScorer struct {
	cfg SpamConfig
}

// NewSpamScorer builds a scorer with the given config.
func NewSpamScorer(cfg SpamConfig) *SpamScorer {
	return &SpamScorer{cfg: cfg}
}

// Config returns the scorer's configuration (the ingest service needs the
// window to issue the recent-submissions count query).
func (s *SpamScorer) Config() SpamConfig { return s.cfg }

// Input is the subset of the candidate lead the spam model reads, plus the
// behavioral count supplied by the caller.
type Input struct {
	Name    string
	Email   *string
	Phone   *string
	Message string

	// RecentSubmissions is the number of submissions seen from the same IP
	// or email within the configured window. Callers that could not obtain
	// the count (store timeout) must fail the request rather than pass 0;
	// a missing count must never silently read as "not spam".
	RecentSubmissions int
}

// Score evaluates the signal list against in. Signals are independent and
// additive; the total is clamped to [0,1].
func (s *SpamScorer) Score(in Input) SpamResult {
	var total float64
	flags := make([]string, 0, 4)

	add := func(w float64, flag string) {
		total += w
		flags = append(flags, flag)
	}

	hasEmail := in.Email != nil && *in.Email != ""
	hasPhone := in.Phone != nil && *in.Phone != ""

	switch {
	case !hasEmail && !hasPhone:
		add(s.cfg.WeightNoContact, "no contact details")
	case hasEmail && !emailRE.MatchString(*in.Email):
		add(s.cfg.WeightBadEmail, "malformed email address")
	}

	if linkCount(in.Message) >= 2 {
		add(s.cfg.WeightLinkSpam, fmt.Sprintf("message contains %d links", linkCount(in.Message)))
	} else if mostlyNonAlphabetic(in.Message) {
		add(s.cfg.WeightGibberish, "message is mostly non-alphabetic")
	}

	if isShouting(in.Message) {
		add(s.cfg.WeightAllCaps, "message is all caps")
	}

	if utf8.RuneCountInString(strings.TrimSpace(in.Name)) == 1 {
		add(s.cfg.WeightShortName, "single-character name")
	}

	if in.RecentSubmissions > s.cfg.RecentMax {
		add(s.cfg.WeightRepetition,
			fmt.Sprintf("%d submissions from same origin in %s", in.RecentSubmissions, s.cfg.RecentWindow))
	}

	total = clamp01(total)
	return SpamResult{
		Score:  total,
		Flags:  flags,
		IsSpam: total > s.cfg.Threshold,
	}
}

// linkCount counts URL-ish substrings in the message.
func linkCount(msg string) int {
	lower := strings.ToLower(msg)
	return strings.Count(lower, "http://") +
		strings.Count(lower, "https://") +
		strings.Count(lower, "www.")
}

// mostlyNonAlphabetic reports whether fewer than 40% of the message's runes
// are letters. Very short messages are exempt; the synthesized fallback
// messages ("Adults: 2") would otherwise all trip this.
func mostlyNonAlphabetic(msg string) bool {
	runes := []rune(msg)
	if len(runes) < 10 {
		return false
	}
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			letters++
		}
	}
	return float64(letters)/float64(len(runes)) < 0.40
}

// isShouting reports whether the message has at least a dozen letters and
// not a single lowercase one.
func isShouting(msg string) bool {
	letters, lower := 0, 0
	for _, r := range msg {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsLower(r) {
				lower++
			}
		}
	}
	return letters >= 12 && lower == 0
}

// Validate checks that the config is internally consistent.
func (c SpamConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("score: spam threshold %.2f outside [0,1]", c.Threshold)
	}
	if c.RecentWindow <= 0 {
		return fmt.Errorf("score: spam recent window must be positive")
	}
	if c.RecentMax < 0 {
		return fmt.Errorf("score: spam recent max must be >= 0")
	}
	return nil
}
