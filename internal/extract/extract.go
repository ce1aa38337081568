// Package extract converts loosely-typed form submissions into typed
// candidate leads. It is the tolerant heart of the ingestion pipeline:
// unknown keys, mixed value shapes, and vendor-specific labels all pass
// through an ordered chain of shape- and label-based classifiers.
//
// The chain is deliberately order-sensitive twice over: classifiers run in
// a fixed sequence per field, and fields are visited in the order the
// vendor delivered them. First classifier to match wins the field, and a
// slot that is already filled is never overwritten. Production form layouts
// depend on these tie-breaks, so the order must not be "improved".
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lodgera/go-leads-backend/internal/webhook"
)

// CandidateLead is the typed-but-unscored record produced by extraction.
// Scoring enriches it in place before it is frozen into a stored lead.
type CandidateLead struct {
	Name          string
	Email         *string
	Phone         *string
	Message       string
	ArrivalDate   *string
	DepartureDate *string
	EnquiryDate   *string
	BookedDate    *string
	Adults        int
	Children      int
	InterestedIn  string
	Nationality   string
	LeadValue     float64
	Source        string

	// Request metadata carried through unchanged.
	FormID      string
	EntryID     string
	SourceURL   string
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	IPAddress   string
	SubmittedAt time.Time
}

// DefaultSystemKeys are housekeeping keys that are never treated as lead
// content. The set is configurable (LEAD_SYSTEM_KEYS) because every form
// vendor invents its own bookkeeping fields.
var DefaultSystemKeys = []string{
	"id", "form_id", "entry_id", "date_created", "created_at", "created_by",
	"ip", "ip_address", "source_url", "user_agent", "status", "is_starred",
	"is_read", "currency", "transaction_id",
	"payment_amount", "payment_date", "payment_status", "payment_method",
}

// Config tunes the extractor. Zero value uses DefaultSystemKeys.
type Config struct {
	// SystemKeys overrides the housekeeping-key exclusion set.
	SystemKeys []string
}

// Extractor maps raw submissions to candidate leads. Safe for concurrent
// use; Extract is a pure function of its input.
type Extractor struct {
	system      map[string]struct{}
	titleCaser  cases.Caser
	payPrefixes []string
}

// New builds an Extractor from cfg.
func New(cfg Config) *Extractor {
	keys := cfg.SystemKeys
	if len(keys) == 0 {
		keys = DefaultSystemKeys
	}
	sys := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			sys[k] = struct{}{}
		}
	}
	return &Extractor{
		system:      sys,
		titleCaser:  cases.Title(language.English),
		payPrefixes: []string{"payment_"},
	}
}

var (
	// phoneRE: 10+ characters of digits and common phone punctuation.
	phoneRE = regexp.MustCompile(`^[0-9+()\-. ]{10,}$`)
	// nameRE: letters plus spaces, hyphens, apostrophes.
	nameRE = regexp.MustCompile(`^[\p{L}][\p{L} '\x{2019}-]*$`)
	// numberRE pulls the first numeric substring out of budget-style values.
	numberRE = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// Label synonym sets for the label-based classifiers. Matching is
// case-insensitive substring containment.
var (
	arrivalLabels   = []string{"arrival", "arrive", "check-in", "check in", "checkin"}
	departureLabels = []string{"departure", "depart", "check-out", "check out", "checkout"}
	enquiryLabels   = []string{"enquiry date", "inquiry date"}
	bookedLabels    = []string{"booked", "booking date", "confirmed date"}
	adultLabels     = []string{"adult"}
	childLabels     = []string{"child", "children", "kid"}
	interestLabels  = []string{"room type", "room-type", "package", "accommodation", "interested in", "interested"}
	nationLabels    = []string{"nationality", "country"}
	valueLabels     = []string{"budget", "value", "amount"}
)

// Extract runs the classifier chain over sub's fields and returns a
// candidate lead. now supplies the fallback submission timestamp.
//
// Guarantees: Message is never empty afterwards, and Name falls back to
// email, then phone, then "Anonymous".
func (e *Extractor) Extract(sub *webhook.Submission, now time.Time) *CandidateLead {
	lead := &CandidateLead{
		FormID:      sub.FormID,
		EntryID:     sub.EntryID,
		SourceURL:   sub.SourceURL,
		Referrer:    sub.Referrer,
		UTMSource:   sub.UTMSource,
		UTMMedium:   sub.UTMMedium,
		UTMCampaign: sub.UTMCampaign,
		IPAddress:   sub.IPAddress,
		Source:      sub.Source,
		SubmittedAt: sub.SubmittedTime(now),
	}

	longest := ""
	for _, f := range sub.Fields {
		if e.isSystemKey(f.Key) {
			continue
		}
		value := strings.TrimSpace(f.Value.StringValue())
		if value == "" {
			continue
		}
		if len(value) > len(longest) {
			longest = value
		}
		e.classify(lead, f.Key, f.Value.LabelValue(), value)
	}

	// Message fallback: longest non-empty value, then synthesized fragments.
	if lead.Message == "" {
		lead.Message = longest
	}
	if len(lead.Message) < 5 {
		lead.Message = e.synthesizeMessage(lead)
	}

	// Name fallback: email → phone → Anonymous.
	if lead.Name == "" {
		switch {
		case lead.Email != nil:
			lead.Name = *lead.Email
		case lead.Phone != nil:
			lead.Name = *lead.Phone
		default:
			lead.Name = "Anonymous"
		}
	}

	if lead.Nationality != "" {
		lead.Nationality = e.titleCaser.String(strings.ToLower(lead.Nationality))
	}

	return lead
}

// classify assigns value to at most one slot of lead. The order of checks
// is part of the extraction contract; see the package comment.
func (e *Extractor) classify(lead *CandidateLead, key, label, value string) {
	labelLower := strings.ToLower(label)
	if labelLower == "" && !isNumericKey(key) {
		// Vendors that use semantic keys ("arrival_date") effectively send
		// the label in the key.
		labelLower = strings.ToLower(strings.ReplaceAll(key, "_", " "))
	}

	switch {
	case lead.Email == nil && len(value) < 100 && strings.Contains(value, "@"):
		v := value
		lead.Email = &v
	case lead.Phone == nil && len(value) < 30 && phoneRE.MatchString(value) && digitCount(value) >= 10:
		v := value
		lead.Phone = &v
	case lead.Name == "" && len(value) < 100 && nameRE.MatchString(value):
		lead.Name = value
	case lead.ArrivalDate == nil && containsAny(labelLower, arrivalLabels):
		v := value
		lead.ArrivalDate = &v
	case lead.DepartureDate == nil && containsAny(labelLower, departureLabels):
		v := value
		lead.DepartureDate = &v
	case lead.EnquiryDate == nil && containsAny(labelLower, enquiryLabels):
		v := value
		lead.EnquiryDate = &v
	case lead.BookedDate == nil && containsAny(labelLower, bookedLabels):
		v := value
		lead.BookedDate = &v
	case lead.Adults == 0 && containsAny(labelLower, adultLabels) && parsesInt(value):
		lead.Adults = mustInt(value)
	case lead.Children == 0 && containsAny(labelLower, childLabels) && parsesInt(value):
		lead.Children = mustInt(value)
	case lead.InterestedIn == "" && containsAny(labelLower, interestLabels):
		lead.InterestedIn = value
	case lead.Nationality == "" && containsAny(labelLower, nationLabels):
		lead.Nationality = value
	case lead.LeadValue == 0 && containsAny(labelLower, valueLabels) && extractNumber(value) > 0:
		lead.LeadValue = extractNumber(value)
	case lead.Message == "" && len(value) > 20:
		lead.Message = value
	}
}

// synthesizeMessage builds a labeled summary from whatever structured slots
// were filled, or a generic placeholder when nothing was. Downstream
// scoring depends on the message never being empty.
func (e *Extractor) synthesizeMessage(lead *CandidateLead) string {
	parts := make([]string, 0, 5)
	if lead.InterestedIn != "" {
		parts = append(parts, "Interested in: "+lead.InterestedIn)
	}
	if lead.ArrivalDate != nil {
		parts = append(parts, "Arrival: "+*lead.ArrivalDate)
	}
	if lead.DepartureDate != nil {
		parts = append(parts, "Departure: "+*lead.DepartureDate)
	}
	if lead.Adults > 0 {
		parts = append(parts, "Adults: "+strconv.Itoa(lead.Adults))
	}
	if lead.Children > 0 {
		parts = append(parts, "Children: "+strconv.Itoa(lead.Children))
	}
	if len(parts) == 0 {
		return "Form submission (no message provided)"
	}
	return strings.Join(parts, "; ")
}

func (e *Extractor) isSystemKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, ok := e.system[k]; ok {
		return true
	}
	for _, p := range e.payPrefixes {
		if strings.HasPrefix(k, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isNumericKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			// Gravity-style sub-field ids look like "1.3".
			if r != '.' {
				return false
			}
		}
	}
	return true
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func parsesInt(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}

func mustInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// extractNumber pulls the first numeric substring out of s ("USD 1,500" →
// 1500). Returns 0 when no number is present.
func extractNumber(s string) float64 {
	m := numberRE.FindString(s)
	if m == "" {
		return 0
	}
	m = strings.ReplaceAll(m, ",", "")
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
