package extract

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/lodgera/go-leads-backend/internal/webhook"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func parseSub(t *testing.T, raw string) *webhook.Submission {
	t.Helper()
	sub, err := webhook.ParseSubmission([]byte(raw))
	if err != nil {
		t.Fatalf("parse submission: %v", err)
	}
	return sub
}

func TestExtract_FullLabeledPayload(t *testing.T) {
	// Gravity-Forms style: numeric keys, labels on the values.
	raw := `{
		"form_id": "3",
		"entry_id": "1042",
		"fields": {
			"1": {"value": "Jane Doe", "label": "Your Name"},
			"2": {"value": "jane@example.com", "label": "Email"},
			"3": {"value": "+44 20 7946 0958", "label": "Phone"},
			"4": {"value": "2026-05-01", "label": "Arrival Date"},
			"5": {"value": "2026-05-08", "label": "Departure Date"},
			"6": {"value": "2", "label": "Adults"},
			"7": {"value": "1", "label": "Children"},
			"8": {"value": "Deluxe Suite", "label": "Room Type"},
			"9": {"value": "german", "label": "Nationality"},
			"10": {"value": "USD 1,500", "label": "Budget"},
			"11": {"value": "We are planning our honeymoon and would love a sea view.", "label": "Message"}
		}
	}`
	e := New(Config{})
	lead := e.Extract(parseSub(t, raw), testNow)

	if lead.Name != "Jane Doe" {
		t.Errorf("Name = %q", lead.Name)
	}
	if lead.Email == nil || *lead.Email != "jane@example.com" {
		t.Errorf("Email = %v", lead.Email)
	}
	if lead.Phone == nil || *lead.Phone != "+44 20 7946 0958" {
		t.Errorf("Phone = %v", lead.Phone)
	}
	if lead.ArrivalDate == nil || *lead.ArrivalDate != "2026-05-01" {
		t.Errorf("ArrivalDate = %v", lead.ArrivalDate)
	}
	if lead.DepartureDate == nil || *lead.DepartureDate != "2026-05-08" {
		t.Errorf("DepartureDate = %v", lead.DepartureDate)
	}
	if lead.Adults != 2 || lead.Children != 1 {
		t.Errorf("party = %d adults %d children", lead.Adults, lead.Children)
	}
	if lead.InterestedIn != "Deluxe Suite" {
		t.Errorf("InterestedIn = %q", lead.InterestedIn)
	}
	if lead.Nationality != "German" {
		t.Errorf("Nationality = %q (want title-cased)", lead.Nationality)
	}
	if lead.LeadValue != 1500 {
		t.Errorf("LeadValue = %v", lead.LeadValue)
	}
	if lead.Message != "We are planning our honeymoon and would love a sea view." {
		t.Errorf("Message = %q", lead.Message)
	}
}

func TestExtract_SemanticKeysActAsLabels(t *testing.T) {
	raw := `{
		"entry_id": "7",
		"fields": {
			"full_name": "Nikos Papadopoulos",
			"arrival_date": "2026-07-01",
			"departure_date": "2026-07-05",
			"interested_in": "Family Bungalow"
		}
	}`
	e := New(Config{})
	lead := e.Extract(parseSub(t, raw), testNow)

	if lead.Name != "Nikos Papadopoulos" {
		t.Errorf("Name = %q", lead.Name)
	}
	if lead.ArrivalDate == nil || *lead.ArrivalDate != "2026-07-01" {
		t.Errorf("ArrivalDate = %v", lead.ArrivalDate)
	}
	if lead.DepartureDate == nil || *lead.DepartureDate != "2026-07-05" {
		t.Errorf("DepartureDate = %v", lead.DepartureDate)
	}
	if lead.InterestedIn != "Family Bungalow" {
		t.Errorf("InterestedIn = %q", lead.InterestedIn)
	}
}

func TestExtract_SystemKeysSkipped(t *testing.T) {
	raw := `{
		"entry_id": "8",
		"fields": {
			"ip_address": "203.0.113.9",
			"payment_amount": "200",
			"payment_status": "Paid",
			"transaction_id": "tx-1",
			"email": "sam@example.com"
		}
	}`
	e := New(Config{})
	lead := e.Extract(parseSub(t, raw), testNow)

	if lead.Email == nil || *lead.Email != "sam@example.com" {
		t.Fatalf("Email = %v", lead.Email)
	}
	// Payment bookkeeping must not leak into value or message.
	if lead.LeadValue != 0 {
		t.Errorf("LeadValue = %v (payment_amount must be ignored)", lead.LeadValue)
	}
	if lead.Message == "203.0.113.9" || lead.Message == "Paid" {
		t.Errorf("Message picked up a system value: %q", lead.Message)
	}
}

func TestExtract_FirstMatchWins(t *testing.T) {
	// Two email-shaped values: the first in payload order claims the slot.
	raw := `{
		"entry_id": "9",
		"fields": {
			"primary": "first@example.com",
			"secondary": "second@example.com"
		}
	}`
	e := New(Config{})
	lead := e.Extract(parseSub(t, raw), testNow)
	if lead.Email == nil || *lead.Email != "first@example.com" {
		t.Fatalf("Email = %v, want first occurrence", lead.Email)
	}
}

func TestExtract_MessageFallbacks(t *testing.T) {
	e := New(Config{})

	// Longest value becomes the message when nothing classified as one.
	lead := e.Extract(parseSub(t, `{"entry_id":"1","fields":{"a":"short","b":"a noticeably longer value"}}`), testNow)
	if lead.Message != "a noticeably longer value" {
		t.Errorf("Message = %q, want longest value", lead.Message)
	}

	// A room-type value shaped like a name is claimed by the earlier name
	// rule, and the longest value still serves as the message.
	lead = e.Extract(parseSub(t, `{
		"entry_id": "2",
		"fields": {
			"room_type": {"value": "Sea View Suite", "label": "Room Type"},
			"arrival": {"value": "2026-06-01", "label": "Arrival"},
			"adults": {"value": "2", "label": "Adults"}
		}
	}`), testNow)
	if lead.Name != "Sea View Suite" {
		t.Errorf("Name = %q, want the name rule to claim the value first", lead.Name)
	}
	if lead.InterestedIn != "" {
		t.Errorf("InterestedIn = %q, want empty (value already claimed)", lead.InterestedIn)
	}
	if lead.Message != "Sea View Suite" {
		t.Errorf("Message = %q, want longest value", lead.Message)
	}

	// Every value too short for a message: structured slots synthesize one.
	lead = e.Extract(parseSub(t, `{
		"entry_id": "3",
		"fields": {
			"adults": {"value": "2", "label": "Adults"},
			"children": {"value": "3", "label": "Children"}
		}
	}`), testNow)
	if lead.Message != "Adults: 2; Children: 3" {
		t.Errorf("Message = %q, want synthesized summary", lead.Message)
	}

	// Nothing usable at all: generic placeholder, never empty.
	lead = e.Extract(parseSub(t, `{"entry_id":"4","fields":{"x":"1234"}}`), testNow)
	if lead.Message != "Form submission (no message provided)" {
		t.Errorf("Message = %q", lead.Message)
	}
}

func TestExtract_NameFallbacks(t *testing.T) {
	e := New(Config{})

	lead := e.Extract(parseSub(t, `{"entry_id":"1","fields":{"email":"kim@example.com"}}`), testNow)
	if lead.Name != "kim@example.com" {
		t.Errorf("Name = %q, want email fallback", lead.Name)
	}

	lead = e.Extract(parseSub(t, `{"entry_id":"2","fields":{"phone":"+1 212 555 0134"}}`), testNow)
	if lead.Name != "+1 212 555 0134" {
		t.Errorf("Name = %q, want phone fallback", lead.Name)
	}

	lead = e.Extract(parseSub(t, `{"entry_id":"3","fields":{"note":"1234"}}`), testNow)
	if lead.Name != "Anonymous" {
		t.Errorf("Name = %q, want Anonymous", lead.Name)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	raw := `{
		"entry_id": "77",
		"fields": {
			"name": "Ana Lima",
			"email": "ana@example.com",
			"country": {"value": "brazil", "label": "Country"},
			"budget": {"value": "2.000", "label": "Budget"}
		}
	}`
	e := New(Config{})
	first := e.Extract(parseSub(t, raw), testNow)
	for i := 0; i < 5; i++ {
		if got := e.Extract(parseSub(t, raw), testNow); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d diverged:\nfirst %+v\ngot   %+v", i, first, got)
		}
	}
}

func TestExtract_CustomSystemKeys(t *testing.T) {
	e := New(Config{SystemKeys: []string{"internal_ref"}})
	lead := e.Extract(parseSub(t, `{"entry_id":"5","fields":{"internal_ref":"REF('x')-99","note":"hello there"}}`), testNow)
	if lead.Message == "REF('x')-99" {
		t.Fatalf("custom system key not excluded")
	}
	// The default set no longer applies when overridden.
	lead = e.Extract(parseSub(t, `{"entry_id":"6","fields":{"user_agent":"Mozilla/5.0 (compatible; probe)"}}`), testNow)
	if lead.Message != "Mozilla/5.0 (compatible; probe)" {
		t.Fatalf("expected override to replace default set, message = %q", lead.Message)
	}
}

func TestExtractNumberAndHelpers(t *testing.T) {
	if got := extractNumber("USD 1,500"); got != 1500 {
		t.Errorf("extractNumber(USD 1,500) = %v", got)
	}
	if got := extractNumber("about 19.5 per night"); got != 19.5 {
		t.Errorf("extractNumber(19.5) = %v", got)
	}
	if got := extractNumber("no numbers"); got != 0 {
		t.Errorf("extractNumber(no numbers) = %v", got)
	}
	if !isNumericKey("1.3") || isNumericKey("arrival_date") || isNumericKey("") {
		t.Errorf("isNumericKey misclassified")
	}
	if digitCount("+44 (0)20 7946 0958") != 13 {
		t.Errorf("digitCount = %d", digitCount("+44 (0)20 7946 0958"))
	}
}

// Guard against regressions in how pair fields round-trip through the JSON
// decoder into the classifier: labels drive classification, values fill slots.
func TestExtract_PairLabelDrivesClassification(t *testing.T) {
	var fields webhook.Fields
	raw := `{"12":{"value":"2026-09-10","label":"Check-in"},"13":{"value":"2026-09-14","label":"Check-out"}}`
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sub := &webhook.Submission{EntryID: "1", FormID: "0", Fields: fields}

	lead := New(Config{}).Extract(sub, testNow)
	if lead.ArrivalDate == nil || *lead.ArrivalDate != "2026-09-10" {
		t.Errorf("ArrivalDate = %v", lead.ArrivalDate)
	}
	if lead.DepartureDate == nil || *lead.DepartureDate != "2026-09-14" {
		t.Errorf("DepartureDate = %v", lead.DepartureDate)
	}
}
