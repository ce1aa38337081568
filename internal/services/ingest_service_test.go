package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/extract"
	"github.com/lodgera/go-leads-backend/internal/repo"
	"github.com/lodgera/go-leads-backend/internal/score"
	"github.com/lodgera/go-leads-backend/internal/webhook"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:leadsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func newIngestService(db *gorm.DB) *IngestService {
	return &IngestService{
		DB:        db,
		Extractor: extract.New(extract.Config{}),
		Quality:   score.NewQualityScorer(score.DefaultQualityConfig()),
		Spam:      score.NewSpamScorer(score.DefaultSpamConfig()),
	}
}

func testSite(secret string) *domain.SiteConfig {
	return &domain.SiteConfig{
		ID:            uuid.NewString(),
		Name:          "Seaside Hotel",
		APIKey:        "key-" + uuid.NewString(),
		WebhookSecret: secret,
		Active:        true,
	}
}

const goodBody = `{
	"form_id": "3",
	"entry_id": "1001",
	"fields": {
		"1": "Jane Doe",
		"2": "jane@example.com",
		"3": {"value": "2026-06-01", "label": "Arrival Date"},
		"4": {"value": "2026-06-08", "label": "Departure Date"},
		"5": {"value": "2", "label": "Adults"},
		"6": "We would love a room with a sea view for our anniversary."
	},
	"source_url": "https://seaside.example/contact",
	"ip": "203.0.113.7"
}`

func TestIngest_AcceptsAndScores(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := newIngestService(db)
	site := testSite("")

	res, err := svc.Ingest(context.Background(), site, []byte(goodBody), "", "198.51.100.1")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("first delivery marked duplicate")
	}
	if res.LeadID == "" || res.Lead == nil {
		t.Fatalf("result missing lead: %+v", res)
	}

	stored, err := repo.GetLead(context.Background(), db, res.LeadID)
	if err != nil {
		t.Fatalf("stored lead: %v", err)
	}
	if stored.CompositeKey != domain.CompositeKeyFor(site.ID, "3", "1001") {
		t.Fatalf("CompositeKey = %q", stored.CompositeKey)
	}
	if stored.Name != "Jane Doe" || stored.Email == nil || *stored.Email != "jane@example.com" {
		t.Fatalf("extraction: %+v", stored)
	}
	if stored.IPAddress != "203.0.113.7" {
		t.Fatalf("payload IP must win over remote addr: %q", stored.IPAddress)
	}
	if stored.QualityTier != domain.TierHigh {
		t.Fatalf("QualityTier = %q (score %v, reasons %v)", stored.QualityTier, stored.QualityScore, stored.QualityReasons)
	}
	if stored.IsSpam || stored.Status != domain.StatusNew {
		t.Fatalf("clean lead: spam=%v status=%q", stored.IsSpam, stored.Status)
	}
	if stored.RawPayload != goodBody {
		t.Fatalf("raw payload not preserved verbatim")
	}
}

func TestIngest_DuplicateDeliveryReturnsOriginal(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := newIngestService(db)
	site := testSite("")

	first, err := svc.Ingest(context.Background(), site, []byte(goodBody), "", "")
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	second, err := svc.Ingest(context.Background(), site, []byte(goodBody), "", "")
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("redelivery not marked duplicate")
	}
	if second.LeadID != first.LeadID {
		t.Fatalf("duplicate LeadID = %s, want original %s", second.LeadID, first.LeadID)
	}

	var n int64
	if err := db.Model(&domain.Lead{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("leads stored = %d, want 1", n)
	}
}

func TestIngest_LostInsertRaceReturnsWinner(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := newIngestService(db)
	site := testSite("")

	// A concurrent delivery stores the winning row after this request's
	// duplicate pre-check has come back empty but before its own insert. An
	// after-query callback interposes the winner at exactly that moment; the
	// unique index then rejects the insert and the stored row must win.
	winner := &domain.Lead{
		ID:           uuid.NewString(),
		SiteID:       site.ID,
		FormID:       "3",
		EntryID:      "1001",
		CompositeKey: domain.CompositeKeyFor(site.ID, "3", "1001"),
		Name:         "Jane Doe",
		Message:      "We would love a room with a sea view for our anniversary.",
		SubmittedAt:  time.Now().UTC(),
		QualityTier:  domain.TierMedium,
		Status:       domain.StatusNew,
	}
	interposed := false
	err := db.Callback().Query().After("gorm:query").Register("interpose_winner", func(tx *gorm.DB) {
		if interposed || tx.Statement.Table != "leads" || !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return
		}
		interposed = true
		if cerr := db.Session(&gorm.Session{NewDB: true}).Create(winner).Error; cerr != nil {
			t.Errorf("interposing winner: %v", cerr)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	res, err := svc.Ingest(context.Background(), site, []byte(goodBody), "", "198.51.100.4")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !interposed {
		t.Fatalf("pre-check miss never observed; race was not exercised")
	}
	if !res.Duplicate {
		t.Fatalf("lost race not reported as duplicate")
	}
	if res.LeadID != winner.ID {
		t.Fatalf("LeadID = %s, want winner %s", res.LeadID, winner.ID)
	}
	if res.Lead == nil || res.Lead.Message != winner.Message {
		t.Fatalf("result does not carry the stored winner: %+v", res.Lead)
	}

	var n int64
	if err := db.Model(&domain.Lead{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("leads stored = %d, want only the winner", n)
	}
}

func TestIngest_SignatureEnforcement(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := newIngestService(db)

	body := []byte(goodBody)
	site := testSite("topsecret")

	// Missing signature with a configured secret.
	if _, err := svc.Ingest(context.Background(), site, body, "", ""); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("missing signature: %v", err)
	}
	// Wrong signature.
	if _, err := svc.Ingest(context.Background(), site, body, "deadbeef", ""); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong signature: %v", err)
	}
	// Correct signature passes.
	if _, err := svc.Ingest(context.Background(), site, body, webhook.Sign(body, "topsecret"), ""); err != nil {
		t.Fatalf("valid signature: %v", err)
	}
	// Sites without a secret skip verification entirely.
	open := testSite("")
	if _, err := svc.Ingest(context.Background(), open, body, "", ""); err != nil {
		t.Fatalf("no-secret site: %v", err)
	}
}

func TestIngest_InvalidPayload(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := newIngestService(db)
	site := testSite("")

	for _, body := range []string{
		`not json`,
		`{"form_id": "3", "fields": {"1": "x"}}`, // no entry_id
		`{"form_id": "3", "entry_id": "9", "fields": {}}`,
	} {
		if _, err := svc.Ingest(context.Background(), site, []byte(body), "", ""); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("body %q: err = %v, want ErrInvalidPayload", body, err)
		}
	}
}

func TestIngest_SpamAutoStatusAndAudit(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := newIngestService(db)
	site := testSite("")

	// No contact details, link-stuffed shouting message: well past the threshold.
	spamBody := `{
		"form_id": "3",
		"entry_id": "666",
		"fields": {
			"1": "CHEAP DEALS HTTP://SPAM.EXAMPLE HTTP://JUNK.EXAMPLE CLICK NOW"
		}
	}`

	res, err := svc.Ingest(context.Background(), site, []byte(spamBody), "", "")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	stored, err := repo.GetLead(context.Background(), db, res.LeadID)
	if err != nil {
		t.Fatalf("stored lead: %v", err)
	}
	if !stored.IsSpam || stored.Status != domain.StatusSpam {
		t.Fatalf("spam=%v status=%q score=%v flags=%v", stored.IsSpam, stored.Status, stored.SpamScore, stored.SpamFlags)
	}

	trail, err := repo.ListStatusChanges(context.Background(), db, res.LeadID)
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(trail))
	}
	if trail[0].Actor != nil {
		t.Fatalf("system transition must have nil actor")
	}
	if trail[0].OldValue != domain.StatusNew || trail[0].NewValue != domain.StatusSpam {
		t.Fatalf("audit row: %+v", trail[0])
	}
}

func TestIngest_RepetitionSignalCountsStoredLeads(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := newIngestService(db)
	site := testSite("")

	// Submissions from the same IP with distinct entry IDs. The first four are
	// clean; the fifth sees four priors and trips the repetition rule.
	mk := func(entry string) string {
		return fmt.Sprintf(`{"form_id": "3", "entry_id": %q, "fields": {"1": "Jane Doe",
			"2": "We are planning a long summer stay by the water."}, "ip": "203.0.113.9"}`, entry)
	}

	var last *IngestResult
	for i := 0; i < 5; i++ {
		res, err := svc.Ingest(context.Background(), site, []byte(mk(fmt.Sprintf("%d", 2000+i))), "", "")
		if err != nil {
			t.Fatalf("Ingest %d: %v", i, err)
		}
		last = res
	}

	stored, err := repo.GetLead(context.Background(), db, last.LeadID)
	if err != nil {
		t.Fatalf("stored lead: %v", err)
	}
	found := false
	for _, f := range stored.SpamFlags {
		if f == "4 submissions from same origin in 10m0s" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected repetition flag on fifth submission, got %v", stored.SpamFlags)
	}
}

func TestIngest_StoreFailureSurfaces(t *testing.T) {
	// No tables migrated: the duplicate pre-check hits a real store error and
	// the pipeline must fail the request rather than proceed.
	db := newSvcDB(t)
	svc := newIngestService(db)
	site := testSite("")

	if _, err := svc.Ingest(context.Background(), site, []byte(goodBody), "", ""); err == nil {
		t.Fatalf("expected store error without schema")
	}
}
