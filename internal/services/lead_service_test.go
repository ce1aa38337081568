package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/repo"
)

func seedLead(t *testing.T, db *gorm.DB, siteID, entryID, status string, submittedAt time.Time) *domain.Lead {
	t.Helper()
	l := &domain.Lead{
		ID:           uuid.NewString(),
		SiteID:       siteID,
		FormID:       "3",
		EntryID:      entryID,
		CompositeKey: domain.CompositeKeyFor(siteID, "3", entryID),
		Name:         "Jane Doe",
		Status:       status,
		QualityTier:  domain.TierMedium,
		SubmittedAt:  submittedAt,
	}
	if err := repo.CreateLead(context.Background(), db, l); err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return l
}

func TestListPage_PaginationAndFilter(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{})
	svc := &LeadService{DB: db}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		status := domain.StatusNew
		if i%5 == 0 {
			status = domain.StatusContacted
		}
		seedLead(t, db, "s1", fmt.Sprintf("%d", 100+i), status, base.Add(time.Duration(i)*time.Minute))
	}

	leads, total, err := svc.ListPage(context.Background(), "s1", "", 1, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 25 || len(leads) != 10 {
		t.Fatalf("total=%d len=%d", total, len(leads))
	}
	// Newest first.
	if leads[0].EntryID != "124" {
		t.Fatalf("first = %s", leads[0].EntryID)
	}

	// Last page is short.
	leads, total, err = svc.ListPage(context.Background(), "s1", "", 3, 10)
	if err != nil || total != 25 || len(leads) != 5 {
		t.Fatalf("page 3: total=%d len=%d err=%v", total, len(leads), err)
	}

	// Status filter narrows both the page and the count.
	leads, total, err = svc.ListPage(context.Background(), "s1", domain.StatusContacted, 1, 10)
	if err != nil || total != 5 || len(leads) != 5 {
		t.Fatalf("filter: total=%d len=%d err=%v", total, len(leads), err)
	}

	// Out-of-range paging parameters fall back to defaults.
	leads, _, err = svc.ListPage(context.Background(), "s1", "", -3, 5000)
	if err != nil || len(leads) != 20 {
		t.Fatalf("clamped page: len=%d err=%v", len(leads), err)
	}

	// Unknown status is rejected up front.
	if _, _, err := svc.ListPage(context.Background(), "s1", "bogus", 1, 10); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bogus status: %v", err)
	}
}

func TestGet_ScopedToSite(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{})
	svc := &LeadService{DB: db}

	l := seedLead(t, db, "s1", "100", domain.StatusNew, time.Now().UTC())

	got, err := svc.Get(context.Background(), "s1", l.ID)
	if err != nil || got.ID != l.ID {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	// Another site's API key must not see the lead.
	if _, err := svc.Get(context.Background(), "s2", l.ID); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("cross-site read: %v", err)
	}
	if _, err := svc.Get(context.Background(), "s1", uuid.NewString()); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("missing lead: %v", err)
	}
}

func TestUpdateStatus_TransitionAndAudit(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := &LeadService{DB: db}

	l := seedLead(t, db, "s1", "100", domain.StatusNew, time.Now().UTC())
	actor := "ops@example.com"

	updated, err := svc.UpdateStatus(context.Background(), "s1", l.ID, domain.StatusContacted, &actor, "called back")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.StatusContacted {
		t.Fatalf("Status = %q", updated.Status)
	}

	trail, err := repo.ListStatusChanges(context.Background(), db, l.ID)
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(trail))
	}
	row := trail[0]
	if row.OldValue != domain.StatusNew || row.NewValue != domain.StatusContacted {
		t.Fatalf("audit row: %+v", row)
	}
	if row.Actor == nil || *row.Actor != actor || row.Reason != "called back" {
		t.Fatalf("audit attribution: %+v", row)
	}
}

func TestUpdateStatus_NoOpSkipsAudit(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := &LeadService{DB: db}

	l := seedLead(t, db, "s1", "100", domain.StatusNew, time.Now().UTC())

	if _, err := svc.UpdateStatus(context.Background(), "s1", l.ID, domain.StatusNew, nil, ""); err != nil {
		t.Fatalf("no-op UpdateStatus: %v", err)
	}
	trail, err := repo.ListStatusChanges(context.Background(), db, l.ID)
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(trail) != 0 {
		t.Fatalf("no-op must not append audit rows: %+v", trail)
	}
}

func TestUpdateStatus_Validation(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := &LeadService{DB: db}

	l := seedLead(t, db, "s1", "100", domain.StatusNew, time.Now().UTC())

	if _, err := svc.UpdateStatus(context.Background(), "s1", l.ID, "archived", nil, ""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("invalid status: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "s1", uuid.NewString(), domain.StatusContacted, nil, ""); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("missing lead: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "s2", l.ID, domain.StatusContacted, nil, ""); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("cross-site update: %v", err)
	}
}

func TestHistory(t *testing.T) {
	db := newSvcDB(t, &domain.Lead{}, &domain.StatusChange{})
	svc := &LeadService{DB: db}

	l := seedLead(t, db, "s1", "100", domain.StatusNew, time.Now().UTC())

	for i, status := range []string{domain.StatusContacted, domain.StatusQualified} {
		if _, err := svc.UpdateStatus(context.Background(), "s1", l.ID, status, nil, fmt.Sprintf("step %d", i)); err != nil {
			t.Fatalf("UpdateStatus %d: %v", i, err)
		}
	}

	trail, err := svc.History(context.Background(), "s1", l.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("len = %d, want 2", len(trail))
	}
	if trail[0].NewValue != domain.StatusContacted || trail[1].NewValue != domain.StatusQualified {
		t.Fatalf("trail order: %+v", trail)
	}

	if _, err := svc.History(context.Background(), "s2", l.ID); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("cross-site history: %v", err)
	}
}
