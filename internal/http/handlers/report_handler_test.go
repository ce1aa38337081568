package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/report"
)

func TestDailyReport_Endpoint(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestAPI(t, db)
	site := mustCreateSite(t, db, "")

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		l := seedHandlerLead(t, db, site.ID, fmt.Sprintf("%d", 100+i), domain.StatusNew, day.Add(time.Duration(i)*time.Minute))
		if i < 3 {
			if err := db.Model(&domain.Lead{}).Where("id = ?", l.ID).Update("is_spam", true).Error; err != nil {
				t.Fatalf("mark spam: %v", err)
			}
		}
	}

	w := doJSON(r, http.MethodGet, "/api/v1/reports/daily?date=2026-08-28", site.APIKey, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rep report.DailyReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Date != "2026-08-28" || rep.Stats.Total != 10 || rep.Stats.Spam != 3 {
		t.Fatalf("report: %+v", rep)
	}
	found := false
	for _, ex := range rep.Exceptions {
		if ex.Type == report.TypeHighSpamRate {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected spam-rate exception: %+v", rep.Exceptions)
	}
}

func TestDailyReport_DefaultsToYesterday(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestAPI(t, db)
	site := mustCreateSite(t, db, "")

	w := doJSON(r, http.MethodGet, "/api/v1/reports/daily", site.APIKey, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rep report.DailyReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	if rep.Date != yesterday {
		t.Fatalf("Date = %q, want %q", rep.Date, yesterday)
	}
}

func TestDailyReport_BadDate(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestAPI(t, db)
	site := mustCreateSite(t, db, "")

	w := doJSON(r, http.MethodGet, "/api/v1/reports/daily?date=28-08-2026", site.APIKey, nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
