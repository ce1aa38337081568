// Package services – ReportService
//
// This file implements ReportService, which builds the per-site daily
// exception reports and hands them to a pluggable emitter. The default
// emitter logs reports as structured events; alerting systems can replace it
// without touching the analysis.

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/report"
	"github.com/lodgera/go-leads-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// trailingDays is the window used for the spike baseline.
const trailingDays = 7

// ReportEmitter delivers a finished daily report to an external destination.
// Emit failures are logged and do not abort the run; a report for one site
// must never block reports for the rest.
type ReportEmitter interface {
	Emit(ctx context.Context, rep report.DailyReport) error
}

// LogEmitter writes daily reports as structured log events, one per site.
// Exceptions are logged individually at a level matching their severity.
type LogEmitter struct {
	Logger zerolog.Logger
}

// Emit implements ReportEmitter.
func (e LogEmitter) Emit(_ context.Context, rep report.DailyReport) error {
	e.Logger.Info().
		Str("site_id", rep.SiteID).
		Str("site_name", rep.SiteName).
		Str("date", rep.Date).
		Int("total", rep.Stats.Total).
		Int("high", rep.Stats.High).
		Int("medium", rep.Stats.Medium).
		Int("low", rep.Stats.Low).
		Int("spam", rep.Stats.Spam).
		Int("exceptions", len(rep.Exceptions)).
		Msg(rep.Summary)

	for _, ex := range rep.Exceptions {
		ev := e.Logger.Warn()
		if ex.Severity == report.SeverityError {
			ev = e.Logger.Error()
		}
		ev.
			Str("site_id", rep.SiteID).
			Str("date", rep.Date).
			Str("type", ex.Type).
			Int("count", ex.Count).
			Msg(ex.Detail)
	}
	return nil
}

// ReportService builds and emits daily exception reports.
type ReportService struct {
	DB       *gorm.DB
	Analyzer *report.Analyzer
	Emitter  ReportEmitter
	Logger   zerolog.Logger
}

// BuildDailyReport assembles the report for one site and UTC calendar day
// without emitting it. Used by the on-demand report endpoint.
func (s *ReportService) BuildDailyReport(ctx context.Context, siteID string, day time.Time) (*report.DailyReport, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "BuildDailyReport",
		trace.WithAttributes(
			attribute.String("site.id", siteID),
			attribute.String("report.date", day.Format("2006-01-02")),
		),
	)
	defer span.End()

	site, err := repo.GetSite(ctx, s.DB, siteID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}

	leads, err := repo.LeadsForDay(ctx, s.DB, site.ID, day)
	if err != nil {
		return nil, err
	}
	avg, err := repo.TrailingDailyAverage(ctx, s.DB, site.ID, day, trailingDays)
	if err != nil {
		return nil, err
	}

	rep := s.Analyzer.Build(*site, day, leads, avg)
	return &rep, nil
}

// RunDailyReports builds and emits a report for every active site. Failures
// are logged per site and the run continues; the first error encountered is
// returned after all sites have been attempted.
func (s *ReportService) RunDailyReports(ctx context.Context, day time.Time) error {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "RunDailyReports",
		trace.WithAttributes(attribute.String("report.date", day.Format("2006-01-02"))),
	)
	defer span.End()

	sites, err := repo.ListActiveSites(ctx, s.DB)
	if err != nil {
		return err
	}

	var firstErr error
	for _, site := range sites {
		rep, err := s.BuildDailyReport(ctx, site.ID, day)
		if err != nil {
			s.Logger.Error().Err(err).Str("site_id", site.ID).Msg("daily report build failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := s.Emitter.Emit(ctx, *rep); err != nil {
			s.Logger.Error().Err(err).Str("site_id", site.ID).Msg("daily report emit failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
