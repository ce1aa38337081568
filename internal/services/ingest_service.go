// Package services – IngestService
//
// This file implements IngestService, the application-level component that
// owns the webhook ingestion pipeline. It verifies the payload signature,
// parses and extracts the submission, suppresses duplicates via the
// composite-key unique index, scores quality and spam, and persists the lead
// together with any system-initiated audit rows in one transaction.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include site identifiers and pipeline outcomes. Every store round-trip in
// the hot path is bounded by a configurable timeout so a wedged database
// fails the request instead of hanging the webhook sender.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/extract"
	"github.com/lodgera/go-leads-backend/internal/repo"
	"github.com/lodgera/go-leads-backend/internal/score"
	"github.com/lodgera/go-leads-backend/internal/webhook"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IngestResult is the outcome of one webhook delivery. Duplicate deliveries
// succeed and carry the originally stored lead's ID.
type IngestResult struct {
	LeadID    string
	Duplicate bool
	Lead      *domain.Lead
}

// IngestService coordinates the ingestion pipeline. All collaborators are
// injected so tests can substitute fakes; the zero StoreTimeout disables the
// per-call bound (tests only).
type IngestService struct {
	DB        *gorm.DB
	Extractor *extract.Extractor
	Quality   *score.QualityScorer
	Spam      *score.SpamScorer

	// StoreTimeout bounds each database round-trip in the pipeline.
	StoreTimeout time.Duration
}

// Ingest runs the full pipeline for one webhook delivery. The site has
// already been resolved from the API key by the caller. remoteIP is the
// transport-level peer address, used when the payload omits its own.
//
// Error contract:
//   - ErrBadSignature:  secret configured, signature absent or wrong
//   - ErrInvalidPayload: body undecodable or without fields
//   - ErrConflict:      lost insert race and winner unreadable
//   - anything else:    store failure (caller maps to 500)
func (s *IngestService) Ingest(ctx context.Context, site *domain.SiteConfig, body []byte, signature, remoteIP string) (*IngestResult, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "Ingest",
		trace.WithAttributes(attribute.String("site.id", site.ID)),
	)
	defer span.End()

	// 1. Signature. Sites without a secret opted out of verification.
	if !webhook.VerifySignature(body, signature, site.WebhookSecret) {
		ingestTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, ErrBadSignature
	}

	// 2. Parse.
	sub, err := webhook.ParseSubmission(body)
	if err != nil {
		ingestTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// 3. Duplicate check. The unique index remains the authority; this read
	// only short-circuits the common redelivery case before scoring work.
	key := domain.CompositeKeyFor(site.ID, sub.FormID, sub.EntryID)
	existing, err := s.getByKey(ctx, key)
	if err == nil {
		span.SetAttributes(attribute.Bool("lead.duplicate", true))
		ingestTotal.WithLabelValues(outcomeDuplicate).Inc()
		return &IngestResult{LeadID: existing.ID, Duplicate: true, Lead: existing}, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	// 4. Extract.
	now := time.Now().UTC()
	cand := s.Extractor.Extract(sub, now)
	if cand.IPAddress == "" {
		cand.IPAddress = remoteIP
	}

	// 5. Behavioral signal. A store failure here fails the request; the spam
	// model must never see a silently missing count.
	recent, err := s.recentSubmissions(ctx, site.ID, cand, now)
	if err != nil {
		return nil, fmt.Errorf("counting recent submissions: %w", err)
	}

	// 6. Score.
	quality := s.Quality.Score(cand)
	spam := s.Spam.Score(score.Input{
		Name:              cand.Name,
		Email:             cand.Email,
		Phone:             cand.Phone,
		Message:           cand.Message,
		RecentSubmissions: recent,
	})
	qualityScores.Observe(quality.Score)
	spamScores.Observe(spam.Score)

	status := domain.StatusNew
	if spam.IsSpam {
		status = domain.StatusSpam
	}

	lead := &domain.Lead{
		ID:           uuid.NewString(),
		SiteID:       site.ID,
		FormID:       sub.FormID,
		EntryID:      sub.EntryID,
		CompositeKey: key,

		Name:          cand.Name,
		Email:         cand.Email,
		Phone:         cand.Phone,
		Message:       cand.Message,
		ArrivalDate:   cand.ArrivalDate,
		DepartureDate: cand.DepartureDate,
		EnquiryDate:   cand.EnquiryDate,
		BookedDate:    cand.BookedDate,
		Adults:        cand.Adults,
		Children:      cand.Children,
		InterestedIn:  cand.InterestedIn,
		Nationality:   cand.Nationality,
		LeadValue:     cand.LeadValue,
		Source:        cand.Source,

		SourceURL:   cand.SourceURL,
		Referrer:    cand.Referrer,
		UTMSource:   cand.UTMSource,
		UTMMedium:   cand.UTMMedium,
		UTMCampaign: cand.UTMCampaign,
		IPAddress:   cand.IPAddress,
		SubmittedAt: cand.SubmittedAt,

		QualityScore:   quality.Score,
		QualityTier:    quality.Tier,
		QualityReasons: quality.Reasons,
		SpamScore:      spam.Score,
		SpamFlags:      spam.Flags,
		IsSpam:         spam.IsSpam,
		Status:         status,

		RawPayload: string(body),
	}

	// 7. Persist lead and system audit row atomically.
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err = s.DB.WithContext(sctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateLead(sctx, tx, lead); err != nil {
			return err
		}
		if spam.IsSpam {
			reason := fmt.Sprintf("spam score %.2f exceeds threshold", spam.Score)
			if _, err := repo.CreateStatusChange(sctx, tx, lead.ID, "status", domain.StatusNew, domain.StatusSpam, nil, reason); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost the race to a concurrent delivery; the winner is the stored row.
		winner, gerr := s.getByKey(ctx, key)
		if gerr != nil {
			return nil, ErrConflict
		}
		span.SetAttributes(attribute.Bool("lead.duplicate", true))
		ingestTotal.WithLabelValues(outcomeDuplicate).Inc()
		return &IngestResult{LeadID: winner.ID, Duplicate: true, Lead: winner}, nil
	}
	if err != nil {
		return nil, err
	}

	outcome := outcomeAccepted
	if spam.IsSpam {
		outcome = outcomeSpam
	}
	ingestTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.String("lead.id", lead.ID),
		attribute.String("lead.tier", lead.QualityTier),
		attribute.Bool("lead.spam", lead.IsSpam),
	)
	return &IngestResult{LeadID: lead.ID, Lead: lead}, nil
}

func (s *IngestService) getByKey(ctx context.Context, key string) (*domain.Lead, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return repo.GetLeadByCompositeKey(sctx, s.DB, key)
}

func (s *IngestService) recentSubmissions(ctx context.Context, siteID string, cand *extract.CandidateLead, now time.Time) (int, error) {
	email := ""
	if cand.Email != nil {
		email = *cand.Email
	}
	if email == "" && cand.IPAddress == "" {
		return 0, nil
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	since := now.Add(-s.Spam.Config().RecentWindow)
	n, err := repo.CountRecentSubmissions(sctx, s.DB, siteID, cand.IPAddress, email, since)
	return int(n), err
}

func (s *IngestService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.StoreTimeout)
}
