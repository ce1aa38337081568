// Package services defines the business logic for lead ingestion, lead
// management, and daily reporting. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Ingestion-related errors. Authentication failures (unknown key, inactive
// site) never reach this layer; middleware.SiteAuth rejects them at the
// boundary.
var (
	// ErrBadSignature is returned when a site has a webhook secret configured
	// and the presented signature is missing or does not match the body.
	ErrBadSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload is returned when the webhook body cannot be decoded
	// or carries no usable submission fields.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrConflict is returned when an insert loses the composite-key race but
	// the winning row cannot be read back. The caller should retry.
	ErrConflict = errors.New("conflicting submission in flight")
)

// Lead-management errors.
var (
	// ErrLeadNotFound indicates that the requested lead does not exist or is
	// not accessible for the current site.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidStatus is returned when a status update names a value outside
	// the lead lifecycle set.
	ErrInvalidStatus = errors.New("invalid lead status")
)

// Reporting errors.
var (
	// ErrSiteNotFound indicates that the requested site does not exist.
	ErrSiteNotFound = errors.New("site not found")
)
