package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProjectNotInitialized is returned when a calculation is requested
	// before the project has a non-zero estimate total.
	ErrProjectNotInitialized = errors.New("project_not_initialized")
	// ErrProjectNotFound is returned when an operation references an
	// estimate ID with no ledger.
	ErrProjectNotFound = errors.New("project_not_found")
	// ErrInsufficientHoldback is returned when a release exceeds the
	// available (withheld minus released) holdback.
	ErrInsufficientHoldback = errors.New("insufficient_holdback")
	// ErrDrawNotFound is returned when a draw number does not exist.
	ErrDrawNotFound = errors.New("draw_not_found")
	// ErrInvalidProjectData is returned by Import on malformed payloads.
	ErrInvalidProjectData = errors.New("invalid_project_data")
	// ErrPercentRegression is returned when a draw is requested at a
	// percent below what has already been invoiced and the billing config
	// does not allow credit adjustments.
	ErrPercentRegression = errors.New("percent_regression")
)

type CreateDrawRequest struct {
	EstimateID      string
	PercentComplete decimal.Decimal
	InvoiceNumber   string
	Notes           string
}

type ReleaseHoldbackRequest struct {
	EstimateID    string
	ReleaseAmount decimal.Decimal
	InvoiceNumber string
	Notes         string
}

// DrawResult is returned by CreateDraw: the appended draw, the updated
// ledger, and the calculation it was based on.
type DrawResult struct {
	Draw        Draw          `json:"draw"`
	Project     ProjectLedger `json:"project"`
	Calculation Calculation   `json:"calculation"`
}

// ReleaseResult is returned by ReleaseHoldback.
type ReleaseResult struct {
	Draw              Draw            `json:"draw"`
	Project           ProjectLedger   `json:"project"`
	RemainingHoldback decimal.Decimal `json:"remaining_holdback"`
}

// Service is the progress billing engine. Every mutation is a
// read-modify-write of one ledger, persisted before it is reported back.
type Service interface {
	// GetOrCreate returns the ledger for an estimate, creating and
	// persisting a zeroed one if absent.
	GetOrCreate(ctx context.Context, estimateID string) (ProjectLedger, error)

	// Initialize sets metadata and the holdback rate from a normalized
	// estimate. Existing draws and totals are left untouched; metadata is
	// overwritten on every call.
	Initialize(ctx context.Context, est EstimateInput, holdbackPercent decimal.Decimal) (ProjectLedger, error)

	// Calculate computes a draw at the given cumulative percent without
	// mutating anything.
	Calculate(ctx context.Context, estimateID string, percentComplete decimal.Decimal) (Calculation, error)

	// CreateDraw commits a progress draw and advances the ledger totals.
	CreateDraw(ctx context.Context, req CreateDrawRequest) (DrawResult, error)

	// ReleaseHoldback commits a holdback-release draw.
	ReleaseHoldback(ctx context.Context, req ReleaseHoldbackRequest) (ReleaseResult, error)

	// MarkDrawPaid flips the payment flag on an existing draw. This is the
	// only permitted post-creation draw mutation.
	MarkDrawPaid(ctx context.Context, estimateID string, drawNumber int, paidDate *time.Time) (Draw, error)

	// ListProjects returns dashboard summaries for every ledger.
	ListProjects(ctx context.Context) ([]ProjectSummary, error)

	// Get returns the full ledger for an estimate.
	Get(ctx context.Context, estimateID string) (ProjectLedger, error)

	// Delete removes a ledger and all of its draws.
	Delete(ctx context.Context, estimateID string) error

	// Export serializes one ledger to its JSON text form.
	Export(ctx context.Context, estimateID string) (string, error)

	// Import restores a ledger from its JSON text form, replacing any
	// existing ledger for the same estimate.
	Import(ctx context.Context, data string) (ProjectLedger, error)
}
