// Package domain contains the draw ledger models for progress billing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DrawKind distinguishes the two billing event variants.
type DrawKind string

const (
	// DrawKindProgress bills a slice of the contract and withholds holdback.
	DrawKindProgress DrawKind = "progress"
	// DrawKindHoldbackRelease pays previously withheld holdback back out.
	DrawKindHoldbackRelease DrawKind = "holdback_release"
)

// Draw is one billing event against a project. Immutable once created,
// except the payment-tracking fields.
type Draw struct {
	ID            snowflake.ID `json:"id"`
	DrawNumber    int          `json:"draw_number"`
	Kind          DrawKind     `json:"kind"`
	InvoiceNumber string       `json:"invoice_number"`
	Date          time.Time    `json:"date"`

	// PercentComplete is the cumulative percent billed through this draw.
	// Nil for holdback releases, which do not advance progress.
	PercentComplete *decimal.Decimal `json:"percent_complete"`

	GrossAmount decimal.Decimal `json:"gross_amount"`
	// HoldbackAmount is positive for withheld holdback and negative for a
	// release, matching the amounts that appear on the printed invoice.
	HoldbackAmount decimal.Decimal `json:"holdback_amount"`
	NetPayable     decimal.Decimal `json:"net_payable"`

	// HoldbackPercent records the rate this draw was cut at, so history
	// stays faithful if the project rate is later re-initialized.
	HoldbackPercent decimal.Decimal `json:"holdback_percent"`

	CumulativeInvoiced decimal.Decimal `json:"cumulative_invoiced"`
	CumulativePercent  decimal.Decimal `json:"cumulative_percent"`
	RemainingToBill    decimal.Decimal `json:"remaining_to_bill"`

	Notes    string     `json:"notes,omitempty"`
	IsPaid   bool       `json:"is_paid"`
	PaidDate *time.Time `json:"paid_date"`
}

// IsHoldbackRelease reports whether this draw returns holdback rather
// than billing progress.
func (d Draw) IsHoldbackRelease() bool {
	return d.Kind == DrawKindHoldbackRelease
}

// ProjectLedger tracks cumulative billing for one estimate.
type ProjectLedger struct {
	EstimateID   string `json:"estimate_id"`
	EstimateName string `json:"estimate_name"`
	ClientName   string `json:"client_name"`
	CustomerRef  string `json:"customer_ref"`

	EstimateTotal   decimal.Decimal `json:"estimate_total"`
	HoldbackPercent decimal.Decimal `json:"holdback_percent"`

	Draws []Draw `json:"draws"`

	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalHoldback    decimal.Decimal `json:"total_holdback"`
	HoldbackReleased decimal.Decimal `json:"holdback_released"`

	IsComplete bool      `json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
}

// AvailableHoldback is the amount still withheld and releasable.
func (p ProjectLedger) AvailableHoldback() decimal.Decimal {
	return p.TotalHoldback.Sub(p.HoldbackReleased)
}

// FindDraw returns the draw with the given number, or nil.
func (p *ProjectLedger) FindDraw(drawNumber int) *Draw {
	for i := range p.Draws {
		if p.Draws[i].DrawNumber == drawNumber {
			return &p.Draws[i]
		}
	}
	return nil
}

// NewLedger returns a zeroed ledger for an estimate, holdback defaulted.
func NewLedger(estimateID string, defaultHoldback decimal.Decimal, createdAt time.Time) ProjectLedger {
	return ProjectLedger{
		EstimateID:       estimateID,
		HoldbackPercent:  defaultHoldback,
		Draws:            []Draw{},
		EstimateTotal:    decimal.Zero,
		TotalInvoiced:    decimal.Zero,
		TotalHoldback:    decimal.Zero,
		HoldbackReleased: decimal.Zero,
		CreatedAt:        createdAt,
	}
}

// EstimateInput is the normalized initialization input, produced by the
// accounting-system adapter.
type EstimateInput struct {
	ID          string
	Name        string
	ClientName  string
	CustomerRef string
	Total       decimal.Decimal
}

// Calculation is the dry-run result of a progress billing computation.
// Nothing is persisted; DrawNumber is the number the draw would receive.
type Calculation struct {
	PercentComplete       decimal.Decimal `json:"percent_complete"`
	EstimateTotal         decimal.Decimal `json:"estimate_total"`
	TotalToDate           decimal.Decimal `json:"total_to_date"`
	PreviouslyInvoiced    decimal.Decimal `json:"previously_invoiced"`
	ThisInvoiceGross      decimal.Decimal `json:"this_invoice_gross"`
	HoldbackAmount        decimal.Decimal `json:"holdback_amount"`
	NetPayable            decimal.Decimal `json:"net_payable"`
	RemainingToBill       decimal.Decimal `json:"remaining_to_bill"`
	CumulativePercent     decimal.Decimal `json:"cumulative_percent"`
	TotalHoldbackRetained decimal.Decimal `json:"total_holdback_retained"`
	DrawNumber            int             `json:"draw_number"`
}

// ProjectSummary is the per-project dashboard row.
type ProjectSummary struct {
	EstimateID       string          `json:"estimate_id"`
	EstimateName     string          `json:"estimate_name"`
	ClientName       string          `json:"client_name"`
	CustomerRef      string          `json:"customer_ref"`
	EstimateTotal    decimal.Decimal `json:"estimate_total"`
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	PercentComplete  decimal.Decimal `json:"percent_complete"`
	TotalHoldback    decimal.Decimal `json:"total_holdback"`
	HoldbackReleased decimal.Decimal `json:"holdback_released"`
	HoldbackRetained decimal.Decimal `json:"holdback_retained"`
	RemainingToBill  decimal.Decimal `json:"remaining_to_bill"`
	DrawCount        int             `json:"draw_count"`
	IsComplete       bool            `json:"is_complete"`
	LastDrawDate     *time.Time      `json:"last_draw_date"`
}
