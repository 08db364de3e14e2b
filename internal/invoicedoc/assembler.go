// Package invoicedoc assembles committed draws into structured invoice
// documents ready for rendering.
package invoicedoc

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/taylorbuilt/drawline/internal/config"
	projectdomain "github.com/taylorbuilt/drawline/internal/project/domain"
)

// DocumentKind tags the two invoice layouts.
type DocumentKind string

const (
	DocumentKindProgress        DocumentKind = "progress_invoice"
	DocumentKindHoldbackRelease DocumentKind = "holdback_release"
)

// LineItem is one label/amount row in a document table.
type LineItem struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Document is the render-ready invoice payload. All amounts are
// preformatted; the renderer only does layout.
type Document struct {
	Kind  DocumentKind `json:"kind"`
	Title string       `json:"title"`

	Company config.CompanyInfo `json:"company"`

	InvoiceNumber   string `json:"invoice_number"`
	DrawNumber      int    `json:"draw_number"`
	Date            string `json:"date"`
	PercentComplete string `json:"percent_complete,omitempty"`

	BillToName    string `json:"bill_to_name"`
	JobRef        string `json:"job_ref,omitempty"`
	ProjectName   string `json:"project_name"`
	EstimateTotal string `json:"estimate_total"`

	Summary  []LineItem `json:"summary"`
	Holdback []LineItem `json:"holdback"`

	AmountDue       string `json:"amount_due"`
	RemainingToBill string `json:"remaining_to_bill"`

	Notes        string `json:"notes,omitempty"`
	PaymentTerms string `json:"payment_terms"`

	Filename string `json:"filename"`
}

// Assembler builds Documents from engine output.
type Assembler struct {
	billing *config.BillingConfigHolder
}

func NewAssembler(billing *config.BillingConfigHolder) *Assembler {
	return &Assembler{billing: billing}
}

// BuildProgressInvoice assembles the document for a committed progress
// draw.
func (a *Assembler) BuildProgressInvoice(res projectdomain.DrawResult) Document {
	cfg := a.billing.Get()
	project, draw, calc := res.Project, res.Draw, res.Calculation

	percent := calc.PercentComplete.String()

	return Document{
		Kind:  DocumentKindProgress,
		Title: "PROGRESS INVOICE",

		Company: cfg.Company,

		InvoiceNumber:   draw.InvoiceNumber,
		DrawNumber:      draw.DrawNumber,
		Date:            draw.Date.Format("2006-01-02"),
		PercentComplete: percent + "%",

		BillToName:    project.ClientName,
		JobRef:        project.CustomerRef,
		ProjectName:   project.EstimateName,
		EstimateTotal: FormatMoney(project.EstimateTotal),

		Summary: []LineItem{
			{Label: "Original Contract Amount", Amount: FormatMoney(project.EstimateTotal)},
			{Label: "Previously Invoiced", Amount: FormatMoney(calc.PreviouslyInvoiced)},
			{Label: fmt.Sprintf("Current Progress (%s%%)", percent), Amount: FormatMoney(calc.TotalToDate)},
			{Label: "This Invoice (Gross)", Amount: FormatMoney(draw.GrossAmount)},
		},
		Holdback: []LineItem{
			{Label: fmt.Sprintf("Holdback (%s%%)", draw.HoldbackPercent.String()), Amount: FormatMoney(draw.HoldbackAmount)},
			{Label: "Total Holdback Retained to Date", Amount: FormatMoney(calc.TotalHoldbackRetained)},
		},

		AmountDue:       FormatMoney(draw.NetPayable),
		RemainingToBill: FormatMoney(calc.RemainingToBill),

		Notes:        draw.Notes,
		PaymentTerms: cfg.PaymentTerms,

		Filename: progressFilename(project, draw, percent),
	}
}

// BuildHoldbackRelease assembles the document for a holdback release.
func (a *Assembler) BuildHoldbackRelease(res projectdomain.ReleaseResult) Document {
	cfg := a.billing.Get()
	project, draw := res.Project, res.Draw

	previouslyReleased := project.HoldbackReleased.Sub(draw.NetPayable)

	return Document{
		Kind:  DocumentKindHoldbackRelease,
		Title: "HOLDBACK RELEASE",

		Company: cfg.Company,

		InvoiceNumber: draw.InvoiceNumber,
		DrawNumber:    draw.DrawNumber,
		Date:          draw.Date.Format("2006-01-02"),

		BillToName:    project.ClientName,
		JobRef:        project.CustomerRef,
		ProjectName:   project.EstimateName,
		EstimateTotal: FormatMoney(project.EstimateTotal),

		Summary: []LineItem{
			{Label: "Total Holdback Retained", Amount: FormatMoney(project.TotalHoldback)},
			{Label: "Previously Released", Amount: FormatMoney(previouslyReleased)},
			{Label: "This Release", Amount: FormatMoney(draw.NetPayable)},
			{Label: "Remaining Holdback", Amount: FormatMoney(res.RemainingHoldback)},
		},

		AmountDue:       FormatMoney(draw.NetPayable),
		RemainingToBill: FormatMoney(project.EstimateTotal.Sub(project.TotalInvoiced)),

		Notes:        draw.Notes,
		PaymentTerms: cfg.PaymentTerms,

		Filename: releaseFilename(project, draw),
	}
}

// BuildForDraw rebuilds the document for a draw that was committed
// earlier, replaying the ledger up to that draw so the figures match the
// invoice as originally issued.
func (a *Assembler) BuildForDraw(project projectdomain.ProjectLedger, drawNumber int) (Document, error) {
	draw := project.FindDraw(drawNumber)
	if draw == nil {
		return Document{}, projectdomain.ErrDrawNotFound
	}

	withheld := decimal.Zero
	released := decimal.Zero
	for i := range project.Draws {
		d := project.Draws[i]
		if d.DrawNumber > drawNumber {
			break
		}
		if d.IsHoldbackRelease() {
			released = released.Add(d.HoldbackAmount.Neg())
		} else {
			withheld = withheld.Add(d.HoldbackAmount)
		}
	}

	if draw.IsHoldbackRelease() {
		asOf := project
		asOf.TotalHoldback = withheld
		asOf.HoldbackReleased = released
		asOf.TotalInvoiced = draw.CumulativeInvoiced
		return a.BuildHoldbackRelease(projectdomain.ReleaseResult{
			Draw:              *draw,
			Project:           asOf,
			RemainingHoldback: withheld.Sub(released),
		}), nil
	}

	percent := decimal.Zero
	if draw.PercentComplete != nil {
		percent = *draw.PercentComplete
	}

	return a.BuildProgressInvoice(projectdomain.DrawResult{
		Draw:    *draw,
		Project: project,
		Calculation: projectdomain.Calculation{
			PercentComplete:       percent,
			EstimateTotal:         project.EstimateTotal,
			TotalToDate:           draw.CumulativeInvoiced,
			PreviouslyInvoiced:    draw.CumulativeInvoiced.Sub(draw.GrossAmount),
			ThisInvoiceGross:      draw.GrossAmount,
			HoldbackAmount:        draw.HoldbackAmount,
			NetPayable:            draw.NetPayable,
			RemainingToBill:       draw.RemainingToBill,
			CumulativePercent:     draw.CumulativePercent,
			TotalHoldbackRetained: withheld,
			DrawNumber:            draw.DrawNumber,
		},
	}), nil
}

func progressFilename(project projectdomain.ProjectLedger, draw projectdomain.Draw, percent string) string {
	name := fmt.Sprintf("%s%%_Invoice_%s_%s_$%s",
		percent,
		draw.InvoiceNumber,
		slug.Make(project.ClientName),
		draw.NetPayable.StringFixed(2),
	)
	if project.CustomerRef != "" {
		name += "_" + project.CustomerRef
	}
	return name + ".pdf"
}

func releaseFilename(project projectdomain.ProjectLedger, draw projectdomain.Draw) string {
	return fmt.Sprintf("Holdback_Release_%s_%s_$%s.pdf",
		draw.InvoiceNumber,
		slug.Make(project.ClientName),
		draw.NetPayable.StringFixed(2),
	)
}

// FormatMoney renders an amount as $1,234.56, keeping the sign outside
// the currency symbol for credits.
func FormatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	whole, fraction, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := "$" + b.String() + "." + fraction
	if negative {
		out = "-" + out
	}
	return out
}
