package invoicedoc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/taylorbuilt/drawline/internal/config"
	projectdomain "github.com/taylorbuilt/drawline/internal/project/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleDrawResult() projectdomain.DrawResult {
	percent := dec("50")
	project := projectdomain.ProjectLedger{
		EstimateID:      "est-1",
		EstimateName:    "Lakeside Duplex",
		ClientName:      "Morgan Homes Ltd.",
		CustomerRef:     "JOB-7",
		EstimateTotal:   dec("10000"),
		HoldbackPercent: dec("10"),
		TotalInvoiced:   dec("5000"),
		TotalHoldback:   dec("500"),
	}
	draw := projectdomain.Draw{
		DrawNumber:      1,
		Kind:            projectdomain.DrawKindProgress,
		InvoiceNumber:   "JOB-7-001",
		Date:            time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		PercentComplete: &percent,
		GrossAmount:     dec("5000"),
		HoldbackAmount:  dec("500"),
		NetPayable:      dec("4500"),
		HoldbackPercent: dec("10"),
		Notes:           "foundation poured",
	}
	calc := projectdomain.Calculation{
		PercentComplete:       percent,
		TotalToDate:           dec("5000"),
		PreviouslyInvoiced:    dec("0"),
		ThisInvoiceGross:      dec("5000"),
		HoldbackAmount:        dec("500"),
		NetPayable:            dec("4500"),
		RemainingToBill:       dec("5000"),
		TotalHoldbackRetained: dec("500"),
		DrawNumber:            1,
	}
	return projectdomain.DrawResult{Draw: draw, Project: project, Calculation: calc}
}

func TestBuildProgressInvoice(t *testing.T) {
	assembler := NewAssembler(config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()))

	doc := assembler.BuildProgressInvoice(sampleDrawResult())

	assert.Equal(t, DocumentKindProgress, doc.Kind)
	assert.Equal(t, "PROGRESS INVOICE", doc.Title)
	assert.Equal(t, "TAYLOR CONSTRUCTION", doc.Company.Name)
	assert.Equal(t, "JOB-7-001", doc.InvoiceNumber)
	assert.Equal(t, 1, doc.DrawNumber)
	assert.Equal(t, "2026-03-14", doc.Date)
	assert.Equal(t, "50%", doc.PercentComplete)
	assert.Equal(t, "Morgan Homes Ltd.", doc.BillToName)

	assert.Equal(t, []LineItem{
		{Label: "Original Contract Amount", Amount: "$10,000.00"},
		{Label: "Previously Invoiced", Amount: "$0.00"},
		{Label: "Current Progress (50%)", Amount: "$5,000.00"},
		{Label: "This Invoice (Gross)", Amount: "$5,000.00"},
	}, doc.Summary)
	assert.Equal(t, []LineItem{
		{Label: "Holdback (10%)", Amount: "$500.00"},
		{Label: "Total Holdback Retained to Date", Amount: "$500.00"},
	}, doc.Holdback)

	assert.Equal(t, "$4,500.00", doc.AmountDue)
	assert.Equal(t, "$5,000.00", doc.RemainingToBill)
	assert.Equal(t, "foundation poured", doc.Notes)
	assert.Equal(t, "50%_Invoice_JOB-7-001_morgan-homes-ltd_$4500.00_JOB-7.pdf", doc.Filename)
}

func TestBuildHoldbackRelease(t *testing.T) {
	assembler := NewAssembler(config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()))

	project := projectdomain.ProjectLedger{
		EstimateID:       "est-1",
		EstimateName:     "Lakeside Duplex",
		ClientName:       "Morgan Homes Ltd.",
		CustomerRef:      "JOB-7",
		EstimateTotal:    dec("10000"),
		TotalInvoiced:    dec("10000"),
		TotalHoldback:    dec("1000"),
		HoldbackReleased: dec("600"),
	}
	draw := projectdomain.Draw{
		DrawNumber:     3,
		Kind:           projectdomain.DrawKindHoldbackRelease,
		InvoiceNumber:  "JOB-7-RELEASE-003",
		Date:           time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		GrossAmount:    decimal.Zero,
		HoldbackAmount: dec("-600"),
		NetPayable:     dec("600"),
		Notes:          "Holdback Release",
	}

	doc := assembler.BuildHoldbackRelease(projectdomain.ReleaseResult{
		Draw:              draw,
		Project:           project,
		RemainingHoldback: dec("400"),
	})

	assert.Equal(t, DocumentKindHoldbackRelease, doc.Kind)
	assert.Equal(t, "HOLDBACK RELEASE", doc.Title)
	assert.Empty(t, doc.PercentComplete)
	assert.Equal(t, []LineItem{
		{Label: "Total Holdback Retained", Amount: "$1,000.00"},
		{Label: "Previously Released", Amount: "$0.00"},
		{Label: "This Release", Amount: "$600.00"},
		{Label: "Remaining Holdback", Amount: "$400.00"},
	}, doc.Summary)
	assert.Equal(t, "$600.00", doc.AmountDue)
	assert.Equal(t, "$0.00", doc.RemainingToBill)
	assert.Equal(t, "Holdback_Release_JOB-7-RELEASE-003_morgan-homes-ltd_$600.00.pdf", doc.Filename)
}

func TestBuildForDraw(t *testing.T) {
	assembler := NewAssembler(config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()))

	fifty := dec("50")
	hundredPct := dec("100")
	project := projectdomain.ProjectLedger{
		EstimateID:       "est-1",
		EstimateName:     "Lakeside Duplex",
		ClientName:       "Morgan Homes Ltd.",
		CustomerRef:      "JOB-7",
		EstimateTotal:    dec("10000"),
		HoldbackPercent:  dec("10"),
		TotalInvoiced:    dec("10000"),
		TotalHoldback:    dec("1000"),
		HoldbackReleased: dec("1000"),
		Draws: []projectdomain.Draw{
			{
				DrawNumber:         1,
				Kind:               projectdomain.DrawKindProgress,
				InvoiceNumber:      "JOB-7-001",
				Date:               time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
				PercentComplete:    &fifty,
				GrossAmount:        dec("5000"),
				HoldbackAmount:     dec("500"),
				NetPayable:         dec("4500"),
				HoldbackPercent:    dec("10"),
				CumulativeInvoiced: dec("5000"),
				CumulativePercent:  dec("50"),
				RemainingToBill:    dec("5000"),
			},
			{
				DrawNumber:         2,
				Kind:               projectdomain.DrawKindProgress,
				InvoiceNumber:      "JOB-7-002",
				Date:               time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
				PercentComplete:    &hundredPct,
				GrossAmount:        dec("5000"),
				HoldbackAmount:     dec("500"),
				NetPayable:         dec("4500"),
				HoldbackPercent:    dec("10"),
				CumulativeInvoiced: dec("10000"),
				CumulativePercent:  dec("100"),
				RemainingToBill:    dec("0"),
			},
			{
				DrawNumber:         3,
				Kind:               projectdomain.DrawKindHoldbackRelease,
				InvoiceNumber:      "JOB-7-RELEASE-003",
				Date:               time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
				GrossAmount:        decimal.Zero,
				HoldbackAmount:     dec("-1000"),
				NetPayable:         dec("1000"),
				CumulativeInvoiced: dec("10000"),
			},
		},
	}

	// First draw re-renders with the figures as of that draw, not today's.
	doc, err := assembler.BuildForDraw(project, 1)
	assert.NoError(t, err)
	assert.Equal(t, DocumentKindProgress, doc.Kind)
	assert.Equal(t, "JOB-7-001", doc.InvoiceNumber)
	assert.Equal(t, "50%", doc.PercentComplete)
	assert.Contains(t, doc.Summary, LineItem{Label: "Previously Invoiced", Amount: "$0.00"})
	assert.Contains(t, doc.Holdback, LineItem{Label: "Total Holdback Retained to Date", Amount: "$500.00"})
	assert.Equal(t, "$4,500.00", doc.AmountDue)

	doc, err = assembler.BuildForDraw(project, 3)
	assert.NoError(t, err)
	assert.Equal(t, DocumentKindHoldbackRelease, doc.Kind)
	assert.Equal(t, []LineItem{
		{Label: "Total Holdback Retained", Amount: "$1,000.00"},
		{Label: "Previously Released", Amount: "$0.00"},
		{Label: "This Release", Amount: "$1,000.00"},
		{Label: "Remaining Holdback", Amount: "$0.00"},
	}, doc.Summary)

	_, err = assembler.BuildForDraw(project, 9)
	assert.ErrorIs(t, err, projectdomain.ErrDrawNotFound)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "$1,234.56", FormatMoney(dec("1234.56")))
	assert.Equal(t, "$1,000,000.00", FormatMoney(dec("1000000")))
	assert.Equal(t, "$999.90", FormatMoney(dec("999.9")))
	assert.Equal(t, "-$2,000.00", FormatMoney(dec("-2000")))
}
