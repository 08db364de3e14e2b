package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/taylorbuilt/drawline/internal/invoicedoc"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) RenderDocument(ctx context.Context, doc invoicedoc.Document) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	// Company block left, document title right.
	m.AddRow(12,
		text.NewCol(7, doc.Company.Name, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
		}),
		text.NewCol(5, doc.Title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	meta := []core.Component{
		text.New("Invoice #: "+doc.InvoiceNumber, props.Text{Size: 9, Align: align.Right}),
		text.New("Date: "+doc.Date, props.Text{Size: 9, Top: 4, Align: align.Right}),
	}
	if doc.PercentComplete != "" {
		meta = append(meta,
			text.New("% Complete: "+doc.PercentComplete, props.Text{Size: 9, Top: 8, Align: align.Right}),
		)
	}

	m.AddRow(18,
		col.New(7).Add(
			text.New(doc.Company.Address, props.Text{Size: 9}),
			text.New(doc.Company.Phone, props.Text{Size: 9, Top: 4}),
			text.New(doc.Company.Email, props.Text{Size: 9, Top: 8}),
		),
		col.New(5).Add(meta...),
	)

	m.AddRow(4, line.NewCol(12))

	billTo := []core.Component{
		text.New("BILL TO:", props.Text{Size: 11, Style: fontstyle.Bold}),
		text.New(doc.BillToName, props.Text{Size: 10, Top: 6}),
	}
	if doc.JobRef != "" {
		billTo = append(billTo, text.New("Job #: "+doc.JobRef, props.Text{Size: 9, Top: 11}))
	}

	m.AddRow(24,
		col.New(6).Add(billTo...),
		col.New(6).Add(
			text.New("PROJECT:", props.Text{Size: 11, Style: fontstyle.Bold}),
			text.New(doc.ProjectName, props.Text{Size: 10, Top: 6}),
			text.New("Original Estimate: "+doc.EstimateTotal, props.Text{Size: 9, Top: 11}),
		),
	)

	addTable(m, summaryHeading(doc), doc.Summary)
	if len(doc.Holdback) > 0 {
		addTable(m, "HOLDBACK CALCULATION", doc.Holdback)
	}

	heading := "AMOUNT DUE THIS INVOICE:"
	if doc.Kind == invoicedoc.DocumentKindHoldbackRelease {
		heading = "AMOUNT DUE:"
	}
	m.AddRow(12,
		text.NewCol(8, heading, props.Text{
			Size:  13,
			Style: fontstyle.Bold,
			Top:   3,
		}),
		text.NewCol(4, doc.AmountDue, props.Text{
			Size:  13,
			Style: fontstyle.Bold,
			Top:   3,
			Align: align.Right,
		}),
	)

	m.AddRow(8,
		text.NewCol(12, "Remaining to Bill: "+doc.RemainingToBill, props.Text{
			Size:  10,
			Style: fontstyle.Bold,
		}),
	)

	if doc.Notes != "" {
		m.AddRow(6, text.NewCol(12, "NOTES:", props.Text{Size: 9, Style: fontstyle.Bold}))
		m.AddRow(10, text.NewCol(12, doc.Notes, props.Text{Size: 9}))
	}

	m.AddRow(4, line.NewCol(12))
	m.AddRow(10,
		col.New(12).Add(
			text.New(doc.PaymentTerms, props.Text{Size: 8, Style: fontstyle.Italic}),
			text.New("Holdback to be released upon substantial completion per contract terms", props.Text{Size: 8, Style: fontstyle.Italic, Top: 4}),
		),
	)

	generated, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(generated.GetBytes()), nil
}

func summaryHeading(doc invoicedoc.Document) string {
	if doc.Kind == invoicedoc.DocumentKindHoldbackRelease {
		return "HOLDBACK SUMMARY"
	}
	return "PROGRESS SUMMARY"
}

func addTable(m core.Maroto, heading string, items []invoicedoc.LineItem) {
	m.AddRow(8,
		text.NewCol(8, heading, props.Text{Size: 10, Style: fontstyle.Bold, Top: 2}),
		text.NewCol(4, "AMOUNT", props.Text{Size: 10, Style: fontstyle.Bold, Top: 2, Align: align.Right}),
	)
	m.AddRow(1, line.NewCol(12))
	for _, item := range items {
		m.AddRow(7,
			text.NewCol(8, item.Label, props.Text{Size: 9, Top: 1}),
			text.NewCol(4, item.Amount, props.Text{Size: 9, Top: 1, Style: fontstyle.Bold, Align: align.Right}),
		)
	}
	m.AddRow(4, col.New(12))
}
