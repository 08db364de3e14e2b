// Package pdf renders assembled invoice documents to PDF.
package pdf

import (
	"context"
	"io"

	"github.com/taylorbuilt/drawline/internal/invoicedoc"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	RenderDocument(ctx context.Context, doc invoicedoc.Document) (io.Reader, error)
}
