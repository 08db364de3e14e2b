package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatInvoiceNumber(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	out, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "JOB-42", date, 3)
	assert.NoError(t, err)
	assert.Equal(t, "JOB-42-003", out)

	out, err = FormatInvoiceNumber(DefaultReleaseNumberTemplate, "HB", date, 12)
	assert.NoError(t, err)
	assert.Equal(t, "HB-RELEASE-012", out)

	out, err = FormatInvoiceNumber("{REF}-{YYYY}{MM}{DD}-{SEQ}", "INV", date, 7)
	assert.NoError(t, err)
	assert.Equal(t, "INV-20260314-7", out)
}

func TestFormatInvoiceNumberStripsBracesFromRef(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	out, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "JOB{7}", date, 1)
	assert.NoError(t, err)
	assert.Equal(t, "JOB7-001", out)

	out, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "{SEQ}", date, 2)
	assert.NoError(t, err)
	assert.Equal(t, "SEQ-002", out)
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	_, err := FormatInvoiceNumber("", "INV", date, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{REF}-{SEQ3}", "INV", date, 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{REF}-{BOGUS}", "INV", date, 1)
	assert.Error(t, err)
}
