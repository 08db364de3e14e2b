package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

const (
	DefaultInvoiceNumberTemplate = "{REF}-{SEQ3}"
	DefaultReleaseNumberTemplate = "{REF}-RELEASE-{SEQ3}"
)

// FormatInvoiceNumber expands a number template for one draw. Tokens:
// {REF}, {YYYY}, {YY}, {MM}, {DD}, {SEQ}, and {SEQn} for a zero-padded
// sequence of width n.
func FormatInvoiceNumber(template, ref string, date time.Time, seq int) (string, error) {
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	if seq <= 0 {
		return "", fmt.Errorf("invalid draw sequence: %d", seq)
	}

	// The ref comes from user data (the Job # estimate field); braces in
	// it would read as unresolved tokens below.
	ref = strings.NewReplacer("{", "", "}", "").Replace(ref)

	out := template

	out = strings.ReplaceAll(out, "{REF}", ref)

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", date.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", date.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", date.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", date.Format("02"))

	// Simple sequence
	out = strings.ReplaceAll(out, "{SEQ}", strconv.Itoa(seq))

	// Padded sequence
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m // should never happen
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	// Final safety check: unresolved tokens
	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}
