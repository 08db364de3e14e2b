// Package quickbooks adapts QuickBooks Online estimate records into the
// engine's normalized initialization input.
package quickbooks

import (
	"fmt"

	"github.com/shopspring/decimal"
	projectdomain "github.com/taylorbuilt/drawline/internal/project/domain"
)

// jobNumberField is the custom field the estimates carry the job
// reference in.
const jobNumberField = "Job #"

// Estimate mirrors the subset of the QuickBooks estimate payload the
// engine consumes. Field names follow the QuickBooks API JSON.
type Estimate struct {
	ID           string          `json:"Id"`
	DocNumber    string          `json:"DocNumber,omitempty"`
	TotalAmt     decimal.Decimal `json:"TotalAmt"`
	CustomerRef  *Ref            `json:"CustomerRef,omitempty"`
	CustomerMemo *Memo           `json:"CustomerMemo,omitempty"`
	CustomField  []CustomField   `json:"CustomField,omitempty"`
}

type Ref struct {
	Value string `json:"value,omitempty"`
	Name  string `json:"name,omitempty"`
}

type Memo struct {
	Value string `json:"value"`
}

type CustomField struct {
	Name        string `json:"Name"`
	StringValue string `json:"StringValue,omitempty"`
}

// Normalize maps an estimate onto the engine's initialization input,
// filling the gaps QuickBooks leaves: estimates routinely arrive without
// a memo, a customer name, or the job-number custom field.
func Normalize(est Estimate) projectdomain.EstimateInput {
	name := est.DocNumber
	if est.CustomerMemo != nil && est.CustomerMemo.Value != "" {
		name = est.CustomerMemo.Value
	}
	if name == "" {
		name = fmt.Sprintf("Estimate %s", est.ID)
	}

	client := "Unknown Client"
	if est.CustomerRef != nil && est.CustomerRef.Name != "" {
		client = est.CustomerRef.Name
	}

	ref := est.DocNumber
	for _, field := range est.CustomField {
		if field.Name == jobNumberField && field.StringValue != "" {
			ref = field.StringValue
			break
		}
	}

	return projectdomain.EstimateInput{
		ID:          est.ID,
		Name:        name,
		ClientName:  client,
		CustomerRef: ref,
		Total:       est.TotalAmt,
	}
}
