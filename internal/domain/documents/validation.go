package documents

import (
	"fmt"
	"strings"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/pricing"
)

var hundred = types.NewMoneyFromInt(100)

// Validate collects every field problem of doc for a save into target.
// Drafts get the weak rule; the active status gets the full issue rule.
func Validate(doc *Document, target entity.Status) apperror.FieldErrors {
	errs := apperror.FieldErrors{}
	rules := doc.Kind.Rules()
	issuing := target.IsActive()

	if id.IsNil(doc.CompanyID) {
		errs.Add("companyId", "Company is required")
	}
	if !doc.PricingType.IsValid() {
		errs.Add("pricingType", fmt.Sprintf("Unknown pricing type %q", doc.PricingType))
	}
	if !doc.AdjustmentType.IsValid() {
		errs.Add("adjustmentType", fmt.Sprintf("Unknown adjustment type %q", doc.AdjustmentType))
	}
	if doc.AdjustmentAmount.IsNegative() {
		errs.Add("adjustmentAmount", "Adjustment cannot be negative")
	}
	if doc.FxRate != nil && doc.FxRate.IsNegative() {
		errs.Add("fxRate", "Exchange rate cannot be negative")
	}

	validateLines(errs, doc.Lines, issuing)

	missingProject := false
	nonEmpty := 0
	for i, line := range doc.Lines {
		if line.IsEmpty() {
			continue
		}
		nonEmpty++
		if (issuing || rules.ProjectOnDraft) && !line.HasProject() {
			errs.Add(lineField(i, "projectId"), "Project is required")
			missingProject = true
		}
	}
	if missingProject {
		errs.Add("lineItems", "Every line item needs a project")
	}

	if !issuing {
		return errs
	}

	if id.IsNil(doc.ClientID) {
		errs.Add("clientId", "Customer is required")
	}
	if doc.Date.IsZero() {
		errs.Add("date", "Date is required")
	}
	if nonEmpty == 0 {
		errs.Add("lineItems", "At least one line item is required")
	}
	if rules.HasDueDate && doc.DueDate != nil && doc.DueDate.Before(doc.Date) {
		errs.Add("dueDate", "Due date cannot be before the document date")
	}

	if rules.RequiresPayments {
		validatePayments(errs, doc.Payments)
		if doc.AdjustmentType != pricing.AdjustmentNone && !doc.AdjustmentAmount.IsZero() &&
			strings.TrimSpace(doc.AdjustmentAccountCode) == "" {
			errs.Add("adjustmentAccountCode", "Account is required for the adjustment")
		}
	}

	return errs
}

func validateLines(errs apperror.FieldErrors, lines []LineItem, issuing bool) {
	for i, line := range lines {
		if line.UnitPrice.IsNegative() {
			errs.Add(lineField(i, "unitPrice"), "Price cannot be negative")
		}
		if line.Quantity.IsNegative() {
			errs.Add(lineField(i, "quantity"), "Quantity cannot be negative")
		} else if issuing && !line.IsEmpty() && !line.Quantity.IsPositive() {
			errs.Add(lineField(i, "quantity"), "Quantity must be positive")
		}
		if line.TaxRate.IsNegative() || line.TaxRate.GreaterThan(hundred) {
			errs.Add(lineField(i, "taxRate"), "Tax rate must be between 0 and 100")
		}
		if !line.WhtRate.IsValid() {
			errs.Add(lineField(i, "whtRate"), fmt.Sprintf("WHT rate %q is not allowed", line.WhtRate))
		}
		if line.WhtRate.IsCustom() && line.CustomWhtAmount != nil && line.CustomWhtAmount.IsNegative() {
			errs.Add(lineField(i, "customWhtAmount"), "WHT amount cannot be negative")
		}
	}
}

func validatePayments(errs apperror.FieldErrors, payments []PaymentRecord) {
	complete := 0
	for i, p := range payments {
		if p.Amount.IsNegative() {
			errs.Add(paymentField(i, "amount"), "Amount cannot be negative")
			continue
		}
		if !p.Amount.IsPositive() {
			continue
		}
		if strings.TrimSpace(p.ReceivedAt) == "" {
			errs.Add(paymentField(i, "receivedAt"), "Payment destination is required")
			continue
		}
		complete++
	}
	if complete == 0 {
		errs.Add("payments", "At least one payment with an amount and destination is required")
	}
}

func lineField(i int, name string) string {
	return fmt.Sprintf("lineItems[%d].%s", i, name)
}

func paymentField(i int, name string) string {
	return fmt.Sprintf("payments[%d].%s", i, name)
}
