package documents

import "charterbooks/internal/domain/pricing"

// BuildPostingRequest summarizes doc for the ledger.
func BuildPostingRequest(doc *Document) PostingRequest {
	req := PostingRequest{
		DocumentID:     doc.ID,
		Kind:           doc.Kind,
		Number:         doc.Number,
		Date:           doc.Date,
		CompanyID:      doc.CompanyID,
		ClientID:       doc.ClientID,
		ClientName:     doc.ClientName,
		Currency:       doc.Currency,
		FxRate:         doc.FxRate,
		PricingType:    doc.PricingType,
		Lines:          make([]PostingLine, 0, len(doc.Lines)),
		Subtotal:       doc.Subtotal,
		TaxAmount:      doc.TaxAmount,
		TotalAmount:    doc.TotalAmount,
		WhtAmount:      doc.WhtAmount,
		NetAmountToPay: doc.NetAmountToPay,
	}

	for _, line := range doc.Lines {
		if line.IsEmpty() {
			continue
		}
		b := line.Breakdown(doc.PricingType)
		req.Lines = append(req.Lines, PostingLine{
			LineNo:      line.LineNo,
			Description: line.Description,
			AccountCode: line.AccountCode,
			ProjectID:   line.ProjectID,
			Net:         b.Net,
			Tax:         b.Tax,
			Gross:       b.Gross,
			Wht:         b.Wht,
		})
	}

	if doc.Kind.Rules().RequiresPayments {
		req.Payments = doc.Payments
		if doc.AdjustmentType != pricing.AdjustmentNone && !doc.AdjustmentAmount.IsZero() {
			req.Adjustment = &PostingAdjustment{
				Type:        doc.AdjustmentType,
				Amount:      doc.AdjustmentAmount,
				AccountCode: doc.AdjustmentAccountCode,
			}
		}
	}
	return req
}

// BuildWhtRecords returns one tracking record per line with nonzero WHT.
func BuildWhtRecords(doc *Document) []WhtRecord {
	var records []WhtRecord
	for _, line := range doc.Lines {
		if line.WhtAmount.IsZero() {
			continue
		}
		b := line.Breakdown(doc.PricingType)
		records = append(records, WhtRecord{
			DocumentID:     doc.ID,
			LineID:         line.ID,
			Kind:           doc.Kind,
			DocumentNumber: doc.Number,
			DocumentDate:   doc.Date,
			CompanyID:      doc.CompanyID,
			ClientID:       doc.ClientID,
			ClientName:     doc.ClientName,
			Description:    line.Description,
			BaseAmount:     b.Net,
			Rate:           line.WhtRate,
			Amount:         line.WhtAmount,
			Currency:       doc.Currency,
		})
	}
	return records
}
