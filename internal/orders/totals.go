package orders

// TaxRatePercent is VAT applied on the order subtotal.
const TaxRatePercent = 16

type Totals struct {
	SubtotalCents int
	TaxCents      int
	TotalCents    int
}

func ComputeTotals(subtotalCents int) Totals {
	tax := subtotalCents * TaxRatePercent / 100
	return Totals{
		SubtotalCents: subtotalCents,
		TaxCents:      tax,
		TotalCents:    subtotalCents + tax,
	}
}
