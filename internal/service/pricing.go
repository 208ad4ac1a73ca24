package service

// Pricing is the single tax computation shared by order creation and the
// checkout bridge, so the stored tax and the displayed tax always agree.
type Pricing struct {
	TaxRatePercent int64
}

// Tax returns the tax on a subtotal in cents, rounded half up.
func (p Pricing) Tax(subtotal int64) int64 {
	return (subtotal*p.TaxRatePercent + 50) / 100
}

// Total returns subtotal plus tax.
func (p Pricing) Total(subtotal int64) int64 {
	return subtotal + p.Tax(subtotal)
}
