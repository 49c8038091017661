package property

import (
	"fmt"
	"math"
)

// PriceWithVAT returns price plus vatRate percent of it
func PriceWithVAT(price, vatRate float64) float64 {
	return price + price*(vatRate/100)
}

// FormatPriceWithVAT renders PriceWithVAT with two decimals
func FormatPriceWithVAT(price, vatRate float64) string {
	return fmt.Sprintf("%.2f", PriceWithVAT(price, vatRate))
}

// FormatPriceChange renders the absolute delta from previousPrice with an
// Increment/Decrement label. A zero delta counts as an increment.
func FormatPriceChange(price, previousPrice float64) string {
	delta := price - previousPrice
	if delta >= 0 {
		return fmt.Sprintf("%.2f (Increment)", delta)
	}
	return fmt.Sprintf("%.2f (Decrement)", math.Abs(delta))
}

// RefreshDerived recomputes the stored derived price fields
func (p *Property) RefreshDerived() {
	p.PriceWithVAT = FormatPriceWithVAT(p.Price, p.VATRate)
	p.PriceChange = FormatPriceChange(p.Price, p.PreviousPrice)
}
