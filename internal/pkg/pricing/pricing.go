// internal/pkg/pricing/pricing.go
package pricing

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// TaxRate is the fixed sales tax applied to every order
const TaxRate = 0.08

// Round2 rounds an amount to two decimal places
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// LineSubtotal computes the subtotal of a single cart line
func LineSubtotal(priceAtTime float64, quantity int) float64 {
	return priceAtTime * float64(quantity)
}

// Tax computes the tax on a subtotal, rounded to cents
func Tax(subtotal float64) float64 {
	return Round2(subtotal * TaxRate)
}

// Total computes the order total from a subtotal
func Total(subtotal float64) float64 {
	return Round2(subtotal + Tax(subtotal))
}

// FormatAmount renders a currency value in its external two-decimal form
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// GenerateOrderNumber produces a customer-facing order identifier from the
// current timestamp and a random suffix. Uniqueness is best effort; the
// orders table carries a unique index as the backstop.
func GenerateOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%d", time.Now().UnixMilli(), rand.Intn(1000))
}
