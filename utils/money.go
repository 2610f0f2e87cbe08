package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineTotal is one priced line of an order.
type LineTotal struct {
	UnitPrice float64
	Quantity  int
}

// SumLines adds unit price times quantity over all lines in decimal
// arithmetic and rounds to cents.
func SumLines(lines []LineTotal) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// SameAmount compares two money values to the cent.
func SameAmount(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}

// NewOrderReference returns ORD-<yyyymmddhhmmss>-<uuid>.
func NewOrderReference(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), strings.ToUpper(uuid.NewString()))
}
