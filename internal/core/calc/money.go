package calc

import (
	"github.com/shopspring/decimal"
)

// Cents is a signed currency amount in hundredths
type Cents int64

// CentsFromDecimal rounds d to 2 places (half away from zero)
func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Round(2).Shift(2).IntPart())
}

// CentsFromFloat converts a float amount such as 25.5 into cents
func CentsFromFloat(f float64) Cents {
	return CentsFromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the amount as a 2-place decimal
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Float64 returns the amount in currency units
func (c Cents) Float64() float64 {
	return c.Decimal().InexactFloat64()
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Sum adds amounts
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
