package calc

import (
	"corntrack/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Settlement is the priced outcome of a delivery. FinalAmount is signed:
// a negative value means the advances exceed the delivery value.
type Settlement struct {
	PricePerKg    Cents
	TotalValue    Cents
	AdvanceAmount Cents
	FinalAmount   Cents
}

// TotalValue returns round2(net × pricePerKg) in cents
func TotalValue(netWeight decimal.Decimal, pricePerKg Cents) (Cents, error) {
	if netWeight.IsNegative() {
		return 0, domain.Validationf("net weight must not be negative")
	}
	if pricePerKg < 0 {
		return 0, domain.Validationf("price per kg must not be negative")
	}
	return CentsFromDecimal(netWeight.Mul(pricePerKg.Decimal())), nil
}

// FinalAmount returns total - advance
func FinalAmount(totalValue, advanceAmount Cents) Cents {
	return totalValue - advanceAmount
}

// Settle prices a weighed delivery. bagsCount of zero means the weight has
// not been recorded yet and pricing is rejected.
func Settle(w *Weights, pricePerKg, advanceAmount Cents) (*Settlement, error) {
	if w == nil || w.BagsCount == 0 {
		return nil, domain.InvalidStatef("weight must be recorded before pricing")
	}
	if advanceAmount < 0 {
		return nil, domain.Validationf("advance amount must not be negative")
	}

	total, err := TotalValue(w.NetWeight, pricePerKg)
	if err != nil {
		return nil, err
	}

	return &Settlement{
		PricePerKg:    pricePerKg,
		TotalValue:    total,
		AdvanceAmount: advanceAmount,
		FinalAmount:   FinalAmount(total, advanceAmount),
	}, nil
}
