package calc

import (
	"fmt"

	"corntrack/internal/core/domain"

	"github.com/shopspring/decimal"
)

// DefaultKgPerBag is the canonical standard deduction per bag
var DefaultKgPerBag = decimal.RequireFromString("0.5")

// DeductionInput is what a standard deduction policy may look at
type DeductionInput struct {
	BagsCount       int
	GrossWeight     decimal.Decimal
	MoistureContent decimal.Decimal
}

// DeductionPolicy computes the standard (moisture) deduction in kilograms
type DeductionPolicy interface {
	Name() string
	StandardDeduction(in DeductionInput) decimal.Decimal
}

// PerBagPolicy deducts a flat weight for every bag
type PerBagPolicy struct {
	KgPerBag decimal.Decimal
}

func (p PerBagPolicy) Name() string { return "per_bag" }

func (p PerBagPolicy) StandardDeduction(in DeductionInput) decimal.Decimal {
	return p.KgPerBag.Mul(decimal.NewFromInt(int64(in.BagsCount))).Round(2)
}

// MoisturePolicy deducts the share of gross weight above a base moisture level
type MoisturePolicy struct {
	BasePercent decimal.Decimal
}

func (p MoisturePolicy) Name() string { return "moisture" }

func (p MoisturePolicy) StandardDeduction(in DeductionInput) decimal.Decimal {
	excess := in.MoistureContent.Sub(p.BasePercent)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	return in.GrossWeight.Mul(excess).Div(decimal.NewFromInt(100)).Round(2)
}

// NewPolicy builds the named policy
func NewPolicy(name string, kgPerBag, moistureBase float64) (DeductionPolicy, error) {
	switch name {
	case "", "per_bag":
		return PerBagPolicy{KgPerBag: decimal.NewFromFloat(kgPerBag)}, nil
	case "moisture":
		return MoisturePolicy{BasePercent: decimal.NewFromFloat(moistureBase)}, nil
	}
	return nil, fmt.Errorf("unknown deduction policy %q", name)
}

// Weights is the result of a weighing
type Weights struct {
	BagsCount         int
	GrossWeight       decimal.Decimal
	StandardDeduction decimal.Decimal
	QualityDeduction  decimal.Decimal
	NetWeight         decimal.Decimal
}

// GrossWeight sums bag weights. Every bag must weigh more than zero.
func GrossWeight(bagWeights []float64) (decimal.Decimal, error) {
	gross := decimal.Zero
	for i, w := range bagWeights {
		if w <= 0 {
			return decimal.Zero, domain.Validationf("bag %d weight must be greater than 0", i+1)
		}
		gross = gross.Add(decimal.NewFromFloat(w))
	}
	return gross.Round(2), nil
}

// NetWeight is max(0, gross - standard - quality)
func NetWeight(gross, standard, quality decimal.Decimal) (decimal.Decimal, error) {
	if gross.IsNegative() || standard.IsNegative() || quality.IsNegative() {
		return decimal.Zero, domain.Validationf("weights and deductions must not be negative")
	}
	net := gross.Sub(standard).Sub(quality)
	if net.IsNegative() {
		return decimal.Zero, nil
	}
	return net.Round(2), nil
}

// Calculator applies a deduction policy
type Calculator struct {
	policy DeductionPolicy
}

// NewCalculator creates a calculator; nil policy selects the canonical per-bag rule
func NewCalculator(policy DeductionPolicy) *Calculator {
	if policy == nil {
		policy = PerBagPolicy{KgPerBag: DefaultKgPerBag}
	}
	return &Calculator{policy: policy}
}

// Policy returns the active deduction policy
func (c *Calculator) Policy() DeductionPolicy {
	return c.policy
}

// Weigh computes gross, standard deduction and net weight for a set of bags
func (c *Calculator) Weigh(bagWeights []float64, moistureContent, qualityDeduction float64) (*Weights, error) {
	if moistureContent < 0 || moistureContent > 100 {
		return nil, domain.Validationf("moisture content must be between 0 and 100")
	}
	if qualityDeduction < 0 {
		return nil, domain.Validationf("quality deduction must not be negative")
	}

	gross, err := GrossWeight(bagWeights)
	if err != nil {
		return nil, err
	}

	standard := c.policy.StandardDeduction(DeductionInput{
		BagsCount:       len(bagWeights),
		GrossWeight:     gross,
		MoistureContent: decimal.NewFromFloat(moistureContent),
	})
	quality := decimal.NewFromFloat(qualityDeduction).Round(2)

	net, err := NetWeight(gross, standard, quality)
	if err != nil {
		return nil, err
	}

	return &Weights{
		BagsCount:         len(bagWeights),
		GrossWeight:       gross,
		StandardDeduction: standard,
		QualityDeduction:  quality,
		NetWeight:         net,
	}, nil
}
