package services

import (
	"reflect"
	"testing"
	"time"

	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
)

func TestSetPricing_NetsAdvances(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, scenarioBags())

	for _, amount := range []float64{500, 300} {
		if _, err := e.advances.Create(e.ctx, f.admin, f.farmer.ID, &CreateAdvanceInput{Amount: amount}); err != nil {
			t.Fatalf("create advance: %v", err)
		}
	}
	// pending advances are not netted
	if _, err := e.advances.Create(e.ctx, f.admin, f.farmer.ID, &CreateAdvanceInput{Amount: 1000, Status: domain.PaymentStatusPending}); err != nil {
		t.Fatalf("create pending advance: %v", err)
	}

	priced, err := e.lifecycle.SetPricing(e.ctx, f.admin, d.ID, &PricingInput{PricePerKg: 25.50})
	if err != nil {
		t.Fatalf("SetPricing: %v", err)
	}

	checks := []struct {
		name     string
		got      string
		expected string
	}{
		{"price", priced.PricePerKg.Decimal.StringFixed(2), "25.50"},
		{"total", priced.TotalValue.Decimal.StringFixed(2), "5763.00"},
		{"advance", priced.AdvanceAmount.Decimal.StringFixed(2), "800.00"},
		{"final", priced.FinalAmount.Decimal.StringFixed(2), "4963.00"},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s = %s, expected %s", c.name, c.got, c.expected)
		}
	}
	if priced.PricedAt == nil {
		t.Error("priced_at not set")
	}

	// repricing keeps the same advances linked
	repriced, err := e.lifecycle.SetPricing(e.ctx, f.admin, d.ID, &PricingInput{PricePerKg: 20})
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if got := repriced.FinalAmount.Decimal.StringFixed(2); got != "3720.00" {
		t.Errorf("final after reprice = %s, expected 3720.00", got)
	}
}

func TestSetPricing_NegativeFinalAmount(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, []float64{10})

	if _, err := e.advances.Create(e.ctx, f.admin, f.farmer.ID, &CreateAdvanceInput{Amount: 1000}); err != nil {
		t.Fatalf("create advance: %v", err)
	}
	priced, err := e.lifecycle.SetPricing(e.ctx, f.admin, d.ID, &PricingInput{PricePerKg: 10})
	if err != nil {
		t.Fatalf("SetPricing: %v", err)
	}
	if !priced.FinalAmount.Decimal.IsNegative() {
		t.Errorf("final = %s, expected a negative balance owed by the farmer", priced.FinalAmount.Decimal)
	}
}

func TestSetPricing_AdvancesNettedOnce(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	first := e.delivery(f, scenarioBags())

	second := e.assignedLorry(f.admin, "Alpha-5678", f.fmUser.ID)
	other, err := e.deliveries.Create(e.ctx, f.fm, &CreateDeliveryInput{
		LorryID:         second.ID,
		FarmerID:        f.farmer.ID,
		BagsCount:       2,
		BagWeights:      []float64{50, 50},
		MoistureContent: 14,
	})
	if err != nil {
		t.Fatalf("create second delivery: %v", err)
	}

	for _, amount := range []float64{500, 300} {
		if _, err := e.advances.Create(e.ctx, f.admin, f.farmer.ID, &CreateAdvanceInput{Amount: amount}); err != nil {
			t.Fatalf("create advance: %v", err)
		}
	}

	// pricing the first delivery reads the advances before the second commits
	read, err := e.store.Advances.ListReconcilable(e.ctx, f.farmer.ID, first.ID)
	if err != nil {
		t.Fatalf("ListReconcilable: %v", err)
	}
	if len(read) != 2 {
		t.Fatalf("read %d advances, expected 2", len(read))
	}

	priced, err := e.lifecycle.SetPricing(e.ctx, f.admin, other.ID, &PricingInput{PricePerKg: 10})
	if err != nil {
		t.Fatalf("SetPricing: %v", err)
	}
	if got := priced.AdvanceAmount.Decimal.StringFixed(2); got != "800.00" {
		t.Fatalf("advance = %s, expected 800.00", got)
	}

	ids := []uint{read[0].ID, read[1].ID}
	err = e.store.Advances.Reconcile(e.ctx, ids, first.ID, time.Now())
	expectErr(t, err, repositories.ErrStaleVersion)
	expectKind(t, saveErr(err), domain.KindConflict)

	outstanding, err := e.store.Advances.ListReconcilable(e.ctx, f.farmer.ID, other.ID)
	if err != nil {
		t.Fatalf("ListReconcilable: %v", err)
	}
	for _, a := range outstanding {
		if a.ReconciledDeliveryID == nil || *a.ReconciledDeliveryID != other.ID {
			t.Errorf("advance #%d linked to %v, expected delivery #%d", a.ID, a.ReconciledDeliveryID, other.ID)
		}
	}

	// the first delivery now prices with nothing left to net
	priced, err = e.lifecycle.SetPricing(e.ctx, f.admin, first.ID, &PricingInput{PricePerKg: 25.50})
	if err != nil {
		t.Fatalf("SetPricing: %v", err)
	}
	if got := priced.AdvanceAmount.Decimal.StringFixed(2); got != "0.00" {
		t.Errorf("advance = %s, expected 0.00", got)
	}
	if got := priced.FinalAmount.Decimal.StringFixed(2); got != "5763.00" {
		t.Errorf("final = %s, expected 5763.00", got)
	}
}

func TestSetPricing_Rejections(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	other := e.farm("Beta")
	d := e.delivery(f, scenarioBags())

	empty, err := e.deliveries.Create(e.ctx, f.fm, &CreateDeliveryInput{
		LorryID:  f.lorry.ID,
		FarmerID: e.farmer(f.admin, "Malee").ID,
	})
	if err != nil {
		t.Fatalf("create empty delivery: %v", err)
	}

	tests := []struct {
		name   string
		caller domain.Identity
		id     uint
		price  float64
		kind   domain.Kind
	}{
		{"field manager", f.fm, d.ID, 25.5, domain.KindPermission},
		{"other organization", other.admin, d.ID, 25.5, domain.KindNotFound},
		{"negative price", f.admin, d.ID, -1, domain.KindValidation},
		{"no bags weighed", f.admin, empty.ID, 25.5, domain.KindInvalidState},
		{"missing delivery", f.admin, 9999, 25.5, domain.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.lifecycle.SetPricing(e.ctx, tt.caller, tt.id, &PricingInput{PricePerKg: tt.price})
			expectKind(t, err, tt.kind)
		})
	}
}

func TestSetQualityDeduction_Reprices(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, scenarioBags())

	if _, err := e.lifecycle.SetPricing(e.ctx, f.admin, d.ID, &PricingInput{PricePerKg: 25.50}); err != nil {
		t.Fatalf("SetPricing: %v", err)
	}

	updated, err := e.lifecycle.SetQualityDeduction(e.ctx, f.admin, d.ID, &QualityDeductionInput{
		QualityDeduction: 6,
		QualityGrade:     ptr("B"),
	})
	if err != nil {
		t.Fatalf("SetQualityDeduction: %v", err)
	}
	if updated.NetWeight != 220 {
		t.Errorf("net = %v, expected 220", updated.NetWeight)
	}
	if updated.QualityGrade != "B" {
		t.Errorf("grade = %q, expected B", updated.QualityGrade)
	}
	if got := updated.TotalValue.Decimal.StringFixed(2); got != "5610.00" {
		t.Errorf("total = %s, expected 5610.00", got)
	}

	zeroed, err := e.lifecycle.SetQualityDeduction(e.ctx, f.admin, d.ID, &QualityDeductionInput{QualityDeduction: 500})
	if err != nil {
		t.Fatalf("SetQualityDeduction over gross: %v", err)
	}
	if zeroed.NetWeight != 0 || zeroed.TotalValue.Decimal.StringFixed(2) != "0.00" {
		t.Errorf("net/total = %v/%s, expected 0/0.00", zeroed.NetWeight, zeroed.TotalValue.Decimal.StringFixed(2))
	}

	_, err = e.lifecycle.SetQualityDeduction(e.ctx, f.admin, d.ID, &QualityDeductionInput{QualityDeduction: -1})
	expectKind(t, err, domain.KindValidation)

	_, err = e.lifecycle.SetQualityDeduction(e.ctx, f.fm, d.ID, &QualityDeductionInput{QualityDeduction: 1})
	expectKind(t, err, domain.KindPermission)
}

func TestSubmitLorry(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	first := e.delivery(f, scenarioBags())
	second, err := e.deliveries.Create(e.ctx, f.fm, &CreateDeliveryInput{
		LorryID:    f.lorry.ID,
		FarmerID:   e.farmer(f.admin, "Malee").ID,
		BagsCount:  2,
		BagWeights: []float64{40, 42},
	})
	if err != nil {
		t.Fatalf("create second delivery: %v", err)
	}

	lorry, err := e.lifecycle.SubmitLorry(e.ctx, f.fm, f.lorry.ID)
	if err != nil {
		t.Fatalf("SubmitLorry: %v", err)
	}
	if lorry.Status != domain.LorryStatusSubmitted || lorry.SubmittedAt == nil {
		t.Errorf("lorry = %s (submitted_at %v), expected SUBMITTED", lorry.Status, lorry.SubmittedAt)
	}

	for _, id := range []uint{first.ID, second.ID} {
		d, err := e.store.Deliveries.GetByID(e.ctx, id)
		if err != nil {
			t.Fatalf("reload delivery: %v", err)
		}
		if d.Status != domain.DeliveryStatusCompleted || d.DeliveredAt == nil {
			t.Errorf("delivery #%d = %s, expected COMPLETED with delivered_at", id, d.Status)
		}
	}

	msg := e.sent.last()
	if msg.Event != EventLorrySubmitted {
		t.Fatalf("event = %q, expected %q", msg.Event, EventLorrySubmitted)
	}
	if !reflect.DeepEqual(msg.To, []string{"alpha-admin@example.com"}) {
		t.Errorf("recipients = %v", msg.To)
	}

	// a second submit is not a valid transition
	_, err = e.lifecycle.SubmitLorry(e.ctx, f.fm, f.lorry.ID)
	expectKind(t, err, domain.KindInvalidState)
}

func TestSubmitLorry_Rejections(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	_, strangerFM := e.user(f.org, domain.RoleFieldManager, domain.UserStatusApproved, "stranger@example.com")

	t.Run("no open deliveries", func(t *testing.T) {
		_, err := e.lifecycle.SubmitLorry(e.ctx, f.fm, f.lorry.ID)
		expectErr(t, err, ErrNoOpenDeliveries)
	})

	e.delivery(f, []float64{40})

	t.Run("not the assigned manager", func(t *testing.T) {
		_, err := e.lifecycle.SubmitLorry(e.ctx, strangerFM, f.lorry.ID)
		expectErr(t, err, ErrNotAssignedManager)
	})

	t.Run("farm admin", func(t *testing.T) {
		_, err := e.lifecycle.SubmitLorry(e.ctx, f.admin, f.lorry.ID)
		expectKind(t, err, domain.KindPermission)
	})
}

func TestMarkSentToDealer(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, scenarioBags())

	_, err := e.lifecycle.MarkSentToDealer(e.ctx, f.admin, f.lorry.ID, nil)
	expectKind(t, err, domain.KindInvalidState)

	if _, err := e.lifecycle.SubmitLorry(e.ctx, f.fm, f.lorry.ID); err != nil {
		t.Fatalf("SubmitLorry: %v", err)
	}

	// admin overrides still work on a submitted lorry
	if _, err := e.lifecycle.SetPricing(e.ctx, f.admin, d.ID, &PricingInput{PricePerKg: 25.50}); err != nil {
		t.Fatalf("SetPricing on submitted lorry: %v", err)
	}

	_, err = e.lifecycle.MarkSentToDealer(e.ctx, f.fm, f.lorry.ID, nil)
	expectKind(t, err, domain.KindPermission)

	lorry, err := e.lifecycle.MarkSentToDealer(e.ctx, f.admin, f.lorry.ID, &SendToDealerInput{DealerName: " Mill Co "})
	if err != nil {
		t.Fatalf("MarkSentToDealer: %v", err)
	}
	if lorry.Status != domain.LorryStatusSentToDealer || lorry.SentToDealerAt == nil {
		t.Errorf("lorry = %s, expected SENT_TO_DEALER with timestamp", lorry.Status)
	}
	if lorry.DealerName != "Mill Co" {
		t.Errorf("dealer = %q, expected trimmed name", lorry.DealerName)
	}

	msg := e.sent.last()
	if msg.Event != EventLorrySentToDealer {
		t.Fatalf("event = %q, expected %q", msg.Event, EventLorrySentToDealer)
	}
	if !reflect.DeepEqual(msg.To, []string{"alpha-fm@example.com"}) {
		t.Errorf("recipients = %v", msg.To)
	}

	_, err = e.lifecycle.SetPricing(e.ctx, f.admin, d.ID, &PricingInput{PricePerKg: 30})
	expectErr(t, err, ErrLorryClosed)
	_, err = e.lifecycle.SetQualityDeduction(e.ctx, f.admin, d.ID, &QualityDeductionInput{QualityDeduction: 1})
	expectErr(t, err, ErrLorryClosed)

	_, err = e.lifecycle.MarkSentToDealer(e.ctx, f.admin, f.lorry.ID, nil)
	expectKind(t, err, domain.KindInvalidState)
}
