package services

import (
	"testing"

	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/pagination"
)

func TestFarmerCRUD(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	other := e.farm("Beta")

	created, err := e.farmers.Create(e.ctx, f.fm, &CreateFarmerInput{Name: "  Malee  ", Village: "Ban Kok", Phone: "081"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Name != "Malee" || created.Status != domain.FarmerStatusActive || created.OrganizationID != f.org.ID {
		t.Errorf("farmer = %+v", created)
	}

	_, err = e.farmers.Create(e.ctx, f.fm, &CreateFarmerInput{Name: ""})
	expectKind(t, err, domain.KindValidation)

	_, err = e.farmers.Get(e.ctx, other.admin, created.ID)
	expectErr(t, err, ErrFarmerNotFound)

	_, err = e.farmers.Update(e.ctx, f.admin, created.ID, &UpdateFarmerInput{Name: ptr("   ")})
	expectKind(t, err, domain.KindValidation)

	updated, err := e.farmers.Update(e.ctx, f.admin, created.ID, &UpdateFarmerInput{BankAccount: ptr("123-4-56789")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.BankAccount != "123-4-56789" || updated.Name != "Malee" {
		t.Errorf("farmer = %+v", updated)
	}

	list, total, err := e.farmers.List(e.ctx, f.fm, repositories.FarmerFilter{Search: " mal "}, &pagination.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || list[0].ID != created.ID {
		t.Errorf("search = %d results", total)
	}

	if _, err := e.farmers.Deactivate(e.ctx, f.admin, created.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	active := domain.FarmerStatusActive
	_, total, err = e.farmers.List(e.ctx, f.fm, repositories.FarmerFilter{Status: &active}, &pagination.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Errorf("active farmers = %d, expected only the fixture farmer", total)
	}
}

func TestCrossOrganizationLookups(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	other := e.farm("Beta")
	d := e.delivery(f, scenarioBags())
	advance, err := e.advances.Create(e.ctx, f.admin, f.farmer.ID, &CreateAdvanceInput{Amount: 100, Status: domain.PaymentStatusPending})
	if err != nil {
		t.Fatalf("create advance: %v", err)
	}

	tests := []struct {
		name     string
		call     func() error
		expected error
	}{
		{"farmer", func() error {
			_, err := e.farmers.Get(e.ctx, other.admin, f.farmer.ID)
			return err
		}, ErrFarmerNotFound},
		{"farmer balance", func() error {
			_, err := e.advances.Balance(e.ctx, other.fm, f.farmer.ID)
			return err
		}, ErrFarmerNotFound},
		{"advance", func() error {
			_, err := e.advances.Complete(e.ctx, other.admin, advance.ID)
			return err
		}, ErrAdvanceNotFound},
		{"lorry", func() error {
			_, err := e.lorries.Get(e.ctx, other.admin, f.lorry.ID)
			return err
		}, ErrLorryNotFound},
		{"lorry submit", func() error {
			_, err := e.lifecycle.SubmitLorry(e.ctx, other.fm, f.lorry.ID)
			return err
		}, ErrLorryNotFound},
		{"lorry summary", func() error {
			_, err := e.summary.LorrySummary(e.ctx, other.admin, f.lorry.ID)
			return err
		}, ErrLorryNotFound},
		{"delivery", func() error {
			_, err := e.deliveries.Get(e.ctx, other.admin, d.ID)
			return err
		}, ErrDeliveryNotFound},
		{"delivery pricing", func() error {
			_, err := e.lifecycle.SetPricing(e.ctx, other.admin, d.ID, &PricingInput{PricePerKg: 10})
			return err
		}, ErrDeliveryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			expectErr(t, err, tt.expected)
			if err.Error() != tt.expected.Error() {
				t.Errorf("message = %q, expected %q", err.Error(), tt.expected.Error())
			}
		})
	}
}
