package services

import (
	"context"
	"log"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/calc"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/validator"
)

// Advance errors
var (
	ErrAdvanceNotFound  = domain.NewError(domain.KindNotFound, "advance payment not found")
	ErrAdvanceImmutable = domain.NewError(domain.KindInvalidState, "only PENDING advance payments can be changed")
)

// AdvanceService manages farmer advance payments
type AdvanceService struct {
	store *repositories.Store
	now   func() time.Time
}

// NewAdvanceService creates a new advance service
func NewAdvanceService(store *repositories.Store) *AdvanceService {
	return &AdvanceService{store: store, now: time.Now}
}

// CreateAdvanceInput records money paid to a farmer ahead of delivery
type CreateAdvanceInput struct {
	Amount      float64              `json:"amount" validate:"gt=0"`
	PaymentDate *time.Time           `json:"payment_date"`
	Status      domain.PaymentStatus `json:"status" validate:"omitempty,oneof=PENDING COMPLETED"`
	Notes       string               `json:"notes" validate:"max=2000"`
}

// AdvanceBalance is a farmer's outstanding advance total
type AdvanceBalance struct {
	FarmerID    uint    `json:"farmer_id"`
	Outstanding float64 `json:"outstanding"`
	Count       int     `json:"count"`
}

// Create records an advance for a farmer of the caller's organization.
// Status defaults to COMPLETED.
func (s *AdvanceService) Create(ctx context.Context, caller domain.Identity, farmerID uint, input *CreateAdvanceInput) (*models.AdvancePayment, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionAdvanceCreate, 0); err != nil {
		return nil, err
	}

	amount := calc.CentsFromFloat(input.Amount)
	if amount <= 0 {
		return nil, domain.Validationf("amount must be at least 0.01")
	}

	farmer, err := s.loadFarmer(ctx, caller, domain.ActionAdvanceCreate, farmerID)
	if err != nil {
		return nil, err
	}
	if farmer.Status != domain.FarmerStatusActive {
		return nil, ErrFarmerInactive
	}

	status := input.Status
	if status == "" {
		status = domain.PaymentStatusCompleted
	}
	paidAt := s.now()
	if input.PaymentDate != nil {
		paidAt = *input.PaymentDate
	}

	advance := &models.AdvancePayment{
		OrganizationID: farmer.OrganizationID,
		FarmerID:       farmer.ID,
		Amount:         amount.Decimal(),
		PaymentDate:    paidAt,
		Status:         status,
		Notes:          input.Notes,
		CreatedByID:    caller.UserID,
	}
	if err := s.store.Advances.Create(ctx, advance); err != nil {
		return nil, err
	}

	log.Printf("💵 Advance #%d of %s recorded for farmer #%d (%s)", advance.ID, amount, farmer.ID, status)
	return advance, nil
}

// List lists a farmer's advances, newest first
func (s *AdvanceService) List(ctx context.Context, caller domain.Identity, farmerID uint, params *pagination.Params) ([]*models.AdvancePayment, int64, error) {
	if err := caller.Can(domain.ActionAdvanceView, 0); err != nil {
		return nil, 0, err
	}
	if _, err := s.loadFarmer(ctx, caller, domain.ActionAdvanceView, farmerID); err != nil {
		return nil, 0, err
	}
	return s.store.Advances.ListByFarmer(ctx, farmerID, params.Offset, params.Limit)
}

// Balance sums the farmer's COMPLETED advances not yet reconciled against a delivery
func (s *AdvanceService) Balance(ctx context.Context, caller domain.Identity, farmerID uint) (*AdvanceBalance, error) {
	if err := caller.Can(domain.ActionAdvanceView, 0); err != nil {
		return nil, err
	}
	if _, err := s.loadFarmer(ctx, caller, domain.ActionAdvanceView, farmerID); err != nil {
		return nil, err
	}

	outstanding, err := s.store.Advances.ListOutstanding(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	var total calc.Cents
	for _, a := range outstanding {
		total += calc.CentsFromDecimal(a.Amount)
	}
	return &AdvanceBalance{
		FarmerID:    farmerID,
		Outstanding: total.Float64(),
		Count:       len(outstanding),
	}, nil
}

// Complete marks a PENDING advance as paid
func (s *AdvanceService) Complete(ctx context.Context, caller domain.Identity, advanceID uint) (*models.AdvancePayment, error) {
	return s.settle(ctx, caller, advanceID, domain.PaymentStatusCompleted)
}

// Cancel voids a PENDING advance
func (s *AdvanceService) Cancel(ctx context.Context, caller domain.Identity, advanceID uint) (*models.AdvancePayment, error) {
	return s.settle(ctx, caller, advanceID, domain.PaymentStatusCancelled)
}

func (s *AdvanceService) settle(ctx context.Context, caller domain.Identity, advanceID uint, status domain.PaymentStatus) (*models.AdvancePayment, error) {
	if err := caller.Can(domain.ActionAdvanceManage, 0); err != nil {
		return nil, err
	}

	var advance *models.AdvancePayment
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		a, err := tx.Advances.GetByID(ctx, advanceID)
		if err != nil {
			return lookupErr(err, ErrAdvanceNotFound)
		}
		if err := caller.Can(domain.ActionAdvanceManage, a.OrganizationID); err != nil {
			return scopeErr(err, ErrAdvanceNotFound)
		}
		if a.Status != domain.PaymentStatusPending {
			return ErrAdvanceImmutable
		}

		a.Status = status
		if status == domain.PaymentStatusCompleted {
			a.PaymentDate = s.now()
		}
		if err := tx.Advances.Update(ctx, a); err != nil {
			return err
		}
		advance = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("💵 Advance #%d marked %s", advance.ID, status)
	return advance, nil
}

func (s *AdvanceService) loadFarmer(ctx context.Context, caller domain.Identity, action domain.Action, farmerID uint) (*models.Farmer, error) {
	farmer, err := s.store.Farmers.GetByID(ctx, farmerID)
	if err != nil {
		return nil, lookupErr(err, ErrFarmerNotFound)
	}
	if err := caller.Can(action, farmer.OrganizationID); err != nil {
		return nil, scopeErr(err, ErrFarmerNotFound)
	}
	return farmer, nil
}
