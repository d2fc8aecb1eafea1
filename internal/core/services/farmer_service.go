package services

import (
	"context"
	"log"
	"strings"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/validator"
)

// FarmerService manages farmer profiles
type FarmerService struct {
	store *repositories.Store
}

// NewFarmerService creates a new farmer service
func NewFarmerService(store *repositories.Store) *FarmerService {
	return &FarmerService{store: store}
}

// CreateFarmerInput represents create farmer input
type CreateFarmerInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"max=30"`
	Village     string `json:"village" validate:"max=100"`
	NationalID  string `json:"national_id" validate:"max=30"`
	BankAccount string `json:"bank_account" validate:"max=50"`
}

// UpdateFarmerInput represents update farmer input; nil fields are unchanged
type UpdateFarmerInput struct {
	Name        *string              `json:"name" validate:"omitempty,min=1,max=100"`
	Phone       *string              `json:"phone" validate:"omitempty,max=30"`
	Village     *string              `json:"village" validate:"omitempty,max=100"`
	NationalID  *string              `json:"national_id" validate:"omitempty,max=30"`
	BankAccount *string              `json:"bank_account" validate:"omitempty,max=50"`
	Status      *domain.FarmerStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// Create registers a farmer in the caller's organization
func (s *FarmerService) Create(ctx context.Context, caller domain.Identity, input *CreateFarmerInput) (*models.Farmer, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionFarmerManage, 0); err != nil {
		return nil, err
	}

	farmer := &models.Farmer{
		OrganizationID: caller.OrganizationID,
		Name:           strings.TrimSpace(input.Name),
		Phone:          strings.TrimSpace(input.Phone),
		Village:        strings.TrimSpace(input.Village),
		NationalID:     strings.TrimSpace(input.NationalID),
		BankAccount:    strings.TrimSpace(input.BankAccount),
		Status:         domain.FarmerStatusActive,
		CreatedByID:    caller.UserID,
	}
	if err := s.store.Farmers.Create(ctx, farmer); err != nil {
		return nil, err
	}

	log.Printf("✅ Farmer #%d created: %s", farmer.ID, farmer.Name)
	return farmer, nil
}

// Get returns a farmer of the caller's organization
func (s *FarmerService) Get(ctx context.Context, caller domain.Identity, id uint) (*models.Farmer, error) {
	if err := caller.Can(domain.ActionFarmerView, 0); err != nil {
		return nil, err
	}
	return s.load(ctx, s.store, caller, domain.ActionFarmerView, id)
}

// List lists farmers of the caller's organization
func (s *FarmerService) List(ctx context.Context, caller domain.Identity, filter repositories.FarmerFilter, params *pagination.Params) ([]*models.Farmer, int64, error) {
	if err := caller.Can(domain.ActionFarmerView, 0); err != nil {
		return nil, 0, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.store.Farmers.List(ctx, caller.OrganizationID, filter, params.Offset, params.Limit)
}

// Update edits a farmer profile
func (s *FarmerService) Update(ctx context.Context, caller domain.Identity, id uint, input *UpdateFarmerInput) (*models.Farmer, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionFarmerManage, 0); err != nil {
		return nil, err
	}

	var farmer *models.Farmer
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		f, err := s.load(ctx, tx, caller, domain.ActionFarmerManage, id)
		if err != nil {
			return err
		}

		if input.Name != nil {
			f.Name = strings.TrimSpace(*input.Name)
		}
		if input.Phone != nil {
			f.Phone = strings.TrimSpace(*input.Phone)
		}
		if input.Village != nil {
			f.Village = strings.TrimSpace(*input.Village)
		}
		if input.NationalID != nil {
			f.NationalID = strings.TrimSpace(*input.NationalID)
		}
		if input.BankAccount != nil {
			f.BankAccount = strings.TrimSpace(*input.BankAccount)
		}
		if input.Status != nil {
			f.Status = *input.Status
		}
		if f.Name == "" {
			return domain.Validationf("name is required")
		}

		if err := tx.Farmers.Update(ctx, f); err != nil {
			return err
		}
		farmer = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return farmer, nil
}

// Deactivate marks a farmer INACTIVE; farmers are never hard deleted
func (s *FarmerService) Deactivate(ctx context.Context, caller domain.Identity, id uint) (*models.Farmer, error) {
	inactive := domain.FarmerStatusInactive
	farmer, err := s.Update(ctx, caller, id, &UpdateFarmerInput{Status: &inactive})
	if err != nil {
		return nil, err
	}

	log.Printf("⏸️ Farmer #%d deactivated", farmer.ID)
	return farmer, nil
}

func (s *FarmerService) load(ctx context.Context, store *repositories.Store, caller domain.Identity, action domain.Action, id uint) (*models.Farmer, error) {
	farmer, err := store.Farmers.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrFarmerNotFound)
	}
	if err := caller.Can(action, farmer.OrganizationID); err != nil {
		return nil, scopeErr(err, ErrFarmerNotFound)
	}
	return farmer, nil
}
