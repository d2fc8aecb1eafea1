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

// Lorry errors
var (
	ErrPlateTaken      = domain.NewError(domain.KindConflict, "plate number already registered in this organization")
	ErrManagerNotFound = domain.NewError(domain.KindNotFound, "field manager not found")
	ErrNotFieldManager = domain.NewError(domain.KindValidation, "user is not an approved field manager")
	ErrLorryLocked     = domain.NewError(domain.KindInvalidState, "lorry can no longer be edited")
	ErrLorryLoaded     = domain.NewError(domain.KindInvalidState, "lorry still carries deliveries")
)

// LorryService manages the organization fleet
type LorryService struct {
	store *repositories.Store
}

// NewLorryService creates a new lorry service
func NewLorryService(store *repositories.Store) *LorryService {
	return &LorryService{store: store}
}

// CreateLorryInput represents create lorry input
type CreateLorryInput struct {
	PlateNumber string  `json:"plate_number" validate:"required,max=20"`
	DriverName  string  `json:"driver_name" validate:"max=100"`
	DriverPhone string  `json:"driver_phone" validate:"max=30"`
	CapacityKg  float64 `json:"capacity_kg" validate:"gte=0"`
}

// UpdateLorryInput represents update lorry input; nil fields are unchanged
type UpdateLorryInput struct {
	PlateNumber *string  `json:"plate_number" validate:"omitempty,min=1,max=20"`
	DriverName  *string  `json:"driver_name" validate:"omitempty,max=100"`
	DriverPhone *string  `json:"driver_phone" validate:"omitempty,max=30"`
	CapacityKg  *float64 `json:"capacity_kg" validate:"omitempty,gte=0"`
	Version     *uint    `json:"version"`
}

// AssignLorryInput names the field manager for a lorry run
type AssignLorryInput struct {
	FieldManagerID uint `json:"field_manager_id" validate:"required"`
}

// Create adds an AVAILABLE lorry to the caller's organization
func (s *LorryService) Create(ctx context.Context, caller domain.Identity, input *CreateLorryInput) (*models.Lorry, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionLorryManage, 0); err != nil {
		return nil, err
	}

	plate := normalizePlate(input.PlateNumber)
	var lorry *models.Lorry
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		taken, err := tx.Lorries.ExistsByPlate(ctx, caller.OrganizationID, plate, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrPlateTaken
		}

		lorry = &models.Lorry{
			OrganizationID: caller.OrganizationID,
			PlateNumber:    plate,
			DriverName:     strings.TrimSpace(input.DriverName),
			DriverPhone:    strings.TrimSpace(input.DriverPhone),
			CapacityKg:     input.CapacityKg,
			Status:         domain.LorryStatusAvailable,
		}
		return tx.Lorries.Create(ctx, lorry)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Lorry #%d created: %s", lorry.ID, lorry.PlateNumber)
	return lorry, nil
}

// Get returns a lorry of the caller's organization
func (s *LorryService) Get(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error) {
	if err := caller.Can(domain.ActionLorryView, 0); err != nil {
		return nil, err
	}
	return findLorry(ctx, s.store, caller, domain.ActionLorryView, id)
}

// List lists lorries of the caller's organization
func (s *LorryService) List(ctx context.Context, caller domain.Identity, status *domain.LorryStatus, params *pagination.Params) ([]*models.Lorry, int64, error) {
	if err := caller.Can(domain.ActionLorryView, 0); err != nil {
		return nil, 0, err
	}
	return s.store.Lorries.List(ctx, caller.OrganizationID, status, params.Offset, params.Limit)
}

// Update edits plate, driver or capacity of a lorry that is not yet submitted
func (s *LorryService) Update(ctx context.Context, caller domain.Identity, id uint, input *UpdateLorryInput) (*models.Lorry, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionLorryManage, 0); err != nil {
		return nil, err
	}

	var lorry *models.Lorry
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		l, err := findLorry(ctx, tx, caller, domain.ActionLorryManage, id)
		if err != nil {
			return err
		}
		if input.Version != nil && *input.Version != l.Version {
			return ErrVersionMismatch
		}
		if l.Status.Locked() {
			return ErrLorryLocked
		}

		if input.PlateNumber != nil {
			plate := normalizePlate(*input.PlateNumber)
			taken, err := tx.Lorries.ExistsByPlate(ctx, l.OrganizationID, plate, l.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrPlateTaken
			}
			l.PlateNumber = plate
		}
		if input.DriverName != nil {
			l.DriverName = strings.TrimSpace(*input.DriverName)
		}
		if input.DriverPhone != nil {
			l.DriverPhone = strings.TrimSpace(*input.DriverPhone)
		}
		if input.CapacityKg != nil {
			l.CapacityKg = *input.CapacityKg
		}

		if err := tx.Lorries.Update(ctx, l); err != nil {
			return saveErr(err)
		}
		lorry = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lorry, nil
}

// Assign hands a lorry to an approved field manager of the same organization
func (s *LorryService) Assign(ctx context.Context, caller domain.Identity, id uint, input *AssignLorryInput) (*models.Lorry, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionLorryManage, 0); err != nil {
		return nil, err
	}

	return s.transition(ctx, caller, id, domain.LorryActionAssign, func(tx *repositories.Store, l *models.Lorry) error {
		manager, err := tx.Users.GetByID(ctx, input.FieldManagerID)
		if err != nil {
			return lookupErr(err, ErrManagerNotFound)
		}
		if manager.OrgID() != l.OrganizationID {
			return ErrManagerNotFound
		}
		if manager.Role != domain.RoleFieldManager || manager.Status != domain.UserStatusApproved {
			return ErrNotFieldManager
		}
		l.AssignedManagerID = &manager.ID
		return nil
	})
}

// Unassign releases an ASSIGNED lorry, or a LOADING one whose deliveries
// were all deleted, back to AVAILABLE
func (s *LorryService) Unassign(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error) {
	if err := caller.Can(domain.ActionLorryManage, 0); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, domain.LorryActionUnassign, func(tx *repositories.Store, l *models.Lorry) error {
		if l.Status == domain.LorryStatusLoading {
			deliveries, err := tx.Deliveries.ListByLorry(ctx, l.ID)
			if err != nil {
				return err
			}
			if len(deliveries) > 0 {
				return ErrLorryLoaded
			}
		}
		l.AssignedManagerID = nil
		return nil
	})
}

// Maintenance takes an AVAILABLE lorry out of service
func (s *LorryService) Maintenance(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error) {
	if err := caller.Can(domain.ActionLorryManage, 0); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, domain.LorryActionMaintenance, nil)
}

// Restore returns a lorry from maintenance
func (s *LorryService) Restore(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error) {
	if err := caller.Can(domain.ActionLorryManage, 0); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, domain.LorryActionRestore, nil)
}

// transition applies a fleet-management action through the lorry table
func (s *LorryService) transition(ctx context.Context, caller domain.Identity, id uint, action domain.LorryAction, mutate func(tx *repositories.Store, l *models.Lorry) error) (*models.Lorry, error) {
	var lorry *models.Lorry
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		l, err := findLorry(ctx, tx, caller, domain.ActionLorryManage, id)
		if err != nil {
			return err
		}

		next, err := domain.NextLorryStatus(l.Status, action)
		if err != nil {
			return err
		}
		if mutate != nil {
			if err := mutate(tx, l); err != nil {
				return err
			}
		}
		l.Status = next

		if err := tx.Lorries.Update(ctx, l); err != nil {
			return saveErr(err)
		}
		lorry = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🚚 Lorry #%d %s → %s", lorry.ID, action, lorry.Status)
	return lorry, nil
}

func findLorry(ctx context.Context, store *repositories.Store, caller domain.Identity, action domain.Action, id uint) (*models.Lorry, error) {
	lorry, err := store.Lorries.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrLorryNotFound)
	}
	if err := caller.Can(action, lorry.OrganizationID); err != nil {
		return nil, scopeErr(err, ErrLorryNotFound)
	}
	return lorry, nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), " "))
}
