package services

import (
	"context"
	"log"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/calc"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/validator"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Delivery errors
var (
	ErrDeliveryNotFound   = domain.NewError(domain.KindNotFound, "delivery not found")
	ErrLorryNotFound      = domain.NewError(domain.KindNotFound, "lorry not found")
	ErrFarmerNotFound     = domain.NewError(domain.KindNotFound, "farmer not found")
	ErrFarmerInactive     = domain.NewError(domain.KindInvalidState, "farmer is inactive")
	ErrLorryNotLoadable   = domain.NewError(domain.KindInvalidState, "lorry is not accepting deliveries (must be ASSIGNED or LOADING)")
	ErrLorryUnassigned    = domain.NewError(domain.KindInvalidState, "lorry has no assigned field manager")
	ErrNotAssignedManager = domain.NewError(domain.KindPermission, "only the field manager assigned to this lorry can do this")
	ErrOpenDeliveryExists = domain.NewError(domain.KindConflict, "farmer already has an open delivery on this lorry")
	ErrDeliveryLocked     = domain.NewError(domain.KindInvalidState, "delivery can no longer be edited")
)

// DeliveryService builds and edits delivery records
type DeliveryService struct {
	store      *repositories.Store
	calculator *calc.Calculator
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(store *repositories.Store, calculator *calc.Calculator) *DeliveryService {
	if calculator == nil {
		calculator = calc.NewCalculator(nil)
	}
	return &DeliveryService{store: store, calculator: calculator}
}

// CreateDeliveryInput attaches a farmer's corn to a lorry run
type CreateDeliveryInput struct {
	LorryID         uint      `json:"lorry_id" validate:"required"`
	FarmerID        uint      `json:"farmer_id" validate:"required"`
	BagsCount       int       `json:"bags_count" validate:"gte=0"`
	BagWeights      []float64 `json:"bag_weights" validate:"dive,gt=0"`
	BagNumbers      []int     `json:"bag_numbers" validate:"omitempty,dive,gt=0"`
	MoistureContent float64   `json:"moisture_content" validate:"gte=0,lte=100"`
	QualityGrade    string    `json:"quality_grade" validate:"max=20"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

// UpdateDeliveryInput is a partial update; nil fields are left unchanged.
// Version, when set, must match the stored version.
type UpdateDeliveryInput struct {
	BagsCount       *int      `json:"bags_count" validate:"omitempty,gte=0"`
	BagWeights      []float64 `json:"bag_weights" validate:"omitempty,dive,gt=0"`
	BagNumbers      []int     `json:"bag_numbers" validate:"omitempty,dive,gt=0"`
	MoistureContent *float64  `json:"moisture_content" validate:"omitempty,gte=0,lte=100"`
	QualityGrade    *string   `json:"quality_grade" validate:"omitempty,max=20"`
	Notes           *string   `json:"notes" validate:"omitempty,max=2000"`
	Version         *uint     `json:"version"`
}

// AddBagInput appends one weighed bag
type AddBagInput struct {
	Weight    float64 `json:"weight" validate:"gt=0"`
	BagNumber *int    `json:"bag_number" validate:"omitempty,gt=0"`
}

// Create validates and persists a new PENDING delivery. An ASSIGNED lorry
// starts LOADING.
func (s *DeliveryService) Create(ctx context.Context, caller domain.Identity, input *CreateDeliveryInput) (*models.Delivery, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionDeliveryCreate, 0); err != nil {
		return nil, err
	}
	if err := checkBags(input.BagsCount, input.BagWeights, input.BagNumbers); err != nil {
		return nil, err
	}

	weights, err := s.calculator.Weigh(input.BagWeights, input.MoistureContent, 0)
	if err != nil {
		return nil, err
	}

	var delivery *models.Delivery
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		lorry, err := tx.Lorries.GetByID(ctx, input.LorryID)
		if err != nil {
			return lookupErr(err, ErrLorryNotFound)
		}
		if err := caller.Can(domain.ActionDeliveryCreate, lorry.OrganizationID); err != nil {
			return scopeErr(err, ErrLorryNotFound)
		}
		if !lorry.Status.Loadable() {
			return ErrLorryNotLoadable
		}
		if lorry.AssignedManagerID == nil {
			return ErrLorryUnassigned
		}
		if caller.Role == domain.RoleFieldManager && !lorry.IsAssignedTo(caller.UserID) {
			return ErrNotAssignedManager
		}

		farmer, err := tx.Farmers.GetByID(ctx, input.FarmerID)
		if err != nil {
			return lookupErr(err, ErrFarmerNotFound)
		}
		if farmer.OrganizationID != lorry.OrganizationID {
			return ErrFarmerNotFound
		}
		if farmer.Status != domain.FarmerStatusActive {
			return ErrFarmerInactive
		}

		open, err := tx.Deliveries.ExistsOpenForFarmer(ctx, lorry.ID, farmer.ID)
		if err != nil {
			return err
		}
		if open {
			return ErrOpenDeliveryExists
		}

		delivery = &models.Delivery{
			OrganizationID:  lorry.OrganizationID,
			LorryID:         lorry.ID,
			FarmerID:        farmer.ID,
			FieldManagerID:  *lorry.AssignedManagerID,
			BagWeights:      datatypes.JSONSlice[float64](append([]float64{}, input.BagWeights...)),
			MoistureContent: input.MoistureContent,
			QualityGrade:    input.QualityGrade,
			Notes:           input.Notes,
			Status:          domain.DeliveryStatusPending,
		}
		if len(input.BagNumbers) > 0 {
			delivery.BagNumbers = datatypes.JSONSlice[int](append([]int{}, input.BagNumbers...))
		}
		applyWeights(delivery, weights)

		if err := tx.Deliveries.Create(ctx, delivery); err != nil {
			return err
		}

		if lorry.Status == domain.LorryStatusAssigned {
			next, err := domain.NextLorryStatus(lorry.Status, domain.LorryActionStartLoading)
			if err != nil {
				return err
			}
			lorry.Status = next
			if err := tx.Lorries.Update(ctx, lorry); err != nil {
				return saveErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Delivery #%d created (lorry #%d, farmer #%d, %d bags)",
		delivery.ID, delivery.LorryID, delivery.FarmerID, delivery.BagsCount)
	return delivery, nil
}

// Get returns a delivery of the caller's organization
func (s *DeliveryService) Get(ctx context.Context, caller domain.Identity, id uint) (*models.Delivery, error) {
	if err := caller.Can(domain.ActionDeliveryView, 0); err != nil {
		return nil, err
	}

	delivery, err := s.store.Deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrDeliveryNotFound)
	}
	if err := caller.Can(domain.ActionDeliveryView, delivery.OrganizationID); err != nil {
		return nil, scopeErr(err, ErrDeliveryNotFound)
	}
	return delivery, nil
}

// List lists the caller's organization deliveries
func (s *DeliveryService) List(ctx context.Context, caller domain.Identity, filter repositories.DeliveryFilter, params *pagination.Params) ([]*models.Delivery, int64, error) {
	if err := caller.Can(domain.ActionDeliveryView, 0); err != nil {
		return nil, 0, err
	}
	return s.store.Deliveries.List(ctx, caller.OrganizationID, filter, params.Offset, params.Limit)
}

// Update applies a partial update to an open delivery on an unlocked lorry.
// Weights (and the settlement, if priced) are recomputed; nothing is written
// when any check fails.
func (s *DeliveryService) Update(ctx context.Context, caller domain.Identity, id uint, input *UpdateDeliveryInput) (*models.Delivery, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionDeliveryUpdate, 0); err != nil {
		return nil, err
	}

	var delivery *models.Delivery
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		d, _, err := s.loadEditable(ctx, tx, caller, domain.ActionDeliveryUpdate, id)
		if err != nil {
			return err
		}
		if input.Version != nil && *input.Version != d.Version {
			return ErrVersionMismatch
		}

		bags := []float64(d.BagWeights)
		numbers := []int(d.BagNumbers)
		bagsChanged := false
		if input.BagWeights != nil {
			bags = input.BagWeights
			numbers = input.BagNumbers
			bagsChanged = true
		} else if input.BagNumbers != nil {
			numbers = input.BagNumbers
		}
		count := len(bags)
		if input.BagsCount != nil {
			count = *input.BagsCount
		}
		if err := checkBags(count, bags, numbers); err != nil {
			return err
		}

		moisture := d.MoistureContent
		if input.MoistureContent != nil {
			moisture = *input.MoistureContent
		}

		weights, err := s.calculator.Weigh(bags, moisture, d.QualityDeduction)
		if err != nil {
			return err
		}

		action := domain.DeliveryActionEdit
		if bagsChanged && len(bags) > 0 {
			action = domain.DeliveryActionAddBags
		}
		next, err := domain.NextDeliveryStatus(d.Status, action)
		if err != nil {
			return err
		}

		d.BagWeights = datatypes.JSONSlice[float64](append([]float64{}, bags...))
		d.BagNumbers = nil
		if len(numbers) > 0 {
			d.BagNumbers = datatypes.JSONSlice[int](append([]int{}, numbers...))
		}
		d.MoistureContent = moisture
		if input.QualityGrade != nil {
			d.QualityGrade = *input.QualityGrade
		}
		if input.Notes != nil {
			d.Notes = *input.Notes
		}
		d.Status = next
		applyWeights(d, weights)
		if err := reprice(d, weights); err != nil {
			return err
		}

		if err := tx.Deliveries.Update(ctx, d); err != nil {
			return saveErr(err)
		}
		delivery = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// AddBag appends one bag to an open delivery
func (s *DeliveryService) AddBag(ctx context.Context, caller domain.Identity, id uint, input *AddBagInput) (*models.Delivery, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionDeliveryUpdate, 0); err != nil {
		return nil, err
	}

	var delivery *models.Delivery
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		d, _, err := s.loadEditable(ctx, tx, caller, domain.ActionDeliveryUpdate, id)
		if err != nil {
			return err
		}

		bags := append([]float64(d.BagWeights), input.Weight)
		numbers := []int(d.BagNumbers)
		numbered := len(numbers) > 0 || (d.BagsCount == 0 && input.BagNumber != nil)
		switch {
		case numbered && input.BagNumber == nil:
			return domain.Validationf("bag_number is required, this delivery numbers its bags")
		case !numbered && input.BagNumber != nil:
			return domain.Validationf("bag_number not allowed, this delivery does not number its bags")
		case numbered:
			numbers = append(numbers, *input.BagNumber)
		}
		if err := checkBags(len(bags), bags, numbers); err != nil {
			return err
		}

		weights, err := s.calculator.Weigh(bags, d.MoistureContent, d.QualityDeduction)
		if err != nil {
			return err
		}
		next, err := domain.NextDeliveryStatus(d.Status, domain.DeliveryActionAddBags)
		if err != nil {
			return err
		}

		d.BagWeights = datatypes.JSONSlice[float64](bags)
		if numbered {
			d.BagNumbers = datatypes.JSONSlice[int](numbers)
		}
		d.Status = next
		applyWeights(d, weights)
		if err := reprice(d, weights); err != nil {
			return err
		}

		if err := tx.Deliveries.Update(ctx, d); err != nil {
			return saveErr(err)
		}
		delivery = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// Delete removes an editable delivery and releases the advances it reconciled
func (s *DeliveryService) Delete(ctx context.Context, caller domain.Identity, id uint) error {
	if err := caller.Can(domain.ActionDeliveryDelete, 0); err != nil {
		return err
	}

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		d, _, err := s.loadEditable(ctx, tx, caller, domain.ActionDeliveryDelete, id)
		if err != nil {
			return err
		}
		if _, err := domain.NextDeliveryStatus(d.Status, domain.DeliveryActionDelete); err != nil {
			return err
		}

		if err := tx.Advances.ReleaseByDelivery(ctx, d.ID); err != nil {
			return err
		}
		return saveErr(tx.Deliveries.Delete(ctx, d))
	})
	if err != nil {
		return err
	}

	log.Printf("🗑️ Delivery #%d deleted", id)
	return nil
}

// loadEditable fetches a delivery and its lorry and checks that the caller
// may still change it
func (s *DeliveryService) loadEditable(ctx context.Context, tx *repositories.Store, caller domain.Identity, action domain.Action, id uint) (*models.Delivery, *models.Lorry, error) {
	d, err := tx.Deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, nil, lookupErr(err, ErrDeliveryNotFound)
	}
	if err := caller.Can(action, d.OrganizationID); err != nil {
		return nil, nil, scopeErr(err, ErrDeliveryNotFound)
	}

	lorry, err := tx.Lorries.GetByID(ctx, d.LorryID)
	if err != nil {
		return nil, nil, lookupErr(err, ErrLorryNotFound)
	}
	if !d.Status.Open() || lorry.Status.Locked() {
		return nil, nil, ErrDeliveryLocked
	}
	if caller.Role == domain.RoleFieldManager && d.FieldManagerID != caller.UserID && !lorry.IsAssignedTo(caller.UserID) {
		return nil, nil, ErrNotAssignedManager
	}
	return d, lorry, nil
}

// checkBags verifies the declared bag count and optional bag numbering
func checkBags(count int, weights []float64, numbers []int) error {
	if count != len(weights) {
		return domain.Validationf("bags_count %d does not match %d bag weights", count, len(weights))
	}
	if len(numbers) == 0 {
		return nil
	}
	if len(numbers) != len(weights) {
		return domain.Validationf("bag_numbers must have one entry per bag weight")
	}

	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n <= 0 {
			return domain.Validationf("bag numbers must be positive")
		}
		if seen[n] {
			return domain.Conflictf("bag number %d is used more than once", n)
		}
		seen[n] = true
	}
	return nil
}

// applyWeights copies calculator output onto the record
func applyWeights(d *models.Delivery, w *calc.Weights) {
	d.BagsCount = w.BagsCount
	d.GrossWeight = w.GrossWeight.InexactFloat64()
	d.StandardDeduction = w.StandardDeduction.InexactFloat64()
	d.QualityDeduction = w.QualityDeduction.InexactFloat64()
	d.NetWeight = w.NetWeight.InexactFloat64()
}

// storedWeights rebuilds calculator weights from the record
func storedWeights(d *models.Delivery) *calc.Weights {
	return &calc.Weights{
		BagsCount:         d.BagsCount,
		GrossWeight:       decimal.NewFromFloat(d.GrossWeight),
		StandardDeduction: decimal.NewFromFloat(d.StandardDeduction),
		QualityDeduction:  decimal.NewFromFloat(d.QualityDeduction),
		NetWeight:         decimal.NewFromFloat(d.NetWeight),
	}
}

// applySettlement copies pricing output onto the record
func applySettlement(d *models.Delivery, st *calc.Settlement) {
	d.PricePerKg = decimal.NewNullDecimal(st.PricePerKg.Decimal())
	d.TotalValue = decimal.NewNullDecimal(st.TotalValue.Decimal())
	d.AdvanceAmount = decimal.NewNullDecimal(st.AdvanceAmount.Decimal())
	d.FinalAmount = decimal.NewNullDecimal(st.FinalAmount.Decimal())
}

// reprice keeps the settlement of a priced delivery in line with new weights
func reprice(d *models.Delivery, w *calc.Weights) error {
	if !d.IsPriced() {
		return nil
	}
	advance := calc.Cents(0)
	if d.AdvanceAmount.Valid {
		advance = calc.CentsFromDecimal(d.AdvanceAmount.Decimal)
	}
	st, err := calc.Settle(w, calc.CentsFromDecimal(d.PricePerKg.Decimal), advance)
	if err != nil {
		return err
	}
	applySettlement(d, st)
	return nil
}
