package services

import (
	"context"
	"log"
	"strings"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/calc"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/validator"
)

// Lifecycle errors
var (
	ErrLorryClosed       = domain.NewError(domain.KindInvalidState, "lorry has been sent to the dealer")
	ErrNoOpenDeliveries  = domain.NewError(domain.KindValidation, "no open deliveries to submit")
	ErrPricingNotAllowed = domain.NewError(domain.KindInvalidState, "weight must be recorded before pricing")
)

// LifecycleService drives admin overrides and lorry-level transitions
type LifecycleService struct {
	store      *repositories.Store
	calculator *calc.Calculator
	notifier   *NotificationService
	reports    *SummaryService
	now        func() time.Time
}

// NewLifecycleService creates a new lifecycle service. reports may be nil
// when settlement archiving is not wanted.
func NewLifecycleService(store *repositories.Store, calculator *calc.Calculator, notifier *NotificationService, reports *SummaryService) *LifecycleService {
	if calculator == nil {
		calculator = calc.NewCalculator(nil)
	}
	if notifier == nil {
		notifier = NewNotificationService(nil)
	}
	return &LifecycleService{
		store:      store,
		calculator: calculator,
		notifier:   notifier,
		reports:    reports,
		now:        time.Now,
	}
}

// QualityDeductionInput sets the admin quality deduction in kilograms
type QualityDeductionInput struct {
	QualityDeduction float64 `json:"quality_deduction" validate:"gte=0"`
	QualityGrade     *string `json:"quality_grade" validate:"omitempty,max=20"`
}

// PricingInput sets the price per kilogram
type PricingInput struct {
	PricePerKg float64 `json:"price_per_kg" validate:"gte=0"`
}

// SendToDealerInput optionally names the dealer
type SendToDealerInput struct {
	DealerName string `json:"dealer_name" validate:"max=150"`
}

// SetQualityDeduction applies the admin quality deduction at any point before
// the lorry is sent to the dealer
func (s *LifecycleService) SetQualityDeduction(ctx context.Context, caller domain.Identity, deliveryID uint, input *QualityDeductionInput) (*models.Delivery, error) {
	if err := caller.Can(domain.ActionQualityDeduction, 0); err != nil {
		return nil, err
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	var delivery *models.Delivery
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		d, err := s.loadForAdmin(ctx, tx, caller, domain.ActionQualityDeduction, deliveryID)
		if err != nil {
			return err
		}

		weights, err := s.calculator.Weigh(d.BagWeights, d.MoistureContent, input.QualityDeduction)
		if err != nil {
			return err
		}
		applyWeights(d, weights)
		if input.QualityGrade != nil {
			d.QualityGrade = *input.QualityGrade
		}
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

	log.Printf("✅ Quality deduction %.2f kg set on delivery #%d", delivery.QualityDeduction, delivery.ID)
	return delivery, nil
}

// SetPricing prices a weighed delivery and nets off the farmer's advances.
// Every completed advance not yet reconciled elsewhere is linked to this
// delivery.
func (s *LifecycleService) SetPricing(ctx context.Context, caller domain.Identity, deliveryID uint, input *PricingInput) (*models.Delivery, error) {
	if err := caller.Can(domain.ActionPricing, 0); err != nil {
		return nil, err
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	var delivery *models.Delivery
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		d, err := s.loadForAdmin(ctx, tx, caller, domain.ActionPricing, deliveryID)
		if err != nil {
			return err
		}
		if d.BagsCount == 0 {
			return ErrPricingNotAllowed
		}

		advances, err := tx.Advances.ListReconcilable(ctx, d.FarmerID, d.ID)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(advances))
		amounts := make([]calc.Cents, 0, len(advances))
		for _, a := range advances {
			ids = append(ids, a.ID)
			amounts = append(amounts, calc.CentsFromDecimal(a.Amount))
		}

		st, err := calc.Settle(storedWeights(d), calc.CentsFromFloat(input.PricePerKg), calc.Sum(amounts...))
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Advances.Reconcile(ctx, ids, d.ID, now); err != nil {
			return saveErr(err)
		}

		applySettlement(d, st)
		d.PricedAt = &now
		if err := tx.Deliveries.Update(ctx, d); err != nil {
			return saveErr(err)
		}
		delivery = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Delivery #%d priced: total=%s advance=%s final=%s",
		delivery.ID,
		delivery.TotalValue.Decimal.StringFixed(2),
		delivery.AdvanceAmount.Decimal.StringFixed(2),
		delivery.FinalAmount.Decimal.StringFixed(2),
	)
	return delivery, nil
}

// SubmitLorry completes every open delivery on the lorry and submits it.
// Only the assigned field manager may submit.
func (s *LifecycleService) SubmitLorry(ctx context.Context, caller domain.Identity, lorryID uint) (*models.Lorry, error) {
	if err := caller.Can(domain.ActionLorrySubmit, 0); err != nil {
		return nil, err
	}

	var (
		lorry     *models.Lorry
		completed int
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		l, err := tx.Lorries.GetByID(ctx, lorryID)
		if err != nil {
			return lookupErr(err, ErrLorryNotFound)
		}
		if err := caller.Can(domain.ActionLorrySubmit, l.OrganizationID); err != nil {
			return scopeErr(err, ErrLorryNotFound)
		}
		if !l.IsAssignedTo(caller.UserID) {
			return ErrNotAssignedManager
		}

		deliveries, err := tx.Deliveries.ListByLorry(ctx, l.ID)
		if err != nil {
			return err
		}
		var open []*models.Delivery
		for _, d := range deliveries {
			if d.Status.Open() {
				open = append(open, d)
			}
		}
		if l.Status.Loadable() && len(open) == 0 {
			return ErrNoOpenDeliveries
		}

		next, err := domain.NextLorryStatus(l.Status, domain.LorryActionSubmit)
		if err != nil {
			return err
		}

		now := s.now()
		for _, d := range open {
			status, err := domain.NextDeliveryStatus(d.Status, domain.DeliveryActionComplete)
			if err != nil {
				return err
			}
			d.Status = status
			d.DeliveredAt = &now
			if err := tx.Deliveries.Update(ctx, d); err != nil {
				return saveErr(err)
			}
		}

		l.Status = next
		l.SubmittedAt = &now
		if err := tx.Lorries.Update(ctx, l); err != nil {
			return saveErr(err)
		}
		lorry = l
		completed = len(open)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🚚 Lorry #%d (%s) submitted with %d deliveries", lorry.ID, lorry.PlateNumber, completed)
	s.notifier.NotifyLorrySubmitted(ctx, lorry, completed, s.farmAdminEmails(ctx, lorry.OrganizationID))
	return lorry, nil
}

// MarkSentToDealer hands a submitted lorry to the dealer. Terminal.
func (s *LifecycleService) MarkSentToDealer(ctx context.Context, caller domain.Identity, lorryID uint, input *SendToDealerInput) (*models.Lorry, error) {
	if err := caller.Can(domain.ActionLorrySendToDealer, 0); err != nil {
		return nil, err
	}
	if input == nil {
		input = &SendToDealerInput{}
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	var lorry *models.Lorry
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		l, err := tx.Lorries.GetByID(ctx, lorryID)
		if err != nil {
			return lookupErr(err, ErrLorryNotFound)
		}
		if err := caller.Can(domain.ActionLorrySendToDealer, l.OrganizationID); err != nil {
			return scopeErr(err, ErrLorryNotFound)
		}

		next, err := domain.NextLorryStatus(l.Status, domain.LorryActionSendToDealer)
		if err != nil {
			return err
		}

		now := s.now()
		l.Status = next
		l.SentToDealerAt = &now
		if name := strings.TrimSpace(input.DealerName); name != "" {
			l.DealerName = name
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

	log.Printf("🏁 Lorry #%d (%s) sent to dealer", lorry.ID, lorry.PlateNumber)

	var recipients []string
	if lorry.AssignedManagerID != nil {
		if fm, err := s.store.Users.GetByID(ctx, *lorry.AssignedManagerID); err == nil {
			recipients = append(recipients, fm.Email)
		}
	}
	s.notifier.NotifyLorrySentToDealer(ctx, lorry, recipients)

	if s.reports != nil {
		s.reports.ArchiveSettlement(ctx, lorry)
	}
	return lorry, nil
}

// loadForAdmin fetches a delivery an admin may still override
func (s *LifecycleService) loadForAdmin(ctx context.Context, tx *repositories.Store, caller domain.Identity, action domain.Action, id uint) (*models.Delivery, error) {
	d, err := tx.Deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrDeliveryNotFound)
	}
	if err := caller.Can(action, d.OrganizationID); err != nil {
		return nil, scopeErr(err, ErrDeliveryNotFound)
	}

	lorry, err := tx.Lorries.GetByID(ctx, d.LorryID)
	if err != nil {
		return nil, lookupErr(err, ErrLorryNotFound)
	}
	if lorry.Status == domain.LorryStatusSentToDealer {
		return nil, ErrLorryClosed
	}
	return d, nil
}

func (s *LifecycleService) farmAdminEmails(ctx context.Context, orgID uint) []string {
	role := domain.RoleFarmAdmin
	status := domain.UserStatusApproved
	admins, _, err := s.store.Users.List(ctx, repositories.UserFilter{
		OrganizationID: &orgID,
		Role:           &role,
		Status:         &status,
	}, 0, 50)
	if err != nil {
		log.Printf("⚠️ Could not load farm admins of organization #%d: %v", orgID, err)
		return nil
	}

	emails := make([]string, 0, len(admins))
	for _, u := range admins {
		emails = append(emails, u.Email)
	}
	return emails
}
