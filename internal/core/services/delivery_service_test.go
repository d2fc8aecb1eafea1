package services

import (
	"testing"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
)

func TestDeliveryCreate_WeighsAndStartsLoading(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")

	d := e.delivery(f, scenarioBags())

	if d.Status != domain.DeliveryStatusPending {
		t.Errorf("status = %s, expected PENDING", d.Status)
	}
	if d.BagsCount != 5 {
		t.Errorf("bags = %d, expected 5", d.BagsCount)
	}
	if d.GrossWeight != 228.5 {
		t.Errorf("gross = %v, expected 228.5", d.GrossWeight)
	}
	if d.StandardDeduction != 2.5 {
		t.Errorf("standard deduction = %v, expected 2.5", d.StandardDeduction)
	}
	if d.NetWeight != 226 {
		t.Errorf("net = %v, expected 226", d.NetWeight)
	}
	if d.FieldManagerID != f.fm.UserID {
		t.Errorf("field manager = %d, expected %d", d.FieldManagerID, f.fm.UserID)
	}
	if d.IsPriced() {
		t.Error("new delivery must not be priced")
	}

	lorry, err := e.store.Lorries.GetByID(e.ctx, f.lorry.ID)
	if err != nil {
		t.Fatalf("reload lorry: %v", err)
	}
	if lorry.Status != domain.LorryStatusLoading {
		t.Errorf("lorry status = %s, expected LOADING", lorry.Status)
	}
}

func TestDeliveryCreate_FarmAdminUsesAssignedManager(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")

	d, err := e.deliveries.Create(e.ctx, f.admin, &CreateDeliveryInput{
		LorryID:    f.lorry.ID,
		FarmerID:   f.farmer.ID,
		BagsCount:  1,
		BagWeights: []float64{40},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.FieldManagerID != f.fm.UserID {
		t.Errorf("field manager = %d, expected assigned manager %d", d.FieldManagerID, f.fm.UserID)
	}
}

func TestDeliveryCreate_Rejections(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	other := e.farm("Beta")

	_, otherFM := e.user(f.org, domain.RoleFieldManager, domain.UserStatusApproved, "second-fm@example.com")

	inactive := e.farmer(f.admin, "Malee")
	if _, err := e.farmers.Deactivate(e.ctx, f.admin, inactive.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	idle, err := e.lorries.Create(e.ctx, f.admin, &CreateLorryInput{PlateNumber: "IDLE-1"})
	if err != nil {
		t.Fatalf("create lorry: %v", err)
	}

	tests := []struct {
		name   string
		caller domain.Identity
		input  CreateDeliveryInput
		kind   domain.Kind
	}{
		{
			name:   "bag count mismatch",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: f.lorry.ID, FarmerID: f.farmer.ID, BagsCount: 3, BagWeights: []float64{40, 41}},
			kind:   domain.KindValidation,
		},
		{
			name:   "non-positive bag weight",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: f.lorry.ID, FarmerID: f.farmer.ID, BagsCount: 2, BagWeights: []float64{40, 0}},
			kind:   domain.KindValidation,
		},
		{
			name:   "moisture out of range",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: f.lorry.ID, FarmerID: f.farmer.ID, BagsCount: 1, BagWeights: []float64{40}, MoistureContent: 120},
			kind:   domain.KindValidation,
		},
		{
			name:   "duplicate bag number",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: f.lorry.ID, FarmerID: f.farmer.ID, BagsCount: 2, BagWeights: []float64{40, 41}, BagNumbers: []int{7, 7}},
			kind:   domain.KindConflict,
		},
		{
			name:   "field manager not assigned to lorry",
			caller: otherFM,
			input:  CreateDeliveryInput{LorryID: f.lorry.ID, FarmerID: f.farmer.ID, BagsCount: 1, BagWeights: []float64{40}},
			kind:   domain.KindPermission,
		},
		{
			name:   "lorry of another organization",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: other.lorry.ID, FarmerID: f.farmer.ID, BagsCount: 1, BagWeights: []float64{40}},
			kind:   domain.KindNotFound,
		},
		{
			name:   "farmer of another organization",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: f.lorry.ID, FarmerID: other.farmer.ID, BagsCount: 1, BagWeights: []float64{40}},
			kind:   domain.KindNotFound,
		},
		{
			name:   "inactive farmer",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: f.lorry.ID, FarmerID: inactive.ID, BagsCount: 1, BagWeights: []float64{40}},
			kind:   domain.KindInvalidState,
		},
		{
			name:   "lorry not loadable",
			caller: f.admin,
			input:  CreateDeliveryInput{LorryID: idle.ID, FarmerID: f.farmer.ID, BagsCount: 1, BagWeights: []float64{40}},
			kind:   domain.KindInvalidState,
		},
		{
			name:   "missing lorry",
			caller: f.fm,
			input:  CreateDeliveryInput{LorryID: 9999, FarmerID: f.farmer.ID, BagsCount: 1, BagWeights: []float64{40}},
			kind:   domain.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := e.deliveries.Create(e.ctx, tt.caller, &input)
			expectKind(t, err, tt.kind)
		})
	}

	_, total, err := e.store.Deliveries.List(e.ctx, f.org.ID, repositories.DeliveryFilter{}, 0, 100)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 {
		t.Errorf("rejected creates persisted %d deliveries", total)
	}
}

func TestDeliveryCreate_OneOpenDeliveryPerFarmer(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	e.delivery(f, []float64{40})

	_, err := e.deliveries.Create(e.ctx, f.fm, &CreateDeliveryInput{
		LorryID:    f.lorry.ID,
		FarmerID:   f.farmer.ID,
		BagsCount:  1,
		BagWeights: []float64{41},
	})
	expectErr(t, err, ErrOpenDeliveryExists)
}

func TestDeliveryUpdate_AddBagsMovesToInProgress(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, []float64{45.5, 46.2})

	updated, err := e.deliveries.Update(e.ctx, f.fm, d.ID, &UpdateDeliveryInput{
		BagsCount:  ptr(5),
		BagWeights: scenarioBags(),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.DeliveryStatusInProgress {
		t.Errorf("status = %s, expected IN_PROGRESS", updated.Status)
	}
	if updated.GrossWeight != 228.5 || updated.NetWeight != 226 {
		t.Errorf("weights = %v/%v, expected 228.5/226", updated.GrossWeight, updated.NetWeight)
	}
	if updated.Version != d.Version+1 {
		t.Errorf("version = %d, expected %d", updated.Version, d.Version+1)
	}
}

func TestDeliveryUpdate_AllOrNothing(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, []float64{40, 41})

	_, err := e.deliveries.Update(e.ctx, f.fm, d.ID, &UpdateDeliveryInput{
		BagsCount:       ptr(3),
		BagWeights:      []float64{40, 41},
		MoistureContent: ptr(15.0),
		Notes:           ptr("should not be saved"),
	})
	expectKind(t, err, domain.KindValidation)

	stored, err := e.store.Deliveries.GetByID(e.ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.MoistureContent != 13.5 || stored.Notes != "" || stored.Version != d.Version {
		t.Errorf("rejected update changed the record: moisture=%v notes=%q version=%d",
			stored.MoistureContent, stored.Notes, stored.Version)
	}
}

func TestDeliveryUpdate_VersionMismatch(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, []float64{40})

	_, err := e.deliveries.Update(e.ctx, f.fm, d.ID, &UpdateDeliveryInput{
		Notes:   ptr("late edit"),
		Version: ptr(d.Version + 3),
	})
	expectErr(t, err, ErrVersionMismatch)
	expectKind(t, err, domain.KindConflict)
}

func TestDeliveryUpdate_AfterSentToDealer(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, scenarioBags())

	if _, err := e.lifecycle.SubmitLorry(e.ctx, f.fm, f.lorry.ID); err != nil {
		t.Fatalf("SubmitLorry: %v", err)
	}
	if _, err := e.lifecycle.MarkSentToDealer(e.ctx, f.admin, f.lorry.ID, &SendToDealerInput{DealerName: "Mill Co"}); err != nil {
		t.Fatalf("MarkSentToDealer: %v", err)
	}

	_, err := e.deliveries.Update(e.ctx, f.fm, d.ID, &UpdateDeliveryInput{Notes: ptr("too late")})
	expectKind(t, err, domain.KindInvalidState)

	_, err = e.deliveries.AddBag(e.ctx, f.fm, d.ID, &AddBagInput{Weight: 40})
	expectKind(t, err, domain.KindInvalidState)

	err = e.deliveries.Delete(e.ctx, f.fm, d.ID)
	expectKind(t, err, domain.KindInvalidState)
}

func TestDeliveryAddBag(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, []float64{45.5, 46.2, 44.8, 45.9})

	updated, err := e.deliveries.AddBag(e.ctx, f.fm, d.ID, &AddBagInput{Weight: 46.1})
	if err != nil {
		t.Fatalf("AddBag: %v", err)
	}
	if updated.BagsCount != 5 || updated.GrossWeight != 228.5 {
		t.Errorf("bags/gross = %d/%v, expected 5/228.5", updated.BagsCount, updated.GrossWeight)
	}
	if updated.Status != domain.DeliveryStatusInProgress {
		t.Errorf("status = %s, expected IN_PROGRESS", updated.Status)
	}

	_, err = e.deliveries.AddBag(e.ctx, f.fm, d.ID, &AddBagInput{Weight: 40, BagNumber: ptr(1)})
	expectKind(t, err, domain.KindValidation)
}

func TestDeliveryDelete_ReleasesAdvances(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, scenarioBags())

	if _, err := e.advances.Create(e.ctx, f.admin, f.farmer.ID, &CreateAdvanceInput{Amount: 500}); err != nil {
		t.Fatalf("create advance: %v", err)
	}
	if _, err := e.lifecycle.SetPricing(e.ctx, f.admin, d.ID, &PricingInput{PricePerKg: 25.5}); err != nil {
		t.Fatalf("SetPricing: %v", err)
	}

	balance, err := e.advances.Balance(e.ctx, f.admin, f.farmer.ID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Outstanding != 0 {
		t.Fatalf("outstanding after pricing = %v, expected 0", balance.Outstanding)
	}

	if err := e.deliveries.Delete(e.ctx, f.fm, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := e.deliveries.Get(e.ctx, f.fm, d.ID); err == nil {
		t.Fatal("deleted delivery is still visible")
	}

	balance, err = e.advances.Balance(e.ctx, f.admin, f.farmer.ID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Outstanding != 500 || balance.Count != 1 {
		t.Errorf("balance = %v (%d), expected 500 (1)", balance.Outstanding, balance.Count)
	}
}

func TestDeliveryGet_OtherOrganizationIsNotFound(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	other := e.farm("Beta")
	d := e.delivery(f, []float64{40})

	_, err := e.deliveries.Get(e.ctx, other.admin, d.ID)
	expectKind(t, err, domain.KindNotFound)
}

func TestDeliveryRepository_StaleVersion(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	d := e.delivery(f, []float64{40})

	first, err := e.store.Deliveries.GetByID(e.ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	second, err := e.store.Deliveries.GetByID(e.ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	first.Notes = "first writer"
	if err := e.store.Deliveries.Update(e.ctx, first); err != nil {
		t.Fatalf("first Update: %v", err)
	}

	second.Notes = "second writer"
	err = e.store.Deliveries.Update(e.ctx, second)
	expectErr(t, saveErr(err), ErrConcurrentUpdate)
	if second.Version != d.Version {
		t.Errorf("stale version was not restored: %d", second.Version)
	}

	var stored models.Delivery
	if err := e.db.First(&stored, d.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Notes != "first writer" {
		t.Errorf("notes = %q, expected first writer to win", stored.Notes)
	}
}
