package export

import (
	"bytes"
	"testing"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestRenderSettlement(t *testing.T) {
	priced := &models.Delivery{
		ID:              1,
		Status:          domain.DeliveryStatusCompleted,
		BagsCount:       5,
		GrossWeight:     228.5,
		NetWeight:       226,
		MoistureContent: 14,
		QualityGrade:    "A",
		PricePerKg:      decimal.NewNullDecimal(decimal.RequireFromString("25.50")),
		TotalValue:      decimal.NewNullDecimal(decimal.RequireFromString("5763.00")),
		AdvanceAmount:   decimal.NewNullDecimal(decimal.RequireFromString("800.00")),
		FinalAmount:     decimal.NewNullDecimal(decimal.RequireFromString("4963.00")),
	}
	unpriced := &models.Delivery{ID: 2, Status: domain.DeliveryStatusCompleted, BagsCount: 1, GrossWeight: 40, NetWeight: 39.5}

	report := &services.SettlementReport{
		OrganizationName: "Green Valley",
		Lorry:            &models.Lorry{ID: 3, PlateNumber: "AB-1234", Status: domain.LorryStatusSentToDealer, DealerName: "Mill Co"},
		Rows: []services.SettlementRow{
			{Delivery: priced, FarmerName: "Somchai"},
			{Delivery: unpriced, FarmerName: "Malee"},
		},
		Summary:     services.Summarize([]*models.Delivery{priced, unpriced}),
		GeneratedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}

	data, err := NewWorkbookRenderer().Render(report)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "Green Valley / Settlement: lorry AB-1234"},
		{"A4", "Delivery"},
		{"B5", "Somchai"},
		{"O5", "4963"},
		{"B6", "Malee"},
		{"O6", ""},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(sheetName, tt.cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	if list := f.GetSheetList(); len(list) != 1 || list[0] != sheetName {
		t.Errorf("sheets = %v, want [%s]", list, sheetName)
	}
}
