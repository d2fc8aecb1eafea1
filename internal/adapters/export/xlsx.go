package export

import (
	"bytes"
	"fmt"
	"sort"

	"corntrack/internal/core/services"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Settlement"

type column struct {
	label string
	width float64
	value func(r services.SettlementRow) interface{}
}

var columns = []column{
	{"Delivery", 10, func(r services.SettlementRow) interface{} { return r.Delivery.ID }},
	{"Farmer", 28, func(r services.SettlementRow) interface{} { return r.FarmerName }},
	{"Village", 20, func(r services.SettlementRow) interface{} { return r.FarmerVillage }},
	{"Status", 14, func(r services.SettlementRow) interface{} { return string(r.Delivery.Status) }},
	{"Bags", 8, func(r services.SettlementRow) interface{} { return r.Delivery.BagsCount }},
	{"Gross (kg)", 12, func(r services.SettlementRow) interface{} { return r.Delivery.GrossWeight }},
	{"Moisture (%)", 12, func(r services.SettlementRow) interface{} { return r.Delivery.MoistureContent }},
	{"Std deduction (kg)", 16, func(r services.SettlementRow) interface{} { return r.Delivery.StandardDeduction }},
	{"Quality deduction (kg)", 18, func(r services.SettlementRow) interface{} { return r.Delivery.QualityDeduction }},
	{"Net (kg)", 12, func(r services.SettlementRow) interface{} { return r.Delivery.NetWeight }},
	{"Grade", 10, func(r services.SettlementRow) interface{} { return r.Delivery.QualityGrade }},
	{"Price/kg", 10, func(r services.SettlementRow) interface{} {
		return money(r.Delivery.PricePerKg.Valid, r.Delivery.PricePerKg.Decimal.InexactFloat64())
	}},
	{"Total value", 14, func(r services.SettlementRow) interface{} {
		return money(r.Delivery.TotalValue.Valid, r.Delivery.TotalValue.Decimal.InexactFloat64())
	}},
	{"Advance", 12, func(r services.SettlementRow) interface{} {
		return money(r.Delivery.AdvanceAmount.Valid, r.Delivery.AdvanceAmount.Decimal.InexactFloat64())
	}},
	{"Final amount", 14, func(r services.SettlementRow) interface{} {
		return money(r.Delivery.FinalAmount.Valid, r.Delivery.FinalAmount.Decimal.InexactFloat64())
	}},
}

// money leaves unpriced cells empty
func money(valid bool, v float64) interface{} {
	if !valid {
		return ""
	}
	return v
}

// WorkbookRenderer renders lorry settlements as .xlsx
type WorkbookRenderer struct{}

// NewWorkbookRenderer creates a new workbook renderer
func NewWorkbookRenderer() *WorkbookRenderer {
	return &WorkbookRenderer{}
}

// Render builds the settlement workbook
func (w *WorkbookRenderer) Render(report *services.SettlementReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	numberFormat := "#,##0.00"
	dataStyle, _ := f.NewStyle(&excelize.Style{
		CustomNumFmt: &numberFormat,
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})

	lorry := report.Lorry
	title := fmt.Sprintf("Settlement: lorry %s", lorry.PlateNumber)
	if report.OrganizationName != "" {
		title = report.OrganizationName + " / " + title
	}
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)

	meta := fmt.Sprintf("Status: %s    Generated: %s", lorry.Status, report.GeneratedAt.Format("2006-01-02 15:04:05"))
	if lorry.DealerName != "" {
		meta += "    Dealer: " + lorry.DealerName
	}
	f.SetCellValue(sheetName, "A2", meta)

	const headerRow = 4
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheetName, cell, col.label)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, name, name, col.width)
	}

	for r, row := range report.Rows {
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, headerRow+1+r)
			f.SetCellValue(sheetName, cell, col.value(row))
			f.SetCellStyle(sheetName, cell, cell, dataStyle)
		}
	}

	if report.Summary != nil {
		s := report.Summary
		summaryRow := headerRow + len(report.Rows) + 3
		cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
		f.SetCellValue(sheetName, cell, "Summary")
		f.SetCellStyle(sheetName, cell, cell, summaryStyle)

		lines := []struct {
			key   string
			value interface{}
		}{
			{"Deliveries", s.TotalDeliveries},
			{"Bags", s.TotalBags},
			{"Gross weight (kg)", s.GrossWeight},
			{"Net weight (kg)", s.NetWeight},
			{"Average moisture (%)", s.AverageMoisture},
			{"Priced deliveries", s.PricedDeliveries},
			{"Total value", s.TotalValue},
			{"Advances", s.AdvanceAmount},
			{"Final amount", s.FinalAmount},
		}

		grades := make([]string, 0, len(s.QualityDistribution))
		for g := range s.QualityDistribution {
			grades = append(grades, g)
		}
		sort.Strings(grades)
		for _, g := range grades {
			lines = append(lines, struct {
				key   string
				value interface{}
			}{"Grade " + g, s.QualityDistribution[g]})
		}

		for _, line := range lines {
			summaryRow++
			keyCell, _ := excelize.CoordinatesToCellName(1, summaryRow)
			valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow)
			f.SetCellValue(sheetName, keyCell, line.key)
			f.SetCellValue(sheetName, valueCell, line.value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
