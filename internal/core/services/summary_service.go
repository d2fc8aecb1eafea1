package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/calc"
	"corntrack/internal/core/domain"

	"github.com/shopspring/decimal"
)

// UngradedLabel groups deliveries without a quality grade
const UngradedLabel = "UNGRADED"

// DeliverySummary aggregates a set of deliveries. Money totals cover priced
// deliveries only.
type DeliverySummary struct {
	TotalDeliveries     int                           `json:"total_deliveries"`
	ByStatus            map[domain.DeliveryStatus]int `json:"by_status"`
	TotalBags           int                           `json:"total_bags"`
	GrossWeight         float64                       `json:"gross_weight"`
	StandardDeduction   float64                       `json:"standard_deduction"`
	QualityDeduction    float64                       `json:"quality_deduction"`
	NetWeight           float64                       `json:"net_weight"`
	PricedDeliveries    int                           `json:"priced_deliveries"`
	TotalValue          float64                       `json:"total_value"`
	AdvanceAmount       float64                       `json:"advance_amount"`
	FinalAmount         float64                       `json:"final_amount"`
	QualityDistribution map[string]int                `json:"quality_distribution"`
	AverageMoisture     float64                       `json:"average_moisture"`
}

// LorrySummary is the summary of one lorry run
type LorrySummary struct {
	Lorry   *models.Lorry    `json:"lorry"`
	Summary *DeliverySummary `json:"summary"`
}

// OrganizationSummary is the organization-wide dashboard
type OrganizationSummary struct {
	*DeliverySummary
	LorryCount      int64                        `json:"lorry_count"`
	LorriesByStatus map[domain.LorryStatus]int64 `json:"lorries_by_status"`
	FarmerCount     int64                        `json:"farmer_count"`
}

// SettlementRow is one farmer line of a settlement report
type SettlementRow struct {
	Delivery      *models.Delivery
	FarmerName    string
	FarmerVillage string
}

// SettlementReport is everything needed to render a lorry settlement sheet
type SettlementReport struct {
	OrganizationName string
	Lorry            *models.Lorry
	Rows             []SettlementRow
	Summary          *DeliverySummary
	GeneratedAt      time.Time
}

// Summarize aggregates deliveries
func Summarize(deliveries []*models.Delivery) *DeliverySummary {
	sum := &DeliverySummary{
		ByStatus:            map[domain.DeliveryStatus]int{},
		QualityDistribution: map[string]int{},
	}

	var gross, standard, quality, net, moisture decimal.Decimal
	var total, advance, final calc.Cents
	weighed := 0

	for _, d := range deliveries {
		sum.TotalDeliveries++
		sum.ByStatus[d.Status]++
		sum.TotalBags += d.BagsCount

		gross = gross.Add(decimal.NewFromFloat(d.GrossWeight))
		standard = standard.Add(decimal.NewFromFloat(d.StandardDeduction))
		quality = quality.Add(decimal.NewFromFloat(d.QualityDeduction))
		net = net.Add(decimal.NewFromFloat(d.NetWeight))

		grade := strings.TrimSpace(d.QualityGrade)
		if grade == "" {
			grade = UngradedLabel
		}
		sum.QualityDistribution[grade]++

		if d.BagsCount > 0 {
			weighed++
			moisture = moisture.Add(decimal.NewFromFloat(d.MoistureContent))
		}

		if d.IsPriced() {
			sum.PricedDeliveries++
			total += calc.CentsFromDecimal(d.TotalValue.Decimal)
			advance += calc.CentsFromDecimal(d.AdvanceAmount.Decimal)
			final += calc.CentsFromDecimal(d.FinalAmount.Decimal)
		}
	}

	sum.GrossWeight = gross.Round(2).InexactFloat64()
	sum.StandardDeduction = standard.Round(2).InexactFloat64()
	sum.QualityDeduction = quality.Round(2).InexactFloat64()
	sum.NetWeight = net.Round(2).InexactFloat64()
	sum.TotalValue = total.Float64()
	sum.AdvanceAmount = advance.Float64()
	sum.FinalAmount = final.Float64()
	if weighed > 0 {
		sum.AverageMoisture = moisture.Div(decimal.NewFromInt(int64(weighed))).Round(2).InexactFloat64()
	}
	return sum
}

// SummaryService aggregates deliveries and produces settlement reports
type SummaryService struct {
	store    *repositories.Store
	renderer WorkbookRenderer
	archiver ReportArchiver
	now      func() time.Time
}

// NewSummaryService creates a new summary service. renderer and archiver may
// be nil; export then fails and archiving is skipped.
func NewSummaryService(store *repositories.Store, renderer WorkbookRenderer, archiver ReportArchiver) *SummaryService {
	return &SummaryService{
		store:    store,
		renderer: renderer,
		archiver: archiver,
		now:      time.Now,
	}
}

// LorrySummary summarizes one lorry of the caller's organization
func (s *SummaryService) LorrySummary(ctx context.Context, caller domain.Identity, lorryID uint) (*LorrySummary, error) {
	lorry, err := s.loadLorry(ctx, caller, lorryID)
	if err != nil {
		return nil, err
	}

	deliveries, err := s.store.Deliveries.ListByLorry(ctx, lorry.ID)
	if err != nil {
		return nil, err
	}
	return &LorrySummary{Lorry: lorry, Summary: Summarize(deliveries)}, nil
}

// OrganizationSummary summarizes the caller's whole organization
func (s *SummaryService) OrganizationSummary(ctx context.Context, caller domain.Identity) (*OrganizationSummary, error) {
	if err := caller.Can(domain.ActionSummaryView, 0); err != nil {
		return nil, err
	}

	deliveries, err := s.store.Deliveries.ListByOrganization(ctx, caller.OrganizationID)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.store.Lorries.CountByStatus(ctx, caller.OrganizationID)
	if err != nil {
		return nil, err
	}
	farmers, err := s.store.Farmers.CountByOrganization(ctx, caller.OrganizationID)
	if err != nil {
		return nil, err
	}

	var lorries int64
	for _, n := range byStatus {
		lorries += n
	}

	return &OrganizationSummary{
		DeliverySummary: Summarize(deliveries),
		LorryCount:      lorries,
		LorriesByStatus: byStatus,
		FarmerCount:     farmers,
	}, nil
}

// Settlement builds the settlement report of a lorry of the caller's organization
func (s *SummaryService) Settlement(ctx context.Context, caller domain.Identity, lorryID uint) (*SettlementReport, error) {
	lorry, err := s.loadLorry(ctx, caller, lorryID)
	if err != nil {
		return nil, err
	}
	return s.buildReport(ctx, lorry)
}

// Export renders the settlement workbook and returns it with a file name
func (s *SummaryService) Export(ctx context.Context, caller domain.Identity, lorryID uint) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", errors.New("workbook export is not configured")
	}

	report, err := s.Settlement(ctx, caller, lorryID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.renderer.Render(report)
	if err != nil {
		return nil, "", err
	}
	return data, reportFileName(report), nil
}

// ArchiveSettlement renders and stores the settlement workbook of a lorry.
// Failures are logged only.
func (s *SummaryService) ArchiveSettlement(ctx context.Context, lorry *models.Lorry) {
	if s.renderer == nil || s.archiver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	report, err := s.buildReport(ctx, lorry)
	if err != nil {
		log.Printf("⚠️ Settlement report for lorry #%d failed: %v", lorry.ID, err)
		return
	}
	data, err := s.renderer.Render(report)
	if err != nil {
		log.Printf("⚠️ Settlement workbook for lorry #%d failed: %v", lorry.ID, err)
		return
	}

	name := fmt.Sprintf("settlements/org-%d/%s", lorry.OrganizationID, reportFileName(report))
	location, err := s.archiver.Archive(ctx, name, data)
	if err != nil {
		log.Printf("⚠️ Archiving settlement for lorry #%d failed: %v", lorry.ID, err)
		return
	}
	log.Printf("📦 Settlement for lorry #%d archived to %s", lorry.ID, location)
}

func (s *SummaryService) loadLorry(ctx context.Context, caller domain.Identity, lorryID uint) (*models.Lorry, error) {
	if err := caller.Can(domain.ActionSummaryView, 0); err != nil {
		return nil, err
	}
	lorry, err := s.store.Lorries.GetByID(ctx, lorryID)
	if err != nil {
		return nil, lookupErr(err, ErrLorryNotFound)
	}
	if err := caller.Can(domain.ActionSummaryView, lorry.OrganizationID); err != nil {
		return nil, scopeErr(err, ErrLorryNotFound)
	}
	return lorry, nil
}

func (s *SummaryService) buildReport(ctx context.Context, lorry *models.Lorry) (*SettlementReport, error) {
	deliveries, err := s.store.Deliveries.ListByLorry(ctx, lorry.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(deliveries))
	for _, d := range deliveries {
		ids = append(ids, d.FarmerID)
	}
	farmers, err := s.store.Farmers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Farmer, len(farmers))
	for _, f := range farmers {
		byID[f.ID] = f
	}

	rows := make([]SettlementRow, 0, len(deliveries))
	for _, d := range deliveries {
		row := SettlementRow{Delivery: d}
		if f, ok := byID[d.FarmerID]; ok {
			row.FarmerName = f.Name
			row.FarmerVillage = f.Village
		}
		rows = append(rows, row)
	}

	orgName := ""
	if org, err := s.store.Organizations.GetByID(ctx, lorry.OrganizationID); err == nil {
		orgName = org.Name
	}

	return &SettlementReport{
		OrganizationName: orgName,
		Lorry:            lorry,
		Rows:             rows,
		Summary:          Summarize(deliveries),
		GeneratedAt:      s.now(),
	}, nil
}

func reportFileName(r *SettlementReport) string {
	plate := strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' {
			return '-'
		}
		return r
	}, r.Lorry.PlateNumber)
	return fmt.Sprintf("lorry-%d-%s-%s.xlsx", r.Lorry.ID, plate, r.GeneratedAt.Format("20060102-150405"))
}
