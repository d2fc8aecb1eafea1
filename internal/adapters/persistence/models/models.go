package models

import (
	"time"

	"corntrack/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Tenancy & Auth Tables
// ============================================================

// Organization represents organizations table (tenant boundary)
type Organization struct {
	ID        uint                      `gorm:"primaryKey" json:"id"`
	Name      string                    `gorm:"size:150;not null" json:"name"`
	Address   string                    `gorm:"type:text" json:"address"`
	Phone     string                    `gorm:"size:30" json:"phone"`
	Status    domain.OrganizationStatus `gorm:"size:20;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt            `gorm:"index" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

// User represents users table
type User struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	OrganizationID  *uint             `gorm:"index" json:"organization_id"`
	Name            string            `gorm:"size:100;not null" json:"name"`
	Email           string            `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone           string            `gorm:"size:30" json:"phone"`
	Password        string            `gorm:"size:255;not null" json:"-"`
	Role            domain.Role       `gorm:"size:20;not null;index" json:"role"`
	Status          domain.UserStatus `gorm:"size:20;default:'PENDING';index" json:"status"`
	ApprovedBy      *uint             `json:"approved_by"`
	ApprovedAt      *time.Time        `json:"approved_at"`
	RejectionReason string            `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// OrgID returns the organization id or 0 for organization-less users
func (u *User) OrgID() uint {
	if u.OrganizationID == nil {
		return 0
	}
	return *u.OrganizationID
}

// Identity returns the caller identity carried in tokens
func (u *User) Identity() domain.Identity {
	return domain.Identity{UserID: u.ID, Role: u.Role, OrganizationID: u.OrgID()}
}

// UserResponse DTO
type UserResponse struct {
	ID               uint              `json:"id"`
	OrganizationID   *uint             `json:"organization_id"`
	OrganizationName string            `json:"organization_name,omitempty"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone,omitempty"`
	Role             domain.Role       `json:"role"`
	Status           domain.UserStatus `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		OrganizationID: u.OrganizationID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		Status:         u.Status,
		CreatedAt:      u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// Invitation represents invitations table
type Invitation struct {
	ID             uint                    `gorm:"primaryKey" json:"id"`
	OrganizationID uint                    `gorm:"not null;index" json:"organization_id"`
	Email          string                  `gorm:"size:100;not null;index" json:"email"`
	Role           domain.Role             `gorm:"size:20;not null" json:"role"`
	Token          string                  `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Status         domain.InvitationStatus `gorm:"size:20;default:'PENDING';index" json:"status"`
	ExpiresAt      time.Time               `gorm:"not null;index" json:"expires_at"`
	InvitedByID    uint                    `gorm:"not null" json:"invited_by_id"`
	AcceptedAt     *time.Time              `json:"accepted_at"`
	CreatedAt      time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// IsExpired reports whether the invitation can no longer be accepted by time
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// ============================================================
// Procurement Tables
// ============================================================

// Farmer represents farmers table
type Farmer struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	OrganizationID uint                `gorm:"not null;index" json:"organization_id"`
	Name           string              `gorm:"size:100;not null;index" json:"name"`
	Phone          string              `gorm:"size:30" json:"phone"`
	Village        string              `gorm:"size:100" json:"village"`
	NationalID     string              `gorm:"size:30" json:"national_id"`
	BankAccount    string              `gorm:"size:50" json:"bank_account"`
	Status         domain.FarmerStatus `gorm:"size:20;default:'ACTIVE';index" json:"status"`
	CreatedByID    uint                `gorm:"not null" json:"created_by_id"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Farmer) TableName() string {
	return "farmers"
}

// Lorry represents lorries table
type Lorry struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	OrganizationID    uint               `gorm:"not null;index;uniqueIndex:idx_lorries_org_plate" json:"organization_id"`
	PlateNumber       string             `gorm:"size:20;not null;uniqueIndex:idx_lorries_org_plate" json:"plate_number"`
	DriverName        string             `gorm:"size:100" json:"driver_name"`
	DriverPhone       string             `gorm:"size:30" json:"driver_phone"`
	CapacityKg        float64            `gorm:"type:decimal(10,2)" json:"capacity_kg"`
	Status            domain.LorryStatus `gorm:"size:20;default:'AVAILABLE';index" json:"status"`
	AssignedManagerID *uint              `gorm:"index" json:"assigned_manager_id"`
	DealerName        string             `gorm:"size:150" json:"dealer_name,omitempty"`
	SubmittedAt       *time.Time         `json:"submitted_at"`
	SentToDealerAt    *time.Time         `json:"sent_to_dealer_at"`
	Version           uint               `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (Lorry) TableName() string {
	return "lorries"
}

// IsAssignedTo reports whether the lorry is assigned to the given manager
func (l *Lorry) IsAssignedTo(userID uint) bool {
	return l.AssignedManagerID != nil && *l.AssignedManagerID == userID
}

// Delivery represents deliveries table: one farmer's corn on one lorry run
type Delivery struct {
	ID                uint                         `gorm:"primaryKey" json:"id"`
	OrganizationID    uint                         `gorm:"not null;index" json:"organization_id"`
	LorryID           uint                         `gorm:"not null;index" json:"lorry_id"`
	FarmerID          uint                         `gorm:"not null;index" json:"farmer_id"`
	FieldManagerID    uint                         `gorm:"not null;index" json:"field_manager_id"`
	BagsCount         int                          `gorm:"not null;default:0" json:"bags_count"`
	BagWeights        datatypes.JSONSlice[float64] `json:"bag_weights"`
	BagNumbers        datatypes.JSONSlice[int]     `json:"bag_numbers,omitempty"`
	GrossWeight       float64                      `gorm:"type:decimal(12,2);not null;default:0" json:"gross_weight"`
	StandardDeduction float64                      `gorm:"type:decimal(12,2);not null;default:0" json:"standard_deduction"`
	QualityDeduction  float64                      `gorm:"type:decimal(12,2);not null;default:0" json:"quality_deduction"`
	NetWeight         float64                      `gorm:"type:decimal(12,2);not null;default:0" json:"net_weight"`
	MoistureContent   float64                      `gorm:"type:decimal(5,2);not null;default:0" json:"moisture_content"`
	QualityGrade      string                       `gorm:"size:20" json:"quality_grade"`
	PricePerKg        decimal.NullDecimal          `gorm:"type:decimal(15,2)" json:"price_per_kg"`
	TotalValue        decimal.NullDecimal          `gorm:"type:decimal(15,2)" json:"total_value"`
	AdvanceAmount     decimal.NullDecimal          `gorm:"type:decimal(15,2)" json:"advance_amount"`
	FinalAmount       decimal.NullDecimal          `gorm:"type:decimal(15,2)" json:"final_amount"`
	Status            domain.DeliveryStatus        `gorm:"size:20;default:'PENDING';index" json:"status"`
	Notes             string                       `gorm:"type:text" json:"notes"`
	PricedAt          *time.Time                   `json:"priced_at"`
	DeliveredAt       *time.Time                   `json:"delivered_at"`
	Version           uint                         `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt               `gorm:"index" json:"-"`
}

func (Delivery) TableName() string {
	return "deliveries"
}

// IsPriced reports whether pricing has been set
func (d *Delivery) IsPriced() bool {
	return d.PricePerKg.Valid
}

// AdvancePayment represents advance_payments table
type AdvancePayment struct {
	ID                   uint                 `gorm:"primaryKey" json:"id"`
	OrganizationID       uint                 `gorm:"not null;index" json:"organization_id"`
	FarmerID             uint                 `gorm:"not null;index" json:"farmer_id"`
	Amount               decimal.Decimal      `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentDate          time.Time            `gorm:"not null" json:"payment_date"`
	Status               domain.PaymentStatus `gorm:"size:20;default:'COMPLETED';index" json:"status"`
	Notes                string               `gorm:"type:text" json:"notes"`
	CreatedByID          uint                 `gorm:"not null" json:"created_by_id"`
	ReconciledDeliveryID *uint                `gorm:"index" json:"reconciled_delivery_id"`
	ReconciledAt         *time.Time           `json:"reconciled_at"`
	CreatedAt            time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AdvancePayment) TableName() string {
	return "advance_payments"
}

// All returns every model for migrations
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&RefreshToken{},
		&Invitation{},
		&Farmer{},
		&Lorry{},
		&Delivery{},
		&AdvancePayment{},
	}
}

// DeliveryResponse DTO
type DeliveryResponse struct {
	ID                uint                  `json:"id"`
	OrganizationID    uint                  `json:"organization_id"`
	LorryID           uint                  `json:"lorry_id"`
	FarmerID          uint                  `json:"farmer_id"`
	FieldManagerID    uint                  `json:"field_manager_id"`
	BagsCount         int                   `json:"bags_count"`
	BagWeights        []float64             `json:"bag_weights"`
	BagNumbers        []int                 `json:"bag_numbers,omitempty"`
	GrossWeight       float64               `json:"gross_weight"`
	StandardDeduction float64               `json:"standard_deduction"`
	QualityDeduction  float64               `json:"quality_deduction"`
	NetWeight         float64               `json:"net_weight"`
	MoistureContent   float64               `json:"moisture_content"`
	QualityGrade      string                `json:"quality_grade"`
	PricePerKg        *float64              `json:"price_per_kg"`
	TotalValue        *float64              `json:"total_value"`
	AdvanceAmount     *float64              `json:"advance_amount"`
	FinalAmount       *float64              `json:"final_amount"`
	Status            domain.DeliveryStatus `json:"status"`
	Notes             string                `json:"notes,omitempty"`
	PricedAt          *time.Time            `json:"priced_at"`
	DeliveredAt       *time.Time            `json:"delivered_at"`
	Version           uint                  `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func (d *Delivery) ToResponse() *DeliveryResponse {
	weights := []float64(d.BagWeights)
	if weights == nil {
		weights = []float64{}
	}
	return &DeliveryResponse{
		ID:                d.ID,
		OrganizationID:    d.OrganizationID,
		LorryID:           d.LorryID,
		FarmerID:          d.FarmerID,
		FieldManagerID:    d.FieldManagerID,
		BagsCount:         d.BagsCount,
		BagWeights:        weights,
		BagNumbers:        []int(d.BagNumbers),
		GrossWeight:       d.GrossWeight,
		StandardDeduction: d.StandardDeduction,
		QualityDeduction:  d.QualityDeduction,
		NetWeight:         d.NetWeight,
		MoistureContent:   d.MoistureContent,
		QualityGrade:      d.QualityGrade,
		PricePerKg:        nullFloat(d.PricePerKg),
		TotalValue:        nullFloat(d.TotalValue),
		AdvanceAmount:     nullFloat(d.AdvanceAmount),
		FinalAmount:       nullFloat(d.FinalAmount),
		Status:            d.Status,
		Notes:             d.Notes,
		PricedAt:          d.PricedAt,
		DeliveredAt:       d.DeliveredAt,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// AdvanceResponse DTO
type AdvanceResponse struct {
	ID                   uint                 `json:"id"`
	FarmerID             uint                 `json:"farmer_id"`
	Amount               float64              `json:"amount"`
	PaymentDate          time.Time            `json:"payment_date"`
	Status               domain.PaymentStatus `json:"status"`
	Notes                string               `json:"notes,omitempty"`
	ReconciledDeliveryID *uint                `json:"reconciled_delivery_id"`
	CreatedAt            time.Time            `json:"created_at"`
}

func (a *AdvancePayment) ToResponse() *AdvanceResponse {
	return &AdvanceResponse{
		ID:                   a.ID,
		FarmerID:             a.FarmerID,
		Amount:               a.Amount.InexactFloat64(),
		PaymentDate:          a.PaymentDate,
		Status:               a.Status,
		Notes:                a.Notes,
		ReconciledDeliveryID: a.ReconciledDeliveryID,
		CreatedAt:            a.CreatedAt,
	}
}
