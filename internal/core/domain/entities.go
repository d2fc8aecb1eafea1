package domain

// Role represents user role in the system
type Role string

const (
	RoleApplicationAdmin Role = "APPLICATION_ADMIN"
	RoleFarmAdmin        Role = "FARM_ADMIN"
	RoleFieldManager     Role = "FIELD_MANAGER"
	RoleFarmer           Role = "FARMER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleApplicationAdmin, RoleFarmAdmin, RoleFieldManager, RoleFarmer:
		return true
	}
	return false
}

// UserStatus gates login
type UserStatus string

const (
	UserStatusPending  UserStatus = "PENDING"
	UserStatusApproved UserStatus = "APPROVED"
	UserStatusRejected UserStatus = "REJECTED"
)

// OrganizationStatus represents tenant status
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "ACTIVE"
	OrganizationStatusSuspended OrganizationStatus = "SUSPENDED"
)

// FarmerStatus is a soft status; farmers are never hard deleted
type FarmerStatus string

const (
	FarmerStatusActive   FarmerStatus = "ACTIVE"
	FarmerStatusInactive FarmerStatus = "INACTIVE"
)

// LorryStatus represents the lorry lifecycle
type LorryStatus string

const (
	LorryStatusAvailable    LorryStatus = "AVAILABLE"
	LorryStatusAssigned     LorryStatus = "ASSIGNED"
	LorryStatusLoading      LorryStatus = "LOADING"
	LorryStatusSubmitted    LorryStatus = "SUBMITTED"
	LorryStatusSentToDealer LorryStatus = "SENT_TO_DEALER"
	LorryStatusMaintenance  LorryStatus = "MAINTENANCE"
)

// Loadable reports whether deliveries may be attached to the lorry
func (s LorryStatus) Loadable() bool {
	return s == LorryStatusAssigned || s == LorryStatusLoading
}

// Locked reports whether field edits on the lorry's deliveries are closed
func (s LorryStatus) Locked() bool {
	return s == LorryStatusSubmitted || s == LorryStatusSentToDealer
}

// DeliveryStatus represents the delivery lifecycle
type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "PENDING"
	DeliveryStatusInProgress DeliveryStatus = "IN_PROGRESS"
	DeliveryStatusCompleted  DeliveryStatus = "COMPLETED"
)

// Open reports whether the delivery has not been completed yet
func (s DeliveryStatus) Open() bool {
	return s == DeliveryStatusPending || s == DeliveryStatusInProgress
}

// PaymentStatus represents advance payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// InvitationStatus represents invitation status
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusExpired  InvitationStatus = "EXPIRED"
	InvitationStatusRevoked  InvitationStatus = "REVOKED"
)

// Identity is the authenticated caller as carried by the access token
type Identity struct {
	UserID         uint
	Role           Role
	OrganizationID uint
}
