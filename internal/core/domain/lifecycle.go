package domain

// DeliveryAction is an event applied to a delivery
type DeliveryAction string

const (
	DeliveryActionAddBags  DeliveryAction = "ADD_BAGS"
	DeliveryActionEdit     DeliveryAction = "EDIT"
	DeliveryActionComplete DeliveryAction = "COMPLETE"
	DeliveryActionDelete   DeliveryAction = "DELETE"
)

// LorryAction is an event applied to a lorry
type LorryAction string

const (
	LorryActionAssign       LorryAction = "ASSIGN"
	LorryActionUnassign     LorryAction = "UNASSIGN"
	LorryActionStartLoading LorryAction = "START_LOADING"
	LorryActionSubmit       LorryAction = "SUBMIT"
	LorryActionSendToDealer LorryAction = "SEND_TO_DEALER"
	LorryActionMaintenance  LorryAction = "MAINTENANCE"
	LorryActionRestore      LorryAction = "RESTORE"
)

// deliveryTransitions: COMPLETED accepts nothing
var deliveryTransitions = map[DeliveryStatus]map[DeliveryAction]DeliveryStatus{
	DeliveryStatusPending: {
		DeliveryActionAddBags:  DeliveryStatusInProgress,
		DeliveryActionEdit:     DeliveryStatusPending,
		DeliveryActionComplete: DeliveryStatusCompleted,
		DeliveryActionDelete:   DeliveryStatusPending,
	},
	DeliveryStatusInProgress: {
		DeliveryActionAddBags:  DeliveryStatusInProgress,
		DeliveryActionEdit:     DeliveryStatusInProgress,
		DeliveryActionComplete: DeliveryStatusCompleted,
		DeliveryActionDelete:   DeliveryStatusInProgress,
	},
	DeliveryStatusCompleted: {},
}

var lorryTransitions = map[LorryStatus]map[LorryAction]LorryStatus{
	LorryStatusAvailable: {
		LorryActionAssign:      LorryStatusAssigned,
		LorryActionMaintenance: LorryStatusMaintenance,
	},
	LorryStatusAssigned: {
		LorryActionAssign:       LorryStatusAssigned,
		LorryActionUnassign:     LorryStatusAvailable,
		LorryActionStartLoading: LorryStatusLoading,
	},
	// UNASSIGN from LOADING is only valid once every delivery is deleted
	LorryStatusLoading: {
		LorryActionUnassign:     LorryStatusAvailable,
		LorryActionStartLoading: LorryStatusLoading,
		LorryActionSubmit:       LorryStatusSubmitted,
	},
	LorryStatusSubmitted: {
		LorryActionSendToDealer: LorryStatusSentToDealer,
	},
	LorryStatusSentToDealer: {},
	LorryStatusMaintenance: {
		LorryActionRestore: LorryStatusAvailable,
	},
}

// NextDeliveryStatus returns the state reached by applying action, or an
// InvalidStateError when the table has no entry.
func NextDeliveryStatus(from DeliveryStatus, action DeliveryAction) (DeliveryStatus, error) {
	if next, ok := deliveryTransitions[from][action]; ok {
		return next, nil
	}
	return from, InvalidStatef("delivery in status %s does not allow %s", from, action)
}

// NextLorryStatus returns the state reached by applying action
func NextLorryStatus(from LorryStatus, action LorryAction) (LorryStatus, error) {
	if next, ok := lorryTransitions[from][action]; ok {
		return next, nil
	}
	return from, InvalidStatef("lorry in status %s does not allow %s", from, action)
}
