package domain

// Action is an authorization-checked operation
type Action string

const (
	ActionDeliveryCreate   Action = "delivery:create"
	ActionDeliveryView     Action = "delivery:view"
	ActionDeliveryUpdate   Action = "delivery:update"
	ActionDeliveryDelete   Action = "delivery:delete"
	ActionQualityDeduction Action = "delivery:quality_deduction"
	ActionPricing          Action = "delivery:pricing"

	ActionLorryView         Action = "lorry:view"
	ActionLorryManage       Action = "lorry:manage"
	ActionLorrySubmit       Action = "lorry:submit"
	ActionLorrySendToDealer Action = "lorry:send_to_dealer"

	ActionFarmerView   Action = "farmer:view"
	ActionFarmerManage Action = "farmer:manage"

	ActionAdvanceView   Action = "advance:view"
	ActionAdvanceCreate Action = "advance:create"
	ActionAdvanceManage Action = "advance:manage"

	ActionSummaryView Action = "summary:view"

	ActionUserList       Action = "user:list"
	ActionUserApprove    Action = "user:approve"
	ActionInvitationSend Action = "invitation:send"

	ActionOrganizationList Action = "organization:list"
)

var permissions = map[Action][]Role{
	ActionDeliveryCreate:   {RoleFarmAdmin, RoleFieldManager},
	ActionDeliveryView:     {RoleFarmAdmin, RoleFieldManager},
	ActionDeliveryUpdate:   {RoleFarmAdmin, RoleFieldManager},
	ActionDeliveryDelete:   {RoleFarmAdmin, RoleFieldManager},
	ActionQualityDeduction: {RoleFarmAdmin},
	ActionPricing:          {RoleFarmAdmin},

	ActionLorryView:         {RoleFarmAdmin, RoleFieldManager},
	ActionLorryManage:       {RoleFarmAdmin},
	ActionLorrySubmit:       {RoleFieldManager},
	ActionLorrySendToDealer: {RoleFarmAdmin},

	ActionFarmerView:   {RoleFarmAdmin, RoleFieldManager},
	ActionFarmerManage: {RoleFarmAdmin, RoleFieldManager},

	ActionAdvanceView:   {RoleFarmAdmin, RoleFieldManager},
	ActionAdvanceCreate: {RoleFarmAdmin, RoleFieldManager},
	ActionAdvanceManage: {RoleFarmAdmin},

	ActionSummaryView: {RoleFarmAdmin, RoleFieldManager},

	ActionUserList:       {RoleApplicationAdmin, RoleFarmAdmin},
	ActionUserApprove:    {RoleApplicationAdmin},
	ActionInvitationSend: {RoleFarmAdmin},

	ActionOrganizationList: {RoleApplicationAdmin},
}

// crossOrganization actions are not bound to the caller's organization
var crossOrganization = map[Action]bool{
	ActionUserApprove:      true,
	ActionOrganizationList: true,
}

// Authorize decides whether role may perform action on a resource owned by
// resourceOrgID. A zero resourceOrgID means the resource is not org-owned
// (or not loaded yet) and only the role is checked. Resources of another
// organization are reported as not found.
func Authorize(role Role, action Action, resourceOrgID, callerOrgID uint) error {
	allowed := false
	for _, r := range permissions[action] {
		if r == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return Permissionf("role %s is not allowed to perform %s", role, action)
	}

	if resourceOrgID != 0 && !crossOrganization[action] && resourceOrgID != callerOrgID {
		return NotFoundf("resource not found")
	}
	return nil
}

// Can is Authorize for an identity
func (id Identity) Can(action Action, resourceOrgID uint) error {
	return Authorize(id.Role, action, resourceOrgID, id.OrganizationID)
}
