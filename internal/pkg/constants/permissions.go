package constants

const (
	ViewData       = "view_data"
	CreateRecord   = "create_record"
	ListRecord     = "list_record"
	CancelListing  = "cancel_listing"
	PurchaseRecord = "purchase_record"
	MintToken      = "mint_token"
	FreezeToken    = "freeze_token"
	DepositFunds   = "deposit_funds"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewData:       {Viewer, Manager, Admin, Superadmin},
	CreateRecord:   {Manager, Admin, Superadmin},
	ListRecord:     {Manager, Admin, Superadmin},
	CancelListing:  {Manager, Admin, Superadmin},
	PurchaseRecord: {Manager, Admin, Superadmin},
	MintToken:      {Manager, Admin, Superadmin},
	FreezeToken:    {Superadmin},
	DepositFunds:   {Manager, Admin, Superadmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
