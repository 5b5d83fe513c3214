package ui

// Physical slot indexes for the windows the bot drives.
const (
	purchaseButtonSlot = 31
	confirmButtonSlot  = 11
	centerSlot         = 13
	closeButtonSlot    = 49
	altCloseButtonSlot = 50
	itemDisplaySlot    = 13

	createBuyOrderSlot  = 15
	createSellOfferSlot = 16
	customAmountSlot    = 16
	customPriceSlot     = 16

	firstSearchResultSlot = 11
)

// Role is a logical button inside a window.
type Role string

const (
	RolePurchase        Role = "purchase"
	RoleConfirm         Role = "confirm"
	RoleClose           Role = "close"
	RoleAltClose        Role = "altClose"
	RoleItemDisplay     Role = "itemDisplay"
	RoleCreateBuyOrder  Role = "createBuyOrder"
	RoleCreateSellOffer Role = "createSellOffer"
	RoleCustomAmount    Role = "customAmount"
	RoleCustomPrice     Role = "customPrice"
	RoleFirstResult     Role = "firstResult"
)

var slotTable = map[WindowKind]map[Role]int{
	KindPurchaseView: {
		RolePurchase:    purchaseButtonSlot,
		RoleItemDisplay: itemDisplaySlot,
		RoleClose:       closeButtonSlot,
	},
	KindConfirmPurchase: {
		RoleConfirm: confirmButtonSlot,
	},
	KindBazaarSearch: {
		RoleFirstResult: firstSearchResultSlot,
		RoleClose:       closeButtonSlot,
	},
	KindItemDetail: {
		RoleCreateBuyOrder:  createBuyOrderSlot,
		RoleCreateSellOffer: createSellOfferSlot,
		RoleClose:           closeButtonSlot,
	},
	KindOrderAmount: {
		RoleCustomAmount: customAmountSlot,
	},
	KindOrderPrice: {
		RoleCustomPrice: customPriceSlot,
	},
	KindOrderConfirm: {
		RoleConfirm: centerSlot,
	},
	KindManageOrders: {
		RoleClose: closeButtonSlot,
	},
}

// Slot resolves a logical role to the physical slot exposed by a window kind.
// Close buttons fall back to the standard positions for any kind.
func Slot(kind WindowKind, role Role) (int, bool) {
	if roles, found := slotTable[kind]; found {
		if slot, found := roles[role]; found {
			return slot, true
		}
	}

	switch role {
	case RoleClose:
		return closeButtonSlot, true
	case RoleAltClose:
		return altCloseButtonSlot, true
	}

	return 0, false
}
