package lifecycle

import "github.com/chowlabs/chow-backend/pkg/enums"

// Permissions is the capability pair a caller holds over an order's signals.
type Permissions struct {
	Delivery bool
	Payment  bool
}

// PermissionsFor resolves which signals a source may mutate for the given
// shipment provider.
//
// Webhooks are carrier-of-truth for delivery facts only; captured payments go
// through the dedicated confirmation path, not the generic signal update. When
// a carrier handles the shipment the admin may only touch the payment side.
// Self-handled orders have no external authority, so the admin holds both.
func PermissionsFor(provider enums.DeliveryProvider, source enums.UpdateSource) Permissions {
	switch {
	case source == enums.UpdateSourceWebhook:
		return Permissions{Delivery: true, Payment: false}
	case source == enums.UpdateSourceAdmin && provider == enums.DeliveryProviderCarrier:
		return Permissions{Delivery: false, Payment: true}
	case source == enums.UpdateSourceAdmin && provider == enums.DeliveryProviderSelfHandled:
		return Permissions{Delivery: true, Payment: true}
	default:
		return Permissions{}
	}
}
