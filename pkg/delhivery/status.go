package delhivery

import "github.com/chowlabs/chow-backend/pkg/enums"

// statusMap translates carrier status strings into delivery signals. The
// carrier is inconsistent about casing and hyphenation, so common variants are
// listed explicitly.
var statusMap = map[string]enums.DeliveryStatus{
	"Shipped":          enums.DeliveryStatusShipmentCreated,
	"Dispatched":       enums.DeliveryStatusShipmentCreated,
	"In transit":       enums.DeliveryStatusInTransit,
	"In Transit":       enums.DeliveryStatusInTransit,
	"Out for Delivery": enums.DeliveryStatusOutForDelivery,
	"Out For Delivery": enums.DeliveryStatusOutForDelivery,
	"Delivered":        enums.DeliveryStatusDelivered,
	"RTO Initiated":    enums.DeliveryStatusRTO,
	"RTO-Initiated":    enums.DeliveryStatusRTO,
	"RTO Delivered":    enums.DeliveryStatusRTO,
	"RTO-Delivered":    enums.DeliveryStatusRTO,
	"Cancelled":        enums.DeliveryStatusRTO,
	"Lost":             enums.DeliveryStatusRTO,
	"Damaged":          enums.DeliveryStatusRTO,
}

// MapStatus translates a raw carrier status into a delivery signal. Unknown
// strings report ok=false and must be ignored by the caller rather than
// guessed at; new carrier statuses appear without notice.
func MapStatus(raw string) (enums.DeliveryStatus, bool) {
	mapped, ok := statusMap[raw]
	return mapped, ok
}
