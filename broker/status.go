package broker

import (
	"strings"

	"github.com/alexherrero/tradepipe/models"
)

// vendorStatusTable normalizes Alpaca-style vendor order statuses to the
// internal OrderStatus enum. Every vendor string maps to exactly one
// internal status; anything unrecognized maps to PENDING rather than
// erroring, matching the original adapter's fallback behavior.
var vendorStatusTable = map[string]models.OrderStatus{
	"new":                  models.OrderStatusSubmitted,
	"accepted":             models.OrderStatusSubmitted,
	"accepted_for_bidding": models.OrderStatusSubmitted,
	"calculated":           models.OrderStatusSubmitted,
	"pending_new":          models.OrderStatusSubmitted,

	"partially_filled": models.OrderStatusPartiallyFilled,

	"filled": models.OrderStatusFilled,

	"canceled":     models.OrderStatusCancelled,
	"expired":      models.OrderStatusCancelled,
	"replaced":     models.OrderStatusCancelled,
	"stopped":      models.OrderStatusCancelled,
	"done_for_day": models.OrderStatusCancelled,
	"suspended":    models.OrderStatusCancelled,

	"rejected": models.OrderStatusRejected,

	"pending_cancel":  models.OrderStatusPending,
	"pending_replace": models.OrderStatusPending,
}

// NormalizeStatus maps a vendor status string to the internal OrderStatus,
// defaulting to PENDING for anything not in the table.
func NormalizeStatus(vendorStatus string) models.OrderStatus {
	if status, ok := vendorStatusTable[strings.ToLower(vendorStatus)]; ok {
		return status
	}
	return models.OrderStatusPending
}
