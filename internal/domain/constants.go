package domain

const (
	OrderStatusPaid    = "PAID"
	OrderStatusPending = "PENDING"
	OrderStatusFailed  = "FAILED"
)

const (
	OrderSourceVerify = "VERIFY"
	OrderSourceManual = "MANUAL"
)

const ProviderPhonePe = "PHONEPE"

// Push notification types sent to the admin device.
const (
	PushTypeOrderPaid = "ORDER_PAID"
)

const DefaultCurrency = "INR"

// NormalizeOrderStatus maps the free-form payment_status of /order-save to a stored status.
func NormalizeOrderStatus(s string) string {
	switch s {
	case "", "PAID", "paid", "SUCCESS", "success", "COMPLETED", "completed", "SUCCEEDED":
		return OrderStatusPaid
	case "PENDING", "pending":
		return OrderStatusPending
	default:
		return OrderStatusFailed
	}
}
