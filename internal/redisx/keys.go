package redisx

import "time"

const (
	// Auth session state: session:{session_id} -> hash {state, account_id, csrf}
	KeySession = "session:%s"

	// Failed second-factor attempts: otp:fails:{account_id} -> counter
	KeyOTPFails = "otp:fails:%s"

	// Cached order status: order_status:{order_id} -> {"status":"...","payment_status":"..."}
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLStatusCache = 5 * time.Minute

	// Lockout window for failed second-factor attempts.
	TTLOTPFails = 15 * time.Minute
)
