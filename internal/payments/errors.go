package payments

import "errors"

var (
	ErrInvalidPhone      = errors.New("invalid phone number format")
	ErrTransactionExists = errors.New("transaction already recorded for checkout request")
	ErrNotFound          = errors.New("payment transaction not found")
	ErrGateway           = errors.New("payment gateway error")
)
