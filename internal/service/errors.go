package service

import "errors"

// Error taxonomy. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrAuth                = errors.New("authentication required")
	ErrForbidden           = errors.New("permission denied")
	ErrValidation          = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrQuotaExceeded       = errors.New("daily limit reached")
	ErrPersistence         = errors.New("database failure")
	ErrGeneration          = errors.New("image generation failed")
	ErrPaymentGateway      = errors.New("payment provider failure")
	ErrWebhookVerification = errors.New("webhook verification failed")
)
