package billing

import "github.com/hms/backend/internal/domain/shared"

// Billing domain errors
var (
	ErrTargetNotFound      = shared.NewDomainError("TARGET_NOT_FOUND", "Billable target not found")
	ErrAmbiguousTarget     = shared.NewDomainError("AMBIGUOUS_TARGET", "Request does not identify a billable target")
	ErrOrphanedDependency  = shared.NewDomainError("ORPHANED_DEPENDENCY", "Dependency has no parent fiche item")
	ErrAlreadyRefunded     = shared.NewDomainError("ALREADY_REFUNDED", "Transaction has already been refunded")
	ErrRefundNotAuthorized = shared.NewDomainError("REFUND_NOT_AUTHORIZED", "Refund requires an approved authorization")
	ErrAuthorizationUsed   = shared.NewDomainError("AUTHORIZATION_USED", "Refund authorization has already been used")
	ErrNoOverpayment       = shared.NewDomainError("NO_OVERPAYMENT", "Paid amount does not exceed the required amount")
	ErrInvalidAction       = shared.NewDomainError("INVALID_ACTION", "Unknown overpayment disposition action")
)
