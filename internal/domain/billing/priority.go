package billing

// PaymentPriorityTier orders billable targets for bulk allocation:
// fully unpaid lines are settled first, then partially paid lines, and fully
// paid lines last (they contribute nothing and are effectively skipped).
type PaymentPriorityTier int

const (
	PriorityTierUnpaid  PaymentPriorityTier = 0
	PriorityTierPartial PaymentPriorityTier = 1
	PriorityTierPaid    PaymentPriorityTier = 2
)

// PriorityTier classifies a balance into its allocation tier
func PriorityTier(b Balance) PaymentPriorityTier {
	switch {
	case b.IsUnpaid():
		return PriorityTierUnpaid
	case b.IsPartiallyPaid():
		return PriorityTierPartial
	default:
		return PriorityTierPaid
	}
}

// ComparePaymentPriority orders two balances by allocation tier. It is not a
// total order: balances in the same tier compare equal (0) so a stable sort
// preserves their relative input order.
func ComparePaymentPriority(a, b Balance) int {
	return int(PriorityTier(a)) - int(PriorityTier(b))
}
