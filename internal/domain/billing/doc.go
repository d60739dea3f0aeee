// Package billing contains the payment reconciliation core for fiche navette
// billing: billable targets (fiche items and their dependencies), the ledger
// of monetary events recorded against them, refund authorizations, and the
// priority rules used when one cash receipt is spread across several
// outstanding lines.
//
// Balances cached on a billable target (paid, remaining, status) are derived
// from its ledger entries; the ledger is the source of truth. Ledger amounts
// are always stored as positive magnitudes; the transaction type determines
// the sign of the effect on the target balance.
package billing
