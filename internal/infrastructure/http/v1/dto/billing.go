package dto

import (
	"texcore/internal/core/types"
	"texcore/internal/domain/billing"
)

// ReconcileResponse summarizes one reconciliation run.
type ReconcileResponse struct {
	CustomerID   string      `json:"customerId"`
	TotalPaid    types.Money `json:"totalPaid"`
	MarkedPaid   int         `json:"markedPaid"`
	MarkedUnpaid int         `json:"markedUnpaid"`
}

// FromReconcileResult converts a reconciliation result to its response DTO.
func FromReconcileResult(r billing.Result) ReconcileResponse {
	return ReconcileResponse{
		CustomerID:   r.CustomerID.String(),
		TotalPaid:    r.TotalPaid,
		MarkedPaid:   r.MarkedPaid,
		MarkedUnpaid: r.MarkedUnpaid,
	}
}

// BalanceResponse reports a customer's outstanding unpaid total.
type BalanceResponse struct {
	CustomerID  string      `json:"customerId"`
	Outstanding types.Money `json:"outstanding"`
}
