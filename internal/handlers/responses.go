package handlers

import (
	"propsales/internal/models"
	"propsales/internal/money"
)

func unitResponse(unit models.Unit) map[string]any {
	return map[string]any{
		"id":                     unit.ID,
		"development_id":         unit.DevelopmentID,
		"name":                   unit.Name,
		"unit_type":              unit.UnitType,
		"base_price":             money.FormatMinor(unit.BasePrice),
		"status":                 unit.Status,
		"reservation_expires_at": unit.ReservationExpiresAt,
		"created_at":             unit.CreatedAt,
	}
}

func unitResponses(units []models.Unit) []map[string]any {
	out := make([]map[string]any, 0, len(units))
	for _, unit := range units {
		out = append(out, unitResponse(unit))
	}
	return out
}

func saleResponse(sale models.Sale) map[string]any {
	return map[string]any{
		"id":                    sale.ID,
		"reference":             sale.Reference,
		"unit_id":               sale.UnitID,
		"buyer_id":              sale.BuyerID,
		"development_id":        sale.DevelopmentID,
		"sale_type":             sale.Type,
		"status":                sale.Status,
		"agreed_price":          money.FormatMinor(sale.AgreedPrice),
		"deposit_amount":        money.FormatMinor(sale.DepositAmount),
		"total_paid":            money.FormatMinor(sale.TotalPaid),
		"outstanding_balance":   money.FormatMinor(sale.OutstandingBalance),
		"mortgage_required":     sale.MortgageRequired,
		"mortgage_approved":     sale.MortgageApproved,
		"contracts_sent":        sale.ContractsSent,
		"contracts_signed":      sale.ContractsSigned,
		"contracts_exchanged":   sale.ContractsExchanged,
		"kyc_completed":         sale.KYCCompleted,
		"aml_completed":         sale.AMLCompleted,
		"funds_verified":        sale.FundsVerified,
		"customizations_locked": sale.CustomizationsLocked,
		"reserved_at":           sale.ReservedAt,
		"cancelled_reason":      sale.CancelledReason,
		"completed_at":          sale.CompletedAt,
	}
}

func saleResponses(sales []models.Sale) []map[string]any {
	out := make([]map[string]any, 0, len(sales))
	for _, sale := range sales {
		out = append(out, saleResponse(sale))
	}
	return out
}

func paymentResponse(payment models.Payment) map[string]any {
	resp := map[string]any{
		"id":             payment.ID,
		"sale_id":        payment.SaleID,
		"reference":      payment.Reference,
		"amount":         money.FormatMinor(payment.Amount),
		"status":         payment.Status,
		"failure_reason": payment.FailureReason,
		"created_at":     payment.CreatedAt,
	}
	if payment.SettledAmount != nil {
		resp["settled_amount"] = money.FormatMinor(*payment.SettledAmount)
	}
	return resp
}

func paymentResponses(payments []models.Payment) []map[string]any {
	out := make([]map[string]any, 0, len(payments))
	for _, payment := range payments {
		out = append(out, paymentResponse(payment))
	}
	return out
}
