// Package fallback holds the fixed placeholder records shown whenever the
// payment agent is unreachable, misconfigured, or unintelligible. Callers
// must surface the accompanying mock-data flag so the degradation is visible
// to the user instead of passing placeholders off as live data.
package fallback

import contractx "github.com/payflowhq/payflow/dashboard/contract"

// Payees returns the placeholder payee list. The slice is freshly allocated
// on every call so callers can mutate their copy.
func Payees() []contractx.Payee {
	return []contractx.Payee{
		{
			ID:            "1",
			Name:          "Alice Johnson",
			Email:         "alice@example.com",
			WalletAddress: "0x742d35Cc6123459681e5b120804169bAb7Cecd",
			Status:        contractx.PayeeActive,
			TotalPaid:     2500.00,
			Currency:      "USD",
			CreatedAt:     "2024-01-15T10:30:00Z",
		},
		{
			ID:            "2",
			Name:          "Bob Smith",
			Email:         "bob@example.com",
			WalletAddress: "0x8b3a3B754d3f4a3F4c1234567890abcdef123456",
			Status:        contractx.PayeeActive,
			TotalPaid:     1800.00,
			Currency:      "USD",
			CreatedAt:     "2024-01-20T14:15:00Z",
		},
		{
			ID:        "3",
			Name:      "Carol Davis",
			Email:     "carol@example.com",
			Status:    contractx.PayeeInactive,
			TotalPaid: 950.00,
			Currency:  "USD",
			CreatedAt: "2024-02-01T09:45:00Z",
		},
	}
}

// Payments returns the placeholder payment list.
func Payments() []contractx.Payment {
	return []contractx.Payment{
		{
			ID:          "payment_1",
			Amount:      5.00,
			Currency:    "TDS",
			Recipient:   "chinmay",
			Status:      contractx.PaymentCompleted,
			Description: "Project milestone payment",
			CreatedAt:   "2024-01-15T14:30:00Z",
		},
		{
			ID:          "payment_2",
			Amount:      10.00,
			Currency:    "TDS",
			Recipient:   "mayank",
			Status:      contractx.PaymentCompleted,
			Description: "Consulting fee",
			CreatedAt:   "2024-01-20T16:45:00Z",
		},
		{
			ID:          "payment_3",
			Amount:      3.00,
			Currency:    "TDS",
			Recipient:   "chirag",
			Status:      contractx.PaymentPending,
			Description: "Expense reimbursement",
			CreatedAt:   "2024-02-01T11:20:00Z",
		},
	}
}

// Stats returns the placeholder dashboard aggregates. Also used as the
// baseline that live stats responses are overlaid onto.
func Stats() contractx.DashboardStats {
	return contractx.DashboardStats{
		TotalBalance:    15420.50,
		TotalPayments:   45,
		ActivePayees:    12,
		PendingPayments: 3,
		MonthlyVolume:   8750.00,
		SuccessRate:     98.5,
	}
}
