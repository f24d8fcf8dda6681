package contract

// PayeeStatus is the lifecycle status of a payee.
type PayeeStatus string

const (
	PayeeActive   PayeeStatus = "active"
	PayeeInactive PayeeStatus = "inactive"
)

// Payment statuses are free text from the agent, lower-cased as encountered.
// These constants cover the values the dashboard renders specially.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Default currency literals. The upstream agent and the legacy client disagree
// about which test currency each code path should assume; the four constants
// keep the discrepancy visible instead of papering over it.
// Do not unify without product confirmation.
const (
	PayeeTextCurrency     = "TSD"
	PayeeArrayCurrency    = "USD"
	PaymentCurrency       = "USD"
	PaymentArrayCurrency  = "TDS"
	QuickPayCurrency      = "TDS"
	DefaultPayeeType      = "standard"
	DefaultPaymentLabel   = "Payment transaction"
	ArrayPathPaymentLabel = "Payment"
)

// Payee is a normalized payee record as rendered by the dashboard.
type Payee struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	WalletAddress string      `json:"walletAddress,omitempty"`
	Status        PayeeStatus `json:"status"`
	TotalPaid     float64     `json:"totalPaid"`
	Currency      string      `json:"currency"`
	CreatedAt     string      `json:"createdAt"`
	Type          string      `json:"type,omitempty"`
}

// Payment is a normalized payment record.
type Payment struct {
	ID          string         `json:"id"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Recipient   string         `json:"recipient"`
	Status      string         `json:"status"`
	Description string         `json:"description"`
	CreatedAt   string         `json:"createdAt"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DashboardStats are the aggregate numbers shown on the dashboard view.
type DashboardStats struct {
	TotalBalance    float64 `json:"totalBalance"`
	TotalPayments   int     `json:"totalPayments"`
	ActivePayees    int     `json:"activePayees"`
	PendingPayments int     `json:"pendingPayments"`
	MonthlyVolume   float64 `json:"monthlyVolume"`
	SuccessRate     float64 `json:"successRate"`
}

// CredentialStatus discloses whether the gateway is usable and whether the
// data currently shown is placeholder data.
type CredentialStatus struct {
	Configured    bool `json:"configured"`
	UsingMockData bool `json:"usingMockData"`
}

// NewPayee is the input collected by the add-payee form.
type NewPayee struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
}

// NewPayment is the input collected by the new-payment form.
type NewPayment struct {
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Recipient   string         `json:"recipient"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
