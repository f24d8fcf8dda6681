// Package service is the dashboard's application layer: it phrases each
// operation as a natural-language request to the payment agent, normalizes
// whatever comes back, and substitutes placeholder data when the agent is
// missing, failing, or unintelligible.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/payflowhq/payflow/dashboard/contract"
	fallbackx "github.com/payflowhq/payflow/dashboard/fallback"
	"github.com/payflowhq/payflow/dashboard/normalize"
	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

const listPayeesPrompt = `list all payees.

For each payee, please provide:
- Name (full name or company name)
- Email address (if available)
- Wallet address or payment address (if available)
- Current status (active/inactive)
- Total amount paid to them historically
- Currency they typically receive
- When they were first added
- Tags or categories

Please format this as a clear list with all available payees.`

const listPaymentsPrompt = "List all my recent payments, transactions, and transfers with complete details " +
	"including transaction IDs, amounts, recipients, status, descriptions, timestamps, and any metadata. " +
	"Show both incoming and outgoing transactions. Return comprehensive transaction history in JSON format " +
	"with an array of transaction objects."

const statsPrompt = "Get my tds wallet account balance, total number of payments sent, " +
	"number of active test payees. Return the data in JSON format."

// PaymentService delegates all financial logic to the agent behind gateway.
// A nil gateway puts the whole service in placeholder mode for the session.
type PaymentService struct {
	gateway contractx.Gateway
}

func New(gateway contractx.Gateway) *PaymentService {
	return &PaymentService{gateway: gateway}
}

// CredentialStatus discloses gateway availability to the settings view.
func (s *PaymentService) CredentialStatus() contractx.CredentialStatus {
	configured := s.gateway != nil
	return contractx.CredentialStatus{
		Configured:    configured,
		UsingMockData: !configured,
	}
}

// FetchPayees returns the payee list, the mock-data flag, and an advisory
// error. The advisory is non-fatal: data is always usable, and a rate-limit
// advisory tells the caller to prefer cached data and skip retries.
func (s *PaymentService) FetchPayees(ctx context.Context) ([]contractx.Payee, bool, error) {
	if s.gateway == nil {
		return fallbackx.Payees(), true, nil
	}

	resp, err := s.gateway.Ask(ctx, listPayeesPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("payee fetch failed, serving placeholder data")
		if paymanx.IsRateLimited(err) {
			return fallbackx.Payees(), true, paymanx.ErrRateLimited
		}
		return fallbackx.Payees(), true, nil
	}

	payees := normalize.Payees(resp)
	if len(payees) == 0 {
		log.Debug().Msg("agent response yielded no payees, serving placeholder data")
		return fallbackx.Payees(), true, nil
	}
	return payees, false, nil
}

// FetchPayments returns the payment list with the same degradation contract
// as FetchPayees.
func (s *PaymentService) FetchPayments(ctx context.Context) ([]contractx.Payment, bool, error) {
	if s.gateway == nil {
		return fallbackx.Payments(), true, nil
	}

	resp, err := s.gateway.Ask(ctx, listPaymentsPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("payment fetch failed, serving placeholder data")
		if paymanx.IsRateLimited(err) {
			return fallbackx.Payments(), true, paymanx.ErrRateLimited
		}
		return fallbackx.Payments(), true, nil
	}

	payments := normalize.Payments(resp)
	if len(payments) == 0 {
		log.Debug().Msg("agent response yielded no payments, serving placeholder data")
		return fallbackx.Payments(), true, nil
	}
	return payments, false, nil
}

// DashboardStats returns the aggregate numbers for the dashboard view,
// overlaying whatever the agent reported onto the placeholder baseline.
func (s *PaymentService) DashboardStats(ctx context.Context) (contractx.DashboardStats, bool, error) {
	base := fallbackx.Stats()
	if s.gateway == nil {
		return base, true, nil
	}

	var last *paymanx.Response
	resp, err := s.gateway.Ask(ctx, statsPrompt, paymanx.WithOnMessage(func(r *paymanx.Response) {
		last = r
	}))
	if err != nil {
		log.Warn().Err(err).Msg("stats fetch failed, serving placeholder stats")
		if paymanx.IsRateLimited(err) {
			return base, true, paymanx.ErrRateLimited
		}
		return base, true, nil
	}
	if last == nil {
		last = resp
	}

	return normalize.Stats(last, base), false, nil
}

// CreatePayee asks the agent to register a payee. Unlike the fetch paths,
// gateway failure here is an error the user must see; only a missing gateway
// simulates success locally.
func (s *PaymentService) CreatePayee(ctx context.Context, in contractx.NewPayee) (contractx.Payee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return contractx.Payee{}, fmt.Errorf("%w: payee name is required", contractx.ErrInvalidRecord)
	}

	if s.gateway == nil {
		return s.simulatedPayee(in), nil
	}

	prompt := fmt.Sprintf("Create a Test Rails payee of type %s called %s", in.Type, name)
	if in.Email != "" {
		prompt += " with email " + in.Email
	}
	prompt += ". Return the payee details in JSON format."

	resp, err := s.gateway.Ask(ctx, prompt)
	if err != nil {
		return contractx.Payee{}, fmt.Errorf("%w: create payee: %v", contractx.ErrCreateFailed, err)
	}

	if payees := normalize.Payees(resp); len(payees) > 0 {
		return payees[0], nil
	}

	// The agent confirmed but the confirmation was unparseable.
	return s.simulatedPayee(in), nil
}

func (s *PaymentService) simulatedPayee(in contractx.NewPayee) contractx.Payee {
	email := in.Email
	if email == "" {
		// Legacy quirk: the simulated path only folds spaces into dots,
		// unlike the normalizer's full character-class derivation.
		email = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(in.Name)), " ", ".") + "@example.com"
	}
	return contractx.Payee{
		ID:        syntheticID("payee"),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Status:    contractx.PayeeActive,
		TotalPaid: 0,
		Currency:  contractx.PayeeArrayCurrency,
		CreatedAt: nowISO(),
		Type:      in.Type,
	}
}

// QuickPay issues an immediate payment to a payee by name. The agent streams
// progress updates; only the last delivered response is consulted.
func (s *PaymentService) QuickPay(ctx context.Context, amount float64, payeeName string) (contractx.Payment, error) {
	payeeName = strings.TrimSpace(payeeName)
	if payeeName == "" {
		return contractx.Payment{}, fmt.Errorf("%w: payee name is required", contractx.ErrInvalidRecord)
	}

	payment := contractx.Payment{
		ID:          syntheticID("payment"),
		Amount:      amount,
		Currency:    contractx.QuickPayCurrency,
		Recipient:   payeeName,
		Status:      contractx.PaymentCompleted,
		Description: "Quick payment to " + payeeName,
		CreatedAt:   nowISO(),
	}

	if s.gateway == nil {
		payment.Currency = contractx.PaymentCurrency
		payment.Status = contractx.PaymentPending
		return payment, nil
	}

	prompt := fmt.Sprintf("Pay %v TDS to %s. Process this payment immediately.", amount, payeeName)

	var last *paymanx.Response
	resp, err := s.gateway.Ask(ctx, prompt, paymanx.WithOnMessage(func(r *paymanx.Response) {
		last = r
	}))
	if err != nil {
		return contractx.Payment{}, fmt.Errorf("%w: quick pay: %v", contractx.ErrCreateFailed, err)
	}
	if last == nil {
		last = resp
	}

	if id, status := normalize.Receipt(last); id != "" || status != "" {
		if id != "" {
			payment.ID = id
		}
		if status != "" {
			payment.Status = strings.ToLower(status)
		}
	}
	return payment, nil
}

// CreatePayment sends a described payment with optional metadata attached to
// the agent request.
func (s *PaymentService) CreatePayment(ctx context.Context, in contractx.NewPayment) (contractx.Payment, error) {
	if strings.TrimSpace(in.Recipient) == "" {
		return contractx.Payment{}, fmt.Errorf("%w: recipient is required", contractx.ErrInvalidRecord)
	}

	payment := contractx.Payment{
		ID:          syntheticID("payment"),
		Amount:      in.Amount,
		Currency:    in.Currency,
		Recipient:   in.Recipient,
		Status:      contractx.PaymentCompleted,
		Description: in.Description,
		CreatedAt:   nowISO(),
		Metadata:    in.Metadata,
	}

	if s.gateway == nil {
		payment.Status = contractx.PaymentPending
		return payment, nil
	}

	prompt := fmt.Sprintf("Send a payment of %v %s to %s for: %s. Return the payment confirmation details in JSON format.",
		in.Amount, in.Currency, in.Recipient, in.Description)

	var last *paymanx.Response
	resp, err := s.gateway.Ask(ctx, prompt,
		paymanx.WithOnMessage(func(r *paymanx.Response) {
			last = r
		}),
		paymanx.WithMetadata(in.Metadata),
	)
	if err != nil {
		return contractx.Payment{}, fmt.Errorf("%w: create payment: %v", contractx.ErrCreateFailed, err)
	}
	if last == nil {
		last = resp
	}

	if id, status := normalize.Receipt(last); id != "" || status != "" {
		if id != "" {
			payment.ID = id
		}
		if status != "" {
			payment.Status = strings.ToLower(status)
		}
	}
	return payment, nil
}
