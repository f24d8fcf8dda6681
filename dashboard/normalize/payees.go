package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/payflowhq/payflow/dashboard/contract"
	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

var (
	payeeHeaderRe   = regexp.MustCompile(`^\d+\.\s+Payee:\s*(.+)$`)
	payeeTypeRe     = regexp.MustCompile(`^-\s*Type:\s*(.+)$`)
	payeeCurrencyRe = regexp.MustCompile(`^-\s*Currency:\s*(.+)$`)
	payeeWalletRe   = regexp.MustCompile(`^-\s*Wallet ID:\s*(.+)$`)
	payeeOrgRe      = regexp.MustCompile(`^-\s*Organization Name:\s*(.+)$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Payees extracts payee records from an agent response. Artifacts are tried
// first (numbered-block text), then a bare array, then nothing.
func Payees(resp *paymanx.Response) []contractx.Payee {
	if resp == nil {
		return nil
	}

	if len(resp.Artifacts) > 0 {
		var all []contractx.Payee
		for _, artifact := range resp.Artifacts {
			if len(artifact.Parts) > 0 {
				for _, part := range artifact.Parts {
					if part.Type == "text" && part.Text != "" {
						all = append(all, payeesFromText(part.Text)...)
					}
				}
				continue
			}
			if artifact.Type == "text" && artifact.Content != "" {
				all = append(all, payeesFromText(artifact.Content)...)
			}
		}
		if len(all) > 0 {
			return dedupePayees(all)
		}
	}

	return payeesFromArray(resp.Raw)
}

// partialPayee accumulates one numbered block before it is flushed.
type partialPayee struct {
	name     string
	email    string
	wallet   string
	currency string
	payType  string
}

// payeesFromText parses the agent's numbered-list prose:
//
//	1. Payee: Acme Corp
//	- Type: Contractor
//	- Currency: USD
//
// A block flushes when the next header starts, and one final flush runs after
// the last line so the trailing block is not dropped.
func payeesFromText(content string) []contractx.Payee {
	var payees []contractx.Payee
	var current *partialPayee

	flush := func() {
		if current == nil || strings.TrimSpace(current.name) == "" {
			return
		}
		email := current.email
		if email == "" {
			email = deriveEmail(current.name)
		}
		currency := current.currency
		if currency == "" {
			currency = contractx.PayeeTextCurrency
		}
		payType := current.payType
		if payType == "" {
			payType = contractx.DefaultPayeeType
		}
		payees = append(payees, contractx.Payee{
			ID:            syntheticID("payee", len(payees)),
			Name:          current.name,
			Email:         email,
			WalletAddress: current.wallet,
			Status:        contractx.PayeeActive,
			TotalPaid:     0,
			Currency:      currency,
			CreatedAt:     nowISO(),
			Type:          payType,
		})
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := payeeHeaderRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &partialPayee{name: strings.TrimSpace(m[1])}
			continue
		}
		if current == nil {
			continue
		}

		if m := payeeTypeRe.FindStringSubmatch(trimmed); m != nil {
			current.payType = whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(m[1])), "_")
		}
		if m := payeeCurrencyRe.FindStringSubmatch(trimmed); m != nil {
			current.currency = strings.TrimSpace(m[1])
		}
		if m := payeeWalletRe.FindStringSubmatch(trimmed); m != nil {
			current.wallet = strings.TrimSpace(m[1])
		}
		if m := payeeOrgRe.FindStringSubmatch(trimmed); m != nil {
			current.email = deriveEmail(m[1])
		}
	}
	flush()

	return payees
}

// payeesFromArray maps a bare JSON array of payee-shaped objects, filling
// synthetic identifiers and defaults for whatever is missing.
func payeesFromArray(raw json.RawMessage) []contractx.Payee {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	objects := objectsOf(items)
	payees := make([]contractx.Payee, 0, len(objects))
	for i, obj := range objects {
		name := asString(obj, "name")
		if name == "" {
			name = fmt.Sprintf("Payee %d", i+1)
		}
		email := asString(obj, "email")
		if email == "" {
			email = fmt.Sprintf("payee%d@example.com", i+1)
		}
		id := asString(obj, "id")
		if id == "" {
			id = fmt.Sprintf("payee_%d", i+1)
		}
		status := contractx.PayeeActive
		if asString(obj, "status") == string(contractx.PayeeInactive) {
			status = contractx.PayeeInactive
		}
		totalPaid, _ := asFloat(obj, "totalPaid")
		currency := asString(obj, "currency")
		if currency == "" {
			currency = contractx.PayeeArrayCurrency
		}
		createdAt := asString(obj, "createdAt", "created_at")
		if createdAt == "" {
			createdAt = nowISO()
		}
		payType := asString(obj, "type")
		if payType == "" {
			payType = contractx.DefaultPayeeType
		}

		payees = append(payees, contractx.Payee{
			ID:            id,
			Name:          name,
			Email:         email,
			WalletAddress: asString(obj, "walletAddress", "wallet_address"),
			Status:        status,
			TotalPaid:     totalPaid,
			Currency:      currency,
			CreatedAt:     createdAt,
			Type:          payType,
		})
	}
	return payees
}

// dedupePayees collapses case-insensitive duplicate names, first wins.
func dedupePayees(payees []contractx.Payee) []contractx.Payee {
	seen := make(map[string]struct{}, len(payees))
	unique := make([]contractx.Payee, 0, len(payees))
	for _, p := range payees {
		key := strings.ToLower(p.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}
