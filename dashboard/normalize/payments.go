package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/payflowhq/payflow/dashboard/contract"
	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

var (
	amountRe    = regexp.MustCompile(`(?i)amount[:\s]+\$?([0-9,.]+)`)
	recipientRe = regexp.MustCompile(`(?i)(?:to|recipient|payee)[:\s]+([^,\n]+)`)
	statusRe    = regexp.MustCompile(`(?i)status[:\s]+(\w+)`)
	idRe        = regexp.MustCompile(`(?i)(?:id|transaction)[:\s]+([a-zA-Z0-9-_]+)`)
)

// Payments extracts payment records from an agent response. Artifact content
// is tried JSON-first, then line-oriented text extraction, then the response
// itself as a bare array, then a nested {data: [...]} envelope.
func Payments(resp *paymanx.Response) []contractx.Payment {
	if resp == nil {
		return nil
	}

	if len(resp.Artifacts) > 0 {
		var collected []map[string]any
		for _, artifact := range resp.Artifacts {
			if artifact.Type == "text" && artifact.Content != "" {
				collected = append(collected, paymentDataFromContent(artifact.Content)...)
			}
			if len(artifact.Data) > 0 {
				var items []any
				if err := json.Unmarshal(artifact.Data, &items); err == nil {
					collected = append(collected, objectsOf(items)...)
				}
			}
		}
		if len(collected) > 0 {
			payments := make([]contractx.Payment, 0, len(collected))
			for i, obj := range collected {
				payments = append(payments, mapPayment(obj, i))
			}
			return payments
		}
	}

	if payments := paymentsFromArray(resp.Raw); payments != nil {
		return payments
	}

	// Nested {data: [...]} envelope without artifacts.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Raw, &envelope); err == nil && len(envelope.Data) > 0 {
		return paymentsFromArray(envelope.Data)
	}

	return nil
}

// paymentDataFromContent decodes one artifact's textual content into zero or
// more payment-shaped objects. JSON wins when it parses: a bare array, a
// payments/transactions/data field, or a single object with a numeric amount.
// Otherwise the text is scanned line by line for amount/recipient/status/id
// patterns and accumulated into at most one candidate for the whole artifact.
func paymentDataFromContent(content string) []map[string]any {
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		switch v := parsed.(type) {
		case []any:
			return objectsOf(v)
		case map[string]any:
			for _, field := range []string{"payments", "transactions", "data"} {
				if items, ok := v[field].([]any); ok {
					return objectsOf(items)
				}
			}
			if _, ok := asFloat(v, "amount"); ok {
				return []map[string]any{v}
			}
		}
		return nil
	}

	lowered := strings.ToLower(content)
	if !strings.Contains(lowered, "amount") &&
		!strings.Contains(lowered, "payment") &&
		!strings.Contains(lowered, "transaction") {
		return nil
	}

	candidate := map[string]any{}
	for _, line := range strings.Split(content, "\n") {
		if m := amountRe.FindStringSubmatch(line); m != nil {
			if amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				candidate["amount"] = amount
			}
		}
		if m := recipientRe.FindStringSubmatch(line); m != nil {
			candidate["recipient"] = strings.TrimSpace(m[1])
		}
		if m := statusRe.FindStringSubmatch(line); m != nil {
			candidate["status"] = strings.ToLower(m[1])
		}
		if m := idRe.FindStringSubmatch(line); m != nil {
			candidate["id"] = m[1]
		}
	}

	_, hasAmount := candidate["amount"]
	_, hasRecipient := candidate["recipient"]
	if !hasAmount && !hasRecipient {
		return nil
	}
	return []map[string]any{candidate}
}

// mapPayment maps one collected object into the payment schema, walking the
// alias names the agent has been seen using.
func mapPayment(obj map[string]any, index int) contractx.Payment {
	id := asString(obj, "id", "transactionId", "transaction_id")
	if id == "" {
		id = syntheticID("payment", index)
	}
	amount, _ := asFloat(obj, "amount", "value", "total")
	currency := asString(obj, "currency", "curr")
	if currency == "" {
		currency = contractx.PaymentCurrency
	}
	recipient := asString(obj, "recipient", "to", "payee", "recipient_name")
	if recipient == "" {
		recipient = fmt.Sprintf("Recipient %d", index+1)
	}
	status := asString(obj, "status", "state")
	if status == "" {
		status = contractx.PaymentPending
	}
	description := asString(obj, "description", "memo", "note", "purpose")
	if description == "" {
		description = contractx.DefaultPaymentLabel
	}
	createdAt := asString(obj, "createdAt", "created_at", "timestamp", "date")
	if createdAt == "" {
		createdAt = nowISO()
	}
	metadata := asMap(obj, "metadata")
	if metadata == nil {
		metadata = map[string]any{}
	}

	return contractx.Payment{
		ID:          id,
		Amount:      amount,
		Currency:    currency,
		Recipient:   recipient,
		Status:      strings.ToLower(status),
		Description: description,
		CreatedAt:   createdAt,
		Metadata:    metadata,
	}
}

// paymentsFromArray maps a bare JSON array with the looser legacy defaults
// (TDS currency, short description). Returns nil when raw is not an array.
func paymentsFromArray(raw json.RawMessage) []contractx.Payment {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	objects := objectsOf(items)
	payments := make([]contractx.Payment, 0, len(objects))
	for i, obj := range objects {
		id := asString(obj, "id")
		if id == "" {
			id = fmt.Sprintf("payment_%d", i+1)
		}
		amount, _ := asFloat(obj, "amount")
		currency := asString(obj, "currency")
		if currency == "" {
			currency = contractx.PaymentArrayCurrency
		}
		recipient := asString(obj, "recipient", "to")
		if recipient == "" {
			recipient = fmt.Sprintf("Recipient %d", i+1)
		}
		status := asString(obj, "status")
		if status == "" {
			status = contractx.PaymentPending
		}
		description := asString(obj, "description", "memo")
		if description == "" {
			description = contractx.ArrayPathPaymentLabel
		}
		createdAt := asString(obj, "createdAt", "created_at")
		if createdAt == "" {
			createdAt = nowISO()
		}
		metadata := asMap(obj, "metadata")
		if metadata == nil {
			metadata = map[string]any{}
		}

		payments = append(payments, contractx.Payment{
			ID:          id,
			Amount:      amount,
			Currency:    currency,
			Recipient:   recipient,
			Status:      status,
			Description: description,
			CreatedAt:   createdAt,
			Metadata:    metadata,
		})
	}
	return payments
}
