package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/payflowhq/payflow/dashboard/contract"
	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

var balanceRe = regexp.MustCompile(`(?i)balance[:\s]+\$?([0-9,]+\.?[0-9]*)`)

// Stats overlays whatever aggregate numbers the agent managed to report onto
// base. Fields the response does not carry keep their baseline values.
func Stats(resp *paymanx.Response, base contractx.DashboardStats) contractx.DashboardStats {
	stats := base
	if resp == nil {
		return stats
	}

	for _, artifact := range resp.Artifacts {
		if artifact.Type != "text" || artifact.Content == "" {
			continue
		}

		var parsed map[string]any
		if err := json.Unmarshal([]byte(artifact.Content), &parsed); err != nil {
			if m := balanceRe.FindStringSubmatch(artifact.Content); m != nil {
				if balance, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
					stats.TotalBalance = balance
				}
			}
			continue
		}

		if v, ok := asFloat(parsed, "balance"); ok {
			stats.TotalBalance = v
		}
		if v, ok := asFloat(parsed, "totalPayments"); ok {
			stats.TotalPayments = int(v)
		}
		if v, ok := asFloat(parsed, "activePayees"); ok {
			stats.ActivePayees = int(v)
		}
		if v, ok := asFloat(parsed, "pendingPayments"); ok {
			stats.PendingPayments = int(v)
		}
		if v, ok := asFloat(parsed, "monthlyVolume"); ok {
			stats.MonthlyVolume = v
		}
		if v, ok := asFloat(parsed, "successRate"); ok {
			stats.SuccessRate = v
		}
	}

	return stats
}

// Receipt pulls a payment identifier and status out of a confirmation
// response. Empty strings mean the response carried neither.
func Receipt(resp *paymanx.Response) (id, status string) {
	if resp == nil {
		return "", ""
	}

	for _, artifact := range resp.Artifacts {
		if artifact.Type != "text" || artifact.Content == "" {
			continue
		}

		var parsed map[string]any
		if err := json.Unmarshal([]byte(artifact.Content), &parsed); err != nil {
			if m := idRe.FindStringSubmatch(artifact.Content); m != nil {
				id = m[1]
			}
			continue
		}

		if v := asString(parsed, "id", "transactionId"); v != "" {
			id = v
		}
		if v := asString(parsed, "status"); v != "" {
			status = v
		}
	}

	return id, status
}
