package contract

import (
	"context"

	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

// Gateway issues natural-language requests to the external payment agent.
// The transport, auth, and retry behavior behind it are opaque to the
// dashboard; only the response shape matters.
type Gateway interface {
	Ask(ctx context.Context, prompt string, opts ...paymanx.AskOption) (*paymanx.Response, error)
}
