// Package mock produces gateway responses shaped identically to the real
// gateway's decoded results, for environments where the live gateway is
// unavailable or must not be touched. Selection happens once per deployment
// through the injected gateway mode, never through global state.
package mock

import (
	"fmt"
	"sync/atomic"

	"github.com/finvera/wealthgate/internal/gateway/decode"
	"github.com/finvera/wealthgate/pkg/models"
)

// Action distinguishes registration from cancellation responses.
type Action string

const (
	ActionRegister Action = "register"
	ActionCancel   Action = "cancel"
)

// Gateway fabricates decoded results. The orchestrator skips the token
// service and transport client entirely when the mock is active, but the
// result shape keeps all downstream handling identical to the live path.
type Gateway struct {
	seq atomic.Int64
}

func New() *Gateway {
	return &Gateway{}
}

// Response returns a canned success result for the given order type and
// action, including a generated registration number for registrations.
func (g *Gateway) Response(orderType models.OrderType, action Action) *decode.Result {
	if action == ActionCancel {
		return &decode.Result{
			Success: true,
			Code:    "100",
			Message: fmt.Sprintf("%s CANCELLATION REGISTERED", orderType),
		}
	}

	regNo := fmt.Sprintf("MOCK%s%08d", orderType, g.seq.Add(1))
	return &decode.Result{
		Success: true,
		Code:    "100",
		Message: fmt.Sprintf("%s REGISTRATION ACCEPTED", orderType),
		Data:    []string{regNo, fmt.Sprintf("%s REGISTRATION ACCEPTED", orderType)},
	}
}
