package health

import (
	"context"

	"github.com/creditarchitect/dispatch-app/dispatch/tracker"
	"github.com/creditarchitect/dispatch-app/log"
)

// Pinger is the slice of the mail client the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker reports whether the dispute store and the mail gateway are usable.
type Checker struct {
	Store   *tracker.Store
	Gateway Pinger
}

// IsStoreOK confirms the dispute store is readable and parseable. A store
// file that does not exist yet is healthy.
func (c *Checker) IsStoreOK() bool {
	if _, err := c.Store.All(); err != nil {
		log.API.Errorf("health check: dispute store unusable: %s", err)
		return false
	}
	return true
}

// IsGatewayOK confirms the mail provider answers an authenticated request.
func (c *Checker) IsGatewayOK(ctx context.Context) bool {
	if err := c.Gateway.Ping(ctx); err != nil {
		log.API.Errorf("health check: mail gateway unreachable: %s", err)
		return false
	}
	return true
}
