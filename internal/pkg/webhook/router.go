package webhook

import (
	"context"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/gofiber/fiber/v2/log"
)

// HandlerFunc applies one normalized event inside the repository transaction
// opened by the idempotency guard. It returns the outcome to record in the
// processed-event log; a non-nil error rolls the whole unit back.
type HandlerFunc func(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error)

type routeKey struct {
	provider  string
	eventType string
}

// Router maps (provider, canonical type) pairs to handlers. Unregistered
// pairs resolve to an acknowledge-and-log no-op so new provider event types
// never break ingestion.
type Router struct {
	handlers map[routeKey]HandlerFunc
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[routeKey]HandlerFunc)}
}

// Register binds a handler for a (provider, type) pair. Later registrations
// replace earlier ones.
func (r *Router) Register(provider, eventType string, h HandlerFunc) {
	r.handlers[routeKey{provider: provider, eventType: eventType}] = h
}

// Resolve returns the handler for the pair, or the no-op acknowledge handler.
func (r *Router) Resolve(provider, eventType string) HandlerFunc {
	if h, ok := r.handlers[routeKey{provider: provider, eventType: eventType}]; ok {
		return h
	}
	return ackUnregistered
}

func ackUnregistered(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error) {
	log.Infof("webhook: no handler registered provider=%s type=%s event=%s",
		ev.Provider, ev.Type, ev.DedupKey())
	return models.EventOutcomeIgnored, nil
}
