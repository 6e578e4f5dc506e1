package webhook

import (
	"context"
	"errors"
	"strings"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Processor is the single entry point for webhook deliveries: verify, then
// normalize, then per-event idempotency guard, dispatch and persistence. It
// is constructed once per process with its collaborators injected.
type Processor struct {
	cfg    *Config
	repo   billing.Repository
	router *Router
	stats  StatsRecorder
	dedup  Deduper
}

// Option customizes a Processor.
type Option func(*Processor)

// WithStatsRecorder wires per-outcome delivery counters.
func WithStatsRecorder(s StatsRecorder) Option {
	return func(p *Processor) { p.stats = s }
}

// WithDeduper wires the advisory duplicate fast path.
func WithDeduper(d Deduper) Option {
	return func(p *Processor) { p.dedup = d }
}

// WithRouter replaces the default handler set.
func WithRouter(r *Router) Option {
	return func(p *Processor) { p.router = r }
}

// NewProcessor creates a processor with the default handlers registered.
func NewProcessor(cfg *Config, repo billing.Repository, svc *billing.Service, opts ...Option) *Processor {
	router := NewRouter()
	RegisterDefaultHandlers(router, svc)
	p := &Processor{
		cfg:    cfg,
		repo:   repo,
		router: router,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle processes one delivery and returns the HTTP-shaped result. The
// response is derived from the worst outcome across fanned-out sub-events:
// any transient failure forces a retryable status.
func (p *Processor) Handle(ctx context.Context, d Delivery) Result {
	deliveryID := uuid.NewString()

	if isSocialProvider(d.Provider) && d.Query[HandshakeModeParam] != "" {
		return p.handleHandshake(d, deliveryID)
	}

	secret := p.cfg.SigningSecret(d.Provider)
	if secret == "" {
		err := &ConfigError{Reason: "signing secret unset for provider " + d.Provider}
		log.Errorf("alert=webhook_secret_missing provider=%s delivery=%s err=%v", d.Provider, deliveryID, err)
		return Result{Status: 500, Body: "configuration error"}
	}

	signature := headerValue(d.Headers, signatureHeader(d.Provider))
	if signature == "" {
		p.reject(d.Provider, deliveryID, &AuthenticationError{Reason: "missing signature header"})
		return Result{Status: 401, Body: "missing signature"}
	}
	if !VerifySignature(d.RawBody, signature, secret) {
		p.reject(d.Provider, deliveryID, &AuthenticationError{Reason: "signature mismatch"})
		return Result{Status: 401, Body: "invalid signature"}
	}

	events, err := Normalize(d.Provider, d.RawBody, d.ReceivedAt)
	if err != nil {
		log.Warnf("webhook: rejected provider=%s delivery=%s reason=%v", d.Provider, deliveryID, err)
		return Result{Status: 400, Body: "invalid payload"}
	}

	worst := OutcomeApplied
	for i := range events {
		outcome := p.processEvent(ctx, deliveryID, &events[i])
		if p.stats != nil {
			p.stats.Record(d.Provider, outcome)
		}
		if outcomeRank(outcome) > outcomeRank(worst) {
			worst = outcome
		}
	}

	switch status := outcomeStatus(worst); status {
	case 200:
		return Result{Status: 200, Body: "OK"}
	case 400:
		return Result{Status: 400, Body: "invalid payload"}
	default:
		return Result{Status: status, Body: "internal error"}
	}
}

func (p *Processor) handleHandshake(d Delivery, deliveryID string) Result {
	if p.cfg.MetaVerifyToken == "" {
		log.Errorf("alert=verify_token_missing provider=%s delivery=%s", d.Provider, deliveryID)
		return Result{Status: 500, Body: "configuration error"}
	}
	res := VerifyHandshake(d.Query, p.cfg.MetaVerifyToken)
	if res.Status != 200 {
		p.reject(d.Provider, deliveryID, &AuthenticationError{Reason: "verify token mismatch"})
	}
	return res
}

// processEvent runs one normalized event through the idempotency guard and
// its handler, classifying failures into outcomes. Sibling sub-events are
// unaffected by this event's result.
func (p *Processor) processEvent(ctx context.Context, deliveryID string, ev *NormalizedEvent) string {
	key := ev.DedupKey()

	if p.dedup != nil && p.dedup.Seen(ev.Provider, key) {
		log.Infof("webhook: duplicate (cache) provider=%s event=%s delivery=%s", ev.Provider, key, deliveryID)
		return OutcomeDuplicate
	}

	handler := p.router.Resolve(ev.Provider, ev.Type)
	if ev.Type == TypeUnhandled {
		handler = ackUnhandled
	}

	outcome, err := p.repo.ProcessEvent(ctx, billing.EventKey{
		Provider:    ev.Provider,
		EventID:     key,
		EventType:   ev.Type,
		PayloadJSON: string(ev.Payload),
	}, func(tx billing.Repository) (string, error) {
		return handler(ctx, tx, *ev)
	})

	switch {
	case err == nil:
		if p.dedup != nil {
			p.dedup.Mark(ev.Provider, key)
		}
		return outcome
	case errors.Is(err, billing.ErrDuplicateEvent):
		if p.dedup != nil {
			p.dedup.Mark(ev.Provider, key)
		}
		log.Infof("webhook: duplicate provider=%s event=%s delivery=%s", ev.Provider, key, deliveryID)
		return OutcomeDuplicate
	default:
		return p.classifyFailure(deliveryID, ev, key, err)
	}
}

func (p *Processor) classifyFailure(deliveryID string, ev *NormalizedEvent, key string, err error) string {
	var malformed *MalformedPayloadError
	if errors.As(err, &malformed) {
		log.Warnf("webhook: malformed sub-event provider=%s type=%s event=%s delivery=%s reason=%v",
			ev.Provider, ev.OriginalType, key, deliveryID, err)
		return OutcomeMalformed
	}
	var unmappable *billing.UnmappableDataError
	if errors.As(err, &unmappable) {
		// Handlers normally absorb this; classify defensively anyway.
		log.Errorf("alert=unmappable_webhook_data provider=%s event=%s delivery=%s detail=%v",
			ev.Provider, key, deliveryID, err)
		return OutcomeUnmappable
	}
	log.Errorf("webhook: transient failure provider=%s type=%s event=%s delivery=%s err=%v",
		ev.Provider, ev.OriginalType, key, deliveryID, err)
	return OutcomeTransient
}

// ackUnhandled acknowledges event types outside the canonical set. They are
// logged and recorded, and never dispatched to a state handler.
func ackUnhandled(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error) {
	log.Infof("webhook: unhandled event type provider=%s type=%s", ev.Provider, ev.OriginalType)
	return models.EventOutcomeIgnored, nil
}

func (p *Processor) reject(provider, deliveryID string, err error) {
	log.Warnf("webhook: rejected provider=%s delivery=%s reason=%v", provider, deliveryID, err)
	if p.stats != nil {
		p.stats.Record(provider, "rejected")
	}
}

func isSocialProvider(provider string) bool {
	return provider == models.ProviderFacebook || provider == models.ProviderInstagram
}

func signatureHeader(provider string) string {
	if provider == models.ProviderStripe {
		return "Stripe-Signature"
	}
	return "X-Hub-Signature-256"
}

func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
