package advisory

import (
	"context"
	"strings"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/pkg/cache"
	"github.com/kubev2v/inventory-advisor/pkg/metrics"
	"go.uber.org/zap"
)

// PlaceholderText is returned whenever no advice could be produced.
const PlaceholderText = "Advisory text is currently unavailable."

const DefaultCacheTTL = 7 * 24 * time.Hour

type Advice struct {
	Key    string `json:"key"`
	Text   string `json:"text"`
	Cached bool   `json:"cached"`
	// Available is false when Text is the placeholder.
	Available bool `json:"available"`
}

type Service struct {
	provider Provider
	cache    *cache.Cache[string]
}

type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	ttl   time.Duration
	clock func() time.Time
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.ttl = ttl
	}
}

func WithCacheClock(clock func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.clock = clock
	}
}

// NewService wraps provider with a response cache. A nil provider always
// yields the placeholder.
func NewService(provider Provider, opts ...ServiceOption) *Service {
	o := serviceOptions{ttl: DefaultCacheTTL, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		provider: provider,
		cache:    cache.New[string](cache.WithTTL(o.ttl), cache.WithClock(o.clock)),
	}
}

// Remediation returns advice for a free-text health message.
func (s *Service) Remediation(ctx context.Context, message string) Advice {
	message = strings.TrimSpace(message)
	if message == "" {
		return Advice{Text: PlaceholderText}
	}
	return s.advise(ctx, "message|"+NormalizeMessage(message), remediationPrompt(message))
}

// ForFinding returns advice for one finding.
func (s *Service) ForFinding(ctx context.Context, f findings.Finding) Advice {
	return s.advise(ctx, findingKey(f), findingPrompt(f))
}

func (s *Service) advise(ctx context.Context, key, prompt string) Advice {
	if s.provider == nil {
		metrics.IncreaseAdvisoryRequestsMetric("disabled")
		return Advice{Key: key, Text: PlaceholderText}
	}

	if text, ok := s.cache.Get(key, 0); ok {
		metrics.IncreaseAdvisoryRequestsMetric("cached")
		return Advice{Key: key, Text: text, Cached: true, Available: true}
	}

	text, err := s.cache.GetOrLoad(key, 0, func() (string, error) {
		return s.provider.Advise(ctx, prompt)
	})
	if err != nil {
		metrics.IncreaseAdvisoryRequestsMetric("failed")
		zap.S().Named("advisory").Warnw("advisory provider failed", "key", key, "error", err)
		return Advice{Key: key, Text: PlaceholderText}
	}

	metrics.IncreaseAdvisoryRequestsMetric("generated")
	return Advice{Key: key, Text: text, Available: true}
}
