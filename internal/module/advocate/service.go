package advocate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/simp-lee/advocates/internal/domain"
	"github.com/simp-lee/advocates/internal/metrics"
)

// Client-facing messages for storage failures.
const (
	msgListFailed = "Could not fetch advocates"
	msgSeedFailed = "Could not seed advocates"
	msgSeeded     = "Seeded advocates successfully"
)

// advocateService implements domain.AdvocateService.
type advocateService struct {
	repo    domain.AdvocateRepository
	seeds   func() ([]domain.Advocate, error)
	metrics *metrics.Metrics
	logger  *slog.Logger

	// identical concurrent listings share one storage round trip
	lists singleflight.Group
}

// ServiceOption configures an AdvocateService.
type ServiceOption func(*advocateService)

// WithMetrics records listing and seeding metrics on m.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *advocateService) { s.metrics = m }
}

// WithLogger sets the logger used for storage failures. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *advocateService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSeedSource replaces the built-in seed dataset.
func WithSeedSource(fn func() ([]domain.Advocate, error)) ServiceOption {
	return func(s *advocateService) {
		if fn != nil {
			s.seeds = fn
		}
	}
}

// NewAdvocateService creates a new AdvocateService with the given repository.
func NewAdvocateService(repo domain.AdvocateRepository, opts ...ServiceOption) domain.AdvocateService {
	s := &advocateService{
		repo:   repo,
		seeds:  SeedData,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAdvocates builds a safe query from q and runs it once. Storage errors
// are logged and replaced by a generic internal error.
func (s *advocateService) ListAdvocates(ctx context.Context, q domain.SearchQuery) ([]domain.Advocate, error) {
	lq := BuildQuery(q)

	v, err, _ := s.lists.Do(listKey(lq), func() (any, error) {
		start := time.Now()
		rows, err := s.repo.List(context.WithoutCancel(ctx), lq)
		s.metrics.ObserveList(len(rows), time.Since(start), err)
		return rows, err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch advocates",
			slog.Any("error", err),
			slog.String("sort_column", lq.Order.Column),
			slog.Bool("desc", lq.Order.Desc),
			slog.Bool("filtered", lq.Predicate != nil),
		)
		return nil, domain.NewAppError(domain.CodeInternal, msgListFailed, err)
	}

	// Results may be shared with concurrent callers.
	return slices.Clone(v.([]domain.Advocate)), nil
}

// Seed replaces all advocates with the seed dataset.
func (s *advocateService) Seed(ctx context.Context) (*domain.SeedResult, error) {
	records, err := s.seeds()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load seed data", slog.Any("error", err))
		s.metrics.IncrementSeed(err)
		return nil, domain.NewAppError(domain.CodeInternal, msgSeedFailed, err)
	}

	inserted, err := s.repo.ReplaceAll(ctx, records)
	s.metrics.IncrementSeed(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to seed advocates", slog.Any("error", err))
		return nil, domain.NewAppError(domain.CodeInternal, msgSeedFailed, err)
	}

	s.logger.InfoContext(ctx, "advocates seeded", slog.Int("count", len(inserted)))
	return &domain.SeedResult{
		Message: msgSeeded,
		Count:   len(inserted),
		Records: inserted,
	}, nil
}

// SeedIfEmpty seeds only when no advocates exist. It returns nil, nil when the
// table already has rows.
func (s *advocateService) SeedIfEmpty(ctx context.Context) (*domain.SeedResult, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count advocates", slog.Any("error", err))
		return nil, domain.NewAppError(domain.CodeInternal, msgSeedFailed, err)
	}
	if total > 0 {
		return nil, nil
	}
	return s.Seed(ctx)
}

func listKey(q domain.ListQuery) string {
	key := fmt.Sprintf("%s:%t", q.Order.Column, q.Order.Desc)
	if q.Predicate != nil && len(q.Predicate.Args) > 0 {
		key += fmt.Sprintf(":%v", q.Predicate.Args[0])
	}
	return key
}
