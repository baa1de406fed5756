// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/shopify"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/catalog"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/ratelimit"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/tracking"
	"github.com/andipetruzz/modalrecomendacoes/internal/registry"
	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
)

// Service wires the registry, backing store, and domain components behind
// the operations the HTTP layer consumes.
type Service struct {
	mu sync.RWMutex

	// Core components
	reg      *registry.Registry
	kvStore  kv.Store
	resolver shopify.Resolver
	catalog  *catalog.Store
	quiz     *catalog.Store
	tracker  *tracking.Aggregator
	limiter  *ratelimit.Limiter

	// Configuration
	redisAddr     string
	redisPassword string
	redisDB       int
	shopifyStore  string
	shopifyToken  string
	shopifyRPS    float64
	primaryStore  string
	window        time.Duration
	limit         int64
	overwrite     bool

	// State
	started bool
	redis   *kv.Redis

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRedis configures the backing Redis connection.
func WithRedis(addr, password string, db int) Option {
	return func(s *Service) {
		if addr != "" {
			s.redisAddr = addr
		}
		s.redisPassword = password
		s.redisDB = db
	}
}

// WithKV injects a backing store directly, bypassing Redis. Used by tests.
func WithKV(store kv.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.kvStore = store
		}
	}
}

// WithShopify configures the product-resolution collaborator.
func WithShopify(store, token string, rps float64) Option {
	return func(s *Service) {
		s.shopifyStore = store
		s.shopifyToken = token
		if rps > 0 {
			s.shopifyRPS = rps
		}
	}
}

// WithResolver injects a product resolver directly. Used by tests.
func WithResolver(r shopify.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithPrimaryStore selects the store unknown tracking ids default to.
func WithPrimaryStore(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.primaryStore = id
		}
	}
}

// WithRateLimit configures the tracking rate limiter.
func WithRateLimit(window time.Duration, limit int) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
		if limit > 0 {
			s.limit = int64(limit)
		}
	}
}

// WithOverwriteOnDuplicate controls the duplicate-add policy of the
// catalog stores.
func WithOverwriteOnDuplicate(overwrite bool) Option {
	return func(s *Service) {
		s.overwrite = overwrite
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		redisAddr:    "localhost:6379",
		primaryStore: "br",
		window:       time.Minute,
		limit:        60,
		shopifyRPS:   2,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting curation service...")

	reg, err := registry.New(registry.WithPrimary(s.primaryStore))
	if err != nil {
		return err
	}
	s.reg = reg

	if s.kvStore == nil {
		redisStore := kv.NewRedis(s.redisAddr,
			kv.WithPassword(s.redisPassword),
			kv.WithDB(s.redisDB),
		)
		if err := redisStore.Ping(ctx); err != nil {
			return err
		}
		s.redis = redisStore
		s.kvStore = redisStore
		s.logger.Info(ctx, "backing store connected", logger.String("addr", s.redisAddr))
	}

	if s.resolver == nil && s.shopifyStore != "" {
		s.resolver = shopify.NewClient(s.shopifyStore, s.shopifyToken,
			shopify.WithRPS(s.shopifyRPS),
		)
	}

	catalogOpts := []catalog.Option{
		catalog.WithOverwriteOnDuplicate(s.overwrite),
		catalog.WithLogger(s.logger.Named("catalog")),
	}
	s.catalog = catalog.NewMain(s.kvStore, s.reg, catalogOpts...)
	quizOpts := append(catalogOpts, catalog.WithResolver(s.resolver))
	s.quiz = catalog.NewQuiz(s.kvStore, s.reg, quizOpts...)

	s.tracker = tracking.New(s.kvStore, s.reg,
		tracking.WithLogger(s.logger.Named("tracking")),
	)
	s.limiter = ratelimit.New(s.kvStore,
		ratelimit.WithWindow(s.window),
		ratelimit.WithLimit(s.limit),
	)

	s.started = true
	s.logger.Info(ctx, "curation service started",
		logger.String("primaryStore", s.primaryStore),
		logger.Int64("rateLimit", s.limit),
		logger.Bool("shopify", s.resolver != nil),
	)
	return nil
}

// Stop releases the service's resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.redis != nil {
		_ = s.redis.Close()
		s.redis = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "curation service stopped")
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Stores returns every configured store.
func (s *Service) Stores() []registry.Store {
	return s.reg.Stores()
}

// ResolveStore resolves a store id strictly.
func (s *Service) ResolveStore(id string) (registry.Store, error) {
	return s.reg.Resolve(id)
}

// ListCatalog returns the main catalog for a store.
func (s *Service) ListCatalog(ctx context.Context, storeID string) (catalog.Catalog, error) {
	return s.catalog.List(ctx, storeID)
}

// AddProduct adds a product to a main-catalog category.
func (s *Service) AddProduct(ctx context.Context, storeID, category string, p catalog.ProductRef) (catalog.Catalog, error) {
	return s.catalog.Add(ctx, storeID, category, p)
}

// RemoveProduct removes a handle from a main-catalog category.
func (s *Service) RemoveProduct(ctx context.Context, storeID, category, handle string) (catalog.Catalog, error) {
	return s.catalog.Remove(ctx, storeID, category, handle)
}

// ReorderCategory rebuilds a main-catalog category in the given order.
func (s *Service) ReorderCategory(ctx context.Context, storeID, category string, order []string) (catalog.Catalog, error) {
	return s.catalog.Reorder(ctx, storeID, category, order)
}

// ListQuiz returns the quiz catalog for a store.
func (s *Service) ListQuiz(ctx context.Context, storeID string) (catalog.Catalog, error) {
	return s.quiz.List(ctx, storeID)
}

// AddQuizProduct adds a product to a quiz category.
func (s *Service) AddQuizProduct(ctx context.Context, storeID, category string, p catalog.ProductRef) (catalog.Catalog, error) {
	return s.quiz.Add(ctx, storeID, category, p)
}

// RemoveQuizProduct removes a handle from a quiz category.
func (s *Service) RemoveQuizProduct(ctx context.Context, storeID, category, handle string) (catalog.Catalog, error) {
	return s.quiz.Remove(ctx, storeID, category, handle)
}

// ReorderQuizCategory rebuilds a quiz category in the given order.
func (s *Service) ReorderQuizCategory(ctx context.Context, storeID, category string, order []string) (catalog.Catalog, error) {
	return s.quiz.Reorder(ctx, storeID, category, order)
}

// SeedQuiz repopulates a store's quiz catalog from a curation table.
func (s *Service) SeedQuiz(ctx context.Context, storeID string, table catalog.CurationTable) (catalog.SeedResult, error) {
	return s.quiz.Seed(ctx, storeID, table)
}

// Record applies one engagement event.
func (s *Service) Record(ctx context.Context, storeID, event, handle, title string) error {
	return s.tracker.Record(ctx, storeID, event, handle, title)
}

// ReadStats returns the main-funnel counters for a store.
func (s *Service) ReadStats(ctx context.Context, storeID string) (tracking.Stats, error) {
	return s.tracker.ReadStats(ctx, storeID)
}

// ReadQuizStats returns the quiz-funnel counters for a store.
func (s *Service) ReadQuizStats(ctx context.Context, storeID string) (tracking.QuizStats, error) {
	return s.tracker.ReadQuizStats(ctx, storeID)
}

// Allow checks the tracking rate limit for a client address.
func (s *Service) Allow(ctx context.Context, addr string) (bool, error) {
	return s.limiter.Allow(ctx, addr)
}

// SearchProducts proxies the admin UI's product search to the resolver.
func (s *Service) SearchProducts(ctx context.Context, query, cursor string) (shopify.SearchPage, error) {
	if s.resolver == nil {
		return shopify.SearchPage{}, shopify.ErrUpstream
	}
	return s.resolver.SearchProducts(ctx, query, cursor)
}
