package tracking

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/andipetruzz/modalrecomendacoes/pkg/metrics"
)

// ProductStat aggregates per-product engagement for one handle.
type ProductStat struct {
	Handle    string `json:"handle"`
	Title     string `json:"title"`
	Clicks    int64  `json:"clicks"`
	AddToCart int64  `json:"addToCart"`
}

// Stats is the lifetime view of the main recommendation funnel.
type Stats struct {
	Views     int64         `json:"views"`
	Clicks    int64         `json:"clicks"`
	AddToCart int64         `json:"addToCart"`
	Products  []ProductStat `json:"products"`
}

// QuizStats is the lifetime view of the quiz funnel.
type QuizStats struct {
	Starts         int64         `json:"starts"`
	Completions    int64         `json:"completions"`
	CompletionRate string        `json:"completionRate"`
	Products       []ProductStat `json:"products"`
}

// atoi parses a stored counter, treating anything unparsable as zero.
func atoi(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (a *Aggregator) getInt(ctx context.Context, key string, dest *int64) func() error {
	return func() error {
		raw, ok, err := a.kv.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			*dest = atoi(raw)
		}
		return nil
	}
}

func (a *Aggregator) getHash(ctx context.Context, key string, dest *map[string]string) func() error {
	return func() error {
		h, err := a.kv.HGetAll(ctx, key)
		if err != nil {
			return err
		}
		*dest = h
		return nil
	}
}

// joinProducts builds the per-product list from the click, add-to-cart, and
// title hashes. A handle present in either counter hash appears once;
// missing counters count as zero. Sorted descending by clicks, then by
// handle for a stable order.
func joinProducts(clicks, atc, titles map[string]string) []ProductStat {
	handles := make(map[string]bool, len(clicks)+len(atc))
	for h := range clicks {
		handles[h] = true
	}
	for h := range atc {
		handles[h] = true
	}

	products := make([]ProductStat, 0, len(handles))
	for h := range handles {
		title := titles[h]
		if title == "" {
			title = h
		}
		products = append(products, ProductStat{
			Handle:    h,
			Title:     title,
			Clicks:    atoi(clicks[h]),
			AddToCart: atoi(atc[h]),
		})
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Clicks != products[j].Clicks {
			return products[i].Clicks > products[j].Clicks
		}
		return products[i].Handle < products[j].Handle
	})
	return products
}

// ReadStats returns the lifetime main-funnel counters for a store.
func (a *Aggregator) ReadStats(ctx context.Context, storeID string) (Stats, error) {
	store, err := a.reg.Resolve(storeID)
	if err != nil {
		return Stats{}, err
	}
	prefix := store.StatsPrefix

	var stats Stats
	var clicks, atc, titles map[string]string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.getInt(gctx, prefix+":views", &stats.Views))
	g.Go(a.getInt(gctx, prefix+":clicks", &stats.Clicks))
	g.Go(a.getInt(gctx, prefix+":add_to_cart", &stats.AddToCart))
	g.Go(a.getHash(gctx, prefix+":product_clicks", &clicks))
	g.Go(a.getHash(gctx, prefix+":product_atc", &atc))
	g.Go(a.getHash(gctx, prefix+":product_titles", &titles))
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats.Products = joinProducts(clicks, atc, titles)
	metrics.RecordStatsRead()
	return stats, nil
}

// ReadQuizStats returns the lifetime quiz-funnel counters for a store.
// CompletionRate is completions/starts as a percentage with one decimal
// place, "0" when there are no starts.
func (a *Aggregator) ReadQuizStats(ctx context.Context, storeID string) (QuizStats, error) {
	store, err := a.reg.Resolve(storeID)
	if err != nil {
		return QuizStats{}, err
	}
	prefix := store.StatsPrefix

	var stats QuizStats
	var clicks, atc, titles map[string]string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.getInt(gctx, prefix+":quiz:starts", &stats.Starts))
	g.Go(a.getInt(gctx, prefix+":quiz:completions", &stats.Completions))
	g.Go(a.getHash(gctx, prefix+":quiz:product_clicks", &clicks))
	g.Go(a.getHash(gctx, prefix+":quiz:product_atc", &atc))
	g.Go(a.getHash(gctx, prefix+":quiz:product_titles", &titles))
	if err := g.Wait(); err != nil {
		return QuizStats{}, err
	}

	stats.CompletionRate = "0"
	if stats.Starts > 0 {
		stats.CompletionRate = fmt.Sprintf("%.1f", float64(stats.Completions)/float64(stats.Starts)*100)
	}
	stats.Products = joinProducts(clicks, atc, titles)
	metrics.RecordStatsRead()
	return stats, nil
}
