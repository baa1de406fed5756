// Package shopify is the product-resolution collaborator: it turns a product
// handle into display fields via the Admin GraphQL API, and backs the admin
// UI's product search.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultAPIVersion = "2024-01"

// Product is a denormalized snapshot of one product at resolution time.
type Product struct {
	Title     string
	Handle    string
	ImageURL  string
	Price     string
	Currency  string
	VariantID string
}

// SearchPage is one page of product search results.
type SearchPage struct {
	Products   []Product
	NextCursor string
	HasNext    bool
}

// Resolver is the lookup contract the catalog seeding path depends on.
type Resolver interface {
	ResolveByHandle(ctx context.Context, handle string) (Product, error)
	SearchProducts(ctx context.Context, query, cursor string) (SearchPage, error)
}

// Client calls the Shopify Admin GraphQL API.
type Client struct {
	httpClient *http.Client
	store      string
	token      string
	apiVersion string
	limiter    *rate.Limiter
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithAPIVersion overrides the Admin API version.
func WithAPIVersion(v string) Option {
	return func(cl *Client) {
		if v != "" {
			cl.apiVersion = v
		}
	}
}

// WithRPS caps outbound calls per second. Shopify throttles the Admin API,
// so bulk seeding must not fire unbounded requests.
func WithRPS(rps float64) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient builds a Client for the given shop domain and admin token.
func NewClient(store, token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		store:      store,
		token:      token,
		apiVersion: defaultAPIVersion,
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, data any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("shopify throttle: %w", err)
	}

	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	url := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.store, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrUpstream, envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return fmt.Errorf("%w: decode data: %w", ErrUpstream, err)
	}
	return nil
}

// productNode mirrors the GraphQL product shape shared by both queries.
type productNode struct {
	Title         string `json:"title"`
	Handle        string `json:"handle"`
	FeaturedImage *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	PriceRangeV2 struct {
		MinVariantPrice struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"minVariantPrice"`
	} `json:"priceRangeV2"`
	Variants struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	} `json:"variants"`
}

func (n productNode) toProduct() Product {
	p := Product{
		Title:    n.Title,
		Handle:   n.Handle,
		Price:    n.PriceRangeV2.MinVariantPrice.Amount,
		Currency: n.PriceRangeV2.MinVariantPrice.CurrencyCode,
	}
	if n.FeaturedImage != nil {
		p.ImageURL = n.FeaturedImage.URL
	}
	if len(n.Variants.Nodes) > 0 {
		p.VariantID = n.Variants.Nodes[0].ID
	}
	return p
}

const resolveQuery = `
query ($handle: String!) {
  productByHandle(handle: $handle) {
    title
    handle
    featuredImage { url }
    priceRangeV2 { minVariantPrice { amount, currencyCode } }
    variants(first: 1) { nodes { id } }
  }
}`

// ResolveByHandle looks up one product by its handle.
// Returns ErrNotFound when the shop has no such product.
func (c *Client) ResolveByHandle(ctx context.Context, handle string) (Product, error) {
	var data struct {
		ProductByHandle *productNode `json:"productByHandle"`
	}
	if err := c.graphql(ctx, resolveQuery, map[string]any{"handle": handle}, &data); err != nil {
		return Product{}, err
	}
	if data.ProductByHandle == nil {
		return Product{}, fmt.Errorf("%w: %q", ErrNotFound, handle)
	}
	return data.ProductByHandle.toProduct(), nil
}

const searchQuery = `
query ($first: Int!, $query: String, $cursor: String) {
  products(first: $first, query: $query, after: $cursor) {
    pageInfo { hasNextPage, endCursor }
    nodes {
      title
      handle
      featuredImage { url }
      priceRangeV2 { minVariantPrice { amount, currencyCode } }
      variants(first: 1) { nodes { id } }
    }
  }
}`

// SearchProducts returns up to 20 products matching query (title wildcard),
// continuing from cursor when supplied.
func (c *Client) SearchProducts(ctx context.Context, query, cursor string) (SearchPage, error) {
	variables := map[string]any{"first": 20}
	if query != "" {
		variables["query"] = fmt.Sprintf("title:*%s*", query)
	}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	var data struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []productNode `json:"nodes"`
		} `json:"products"`
	}
	if err := c.graphql(ctx, searchQuery, variables, &data); err != nil {
		return SearchPage{}, err
	}

	page := SearchPage{
		Products: make([]Product, 0, len(data.Products.Nodes)),
		HasNext:  data.Products.PageInfo.HasNextPage,
	}
	if page.HasNext {
		page.NextCursor = data.Products.PageInfo.EndCursor
	}
	for _, n := range data.Products.Nodes {
		page.Products = append(page.Products, n.toProduct())
	}
	return page, nil
}
