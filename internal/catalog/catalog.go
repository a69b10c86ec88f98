// Package catalog is the host-side product search the assistant's
// searchProducts tool drives.
package catalog

import (
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/tools"
)

// ResultsCache memoizes search results by normalized query.
type ResultsCache struct {
	*lru.Cache[string, []Product]
}

// NewResultsCache creates a ResultsCache holding up to size queries.
func NewResultsCache(size int) (*ResultsCache, error) {
	lruCache, err := lru.New[string, []Product](size)
	if err != nil {
		return nil, err
	}

	return &ResultsCache{Cache: lruCache}, nil
}

// Catalog searches a fixed product list.
type Catalog struct {
	products []Product
	cache    *ResultsCache
}

// New returns a Catalog over products.
func New(products []Product, cache *ResultsCache) *Catalog {
	return &Catalog{products: products, cache: cache}
}

// Search returns the products whose name or category contains query,
// ignoring case. An empty query matches everything.
func (c *Catalog) Search(query string) []Product {
	key := strings.ToLower(strings.TrimSpace(query))
	if c.cache != nil {
		if hit, ok := c.cache.Get(key); ok {
			return hit
		}
	}

	var out []Product
	for _, p := range c.products {
		if key == "" ||
			strings.Contains(strings.ToLower(p.Name), key) ||
			strings.Contains(strings.ToLower(p.Category), key) {
			out = append(out, p)
		}
	}

	if c.cache != nil {
		c.cache.Add(key, out)
	}

	return out
}

// NewSearchFunc returns the callback the tool executor invokes. Results are
// written to out the way the storefront would show them.
func NewSearchFunc(logger *zap.Logger, c *Catalog, out io.Writer) tools.SearchFunc {
	logger = logger.Named("catalog")

	return func(query string) {
		results := c.Search(query)
		logger.Info("Catalog search",
			zap.String("query", query),
			zap.Int("results", len(results)))

		if len(results) == 0 {
			fmt.Fprintf(out, "No products found for %q.\n", query)
			return
		}

		fmt.Fprintf(out, "Results for %q\n", query)
		for _, p := range results {
			fmt.Fprintf(out, "  %-22s %-11s $%6.2f  ★ %.1f (%d)\n", p.Name, p.Category, p.Price, p.Rating, p.Reviews)
		}
	}
}
