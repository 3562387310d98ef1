package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Item is one sellable catalog entry. Prices are in RP.
type Item struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	PriceRP  int    `json:"price_rp"`
	ImageURL string `json:"image_url,omitempty"`
}

const PageSize = 5

// Catalog serves read-only queries over the items loaded from the catalog
// file. Ingestion and updating of the file itself happen elsewhere.
type Catalog struct {
	items      []Item
	byID       map[int64]Item
	categories []string
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return New(items), nil
}

func New(items []Item) *Catalog {
	c := &Catalog{
		items: items,
		byID:  make(map[int64]Item, len(items)),
	}

	seen := make(map[string]bool)
	for _, item := range items {
		c.byID[item.ID] = item
		if item.Category != "" && !seen[item.Category] {
			seen[item.Category] = true
			c.categories = append(c.categories, item.Category)
		}
	}
	sort.Strings(c.categories)

	return c
}

func (c *Catalog) Categories() []string {
	return c.categories
}

func (c *Catalog) Get(id int64) (Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

func (c *Catalog) Size() int {
	return len(c.items)
}

// Page returns one page of a category plus the total page count. Pages are
// 1-based; out-of-range pages return an empty slice.
func (c *Catalog) Page(category string, page int) ([]Item, int) {
	var filtered []Item
	for _, item := range c.items {
		if item.Category == category {
			filtered = append(filtered, item)
		}
	}
	return paginate(filtered, page)
}

// Search finds items whose name contains the query, case-insensitive. An
// empty category searches the whole catalog.
func (c *Catalog) Search(category, query string, page int) ([]Item, int) {
	needle := strings.ToLower(strings.TrimSpace(query))
	var filtered []Item
	for _, item := range c.items {
		if category != "" && item.Category != category {
			continue
		}
		if strings.Contains(strings.ToLower(item.Name), needle) {
			filtered = append(filtered, item)
		}
	}
	return paginate(filtered, page)
}

func paginate(items []Item, page int) ([]Item, int) {
	totalPages := (len(items) + PageSize - 1) / PageSize
	if page < 1 || page > totalPages {
		return nil, totalPages
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
