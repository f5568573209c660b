// Package browse holds the storefront listing state: the selected category,
// the search text, the sort and the current page. Search and sort only see
// the page that was fetched, never the whole catalog.
package browse

import (
	"fmt"
	"sort"
	"strings"

	"storefront/client"
	"storefront/models"
)

const (
	AllCategories = "all"
	PageSize      = 12
	RelatedLimit  = 4

	SortByName  = "name"
	SortByPrice = "price"
	OrderAsc    = "asc"
	OrderDesc   = "desc"
)

type State struct {
	Category string
	Search   string
	SortBy   string
	Order    string
	Page     int
}

// New returns the initial state: all categories, sorted by name ascending,
// on the first page.
func New() *State {
	return &State{Category: AllCategories, SortBy: SortByName, Order: OrderAsc, Page: 1}
}

// SetCategory switches the category filter and goes back to the first page.
func (s *State) SetCategory(categoryID string) {
	if categoryID == "" {
		categoryID = AllCategories
	}
	s.Category = categoryID
	s.Page = 1
}

func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}

func (s *State) SetSort(sortBy, order string) error {
	switch sortBy {
	case SortByName, SortByPrice:
	default:
		return fmt.Errorf("unknown sort key %q", sortBy)
	}
	switch order {
	case OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("unknown sort order %q", order)
	}
	s.SortBy = sortBy
	s.Order = order
	return nil
}

// Params is the list query for the current state.
func (s *State) Params() client.ListParams {
	page := s.Page
	if page < 1 {
		page = 1
	}
	params := client.ListParams{Page: page, Limit: PageSize}
	if s.Category != "" && s.Category != AllCategories {
		params.CategoryID = s.Category
	}
	return params
}

// Apply filters the fetched page by the search text and sorts it. The input
// slice is left untouched.
func (s *State) Apply(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	term := strings.ToLower(s.Search)
	for _, p := range products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}

	desc := s.Order == OrderDesc
	sort.SliceStable(out, func(i, j int) bool {
		var less, greater bool
		if s.SortBy == SortByPrice {
			less, greater = out[i].Price < out[j].Price, out[i].Price > out[j].Price
		} else {
			a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
			less, greater = a < b, a > b
		}
		if desc {
			return greater
		}
		return less
	})
	return out
}

// RelatedParams is the query used to fetch related products from the
// product's own category.
func RelatedParams() client.ListParams {
	return client.ListParams{Limit: RelatedLimit}
}

// Related drops currentID from a related-products page.
func Related(products []models.Product, currentID string) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.ID != currentID {
			out = append(out, p)
		}
	}
	return out
}
