package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// DefaultLimit and MaxLimit bound list page sizes.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// WriteJSON marshals v as JSON and writes it to w with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

// Paging carries the cursor for the next page.
type Paging struct {
	Next *PagingNext `json:"next,omitempty"`
}

// PagingNext holds the cursor for the next page. For offset-paged listings
// After is the offset to request next.
type PagingNext struct {
	After string `json:"after"`
	Link  string `json:"link,omitempty"`
}

// CollectionResponse is a generic paginated list response.
type CollectionResponse struct {
	Results []any   `json:"results"`
	Total   int     `json:"total"`
	Paging  *Paging `json:"paging,omitempty"`
}

// Page is an offset and limit parsed from a request.
type Page struct {
	Offset int
	Limit  int
}

// Collection wraps one page of items. A next cursor is set when rows remain
// past this page.
func Collection[T any](items []T, total int, p Page) CollectionResponse {
	results := make([]any, len(items))
	for i, item := range items {
		results[i] = item
	}

	resp := CollectionResponse{Results: results, Total: total}
	if next := p.Offset + len(items); len(items) > 0 && next < total {
		resp.Paging = &Paging{Next: &PagingNext{After: strconv.Itoa(next)}}
	}
	return resp
}
