package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

// Query parses typed query parameters, collecting one detail per bad value.
type Query struct {
	r       *http.Request
	details []ErrorDetail
}

// NewQuery starts parsing r's query string.
func NewQuery(r *http.Request) *Query {
	return &Query{r: r}
}

func (q *Query) fail(name, msg, code string) {
	q.details = append(q.details, ErrorDetail{Message: msg, Code: code, In: name})
}

// String returns the raw value of name.
func (q *Query) String(name string) string {
	return q.r.URL.Query().Get(name)
}

// Int returns name as an int, or fallback when absent.
func (q *Query) Int(name string, fallback int) int {
	v := q.String(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.fail(name, name+" must be an integer", "INVALID_INTEGER")
		return fallback
	}
	return n
}

// Int64 returns name as a positive int64, or nil when absent.
func (q *Query) Int64(name string) *int64 {
	v := q.String(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		q.fail(name, name+" must be a positive integer", "INVALID_INTEGER")
		return nil
	}
	return &n
}

// Date returns name as a YYYY-MM-DD date, or nil when absent.
func (q *Query) Date(name string) *domain.Date {
	v := q.String(name)
	if v == "" {
		return nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		q.fail(name, err.Error(), "INVALID_DATE")
		return nil
	}
	return &d
}

// Decimal returns name as a decimal, or nil when absent.
func (q *Query) Decimal(name string) *decimal.Decimal {
	v := q.String(name)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		q.fail(name, name+" must be a number", "INVALID_NUMBER")
		return nil
	}
	return &d
}

// Stage returns name as a pipeline stage, or nil when absent.
func (q *Query) Stage(name string) *domain.Stage {
	v := q.String(name)
	if v == "" {
		return nil
	}
	s, err := domain.ParseStage(v)
	if err != nil {
		q.fail(name, err.Error(), "INVALID_STAGE")
		return nil
	}
	return &s
}

// MarketDataType reads an optional market data type.
func (q *Query) MarketDataType(name string) *domain.MarketDataType {
	v := q.String(name)
	if v == "" {
		return nil
	}
	t := domain.MarketDataType(v)
	if !t.Valid() {
		q.fail(name, name+" must be one of trend, competitor, news, sentiment", "INVALID_MARKET_DATA_TYPE")
		return nil
	}
	return &t
}

// Page reads limit and after (or its alias offset). Limit defaults to
// DefaultLimit and must lie in [1, MaxLimit].
func (q *Query) Page() Page {
	p := Page{Limit: q.Int("limit", DefaultLimit)}
	if q.String("after") != "" {
		p.Offset = q.Int("after", 0)
	} else {
		p.Offset = q.Int("offset", 0)
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		q.fail("limit", "limit must be between 1 and "+strconv.Itoa(MaxLimit), "INVALID_LIMIT")
		p.Limit = DefaultLimit
	}
	if p.Offset < 0 {
		q.fail("after", "after must not be negative", "INVALID_OFFSET")
		p.Offset = 0
	}
	return p
}

// Check writes a 400 response when any parameter failed to parse and
// reports whether the handler may continue.
func (q *Query) Check(w http.ResponseWriter) bool {
	if len(q.details) == 0 {
		return true
	}
	WriteError(w, http.StatusBadRequest,
		NewValidationError("Invalid query parameters", CorrelationID(q.r.Context()), q.details))
	return false
}

// PathID parses the named path value as a positive integer. On failure it
// writes a 400 response and returns false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v := r.PathValue(name)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, NewValidationError(
			"Invalid "+name, CorrelationID(r.Context()),
			[]ErrorDetail{{Message: name + " must be a positive integer", Code: "INVALID_INTEGER", In: name}}))
		return 0, false
	}
	return id, true
}
