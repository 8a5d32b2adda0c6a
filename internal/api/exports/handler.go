package exports

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/pipeline"
)

// dealHeader is the column order of a deal export.
var dealHeader = []string{
	"id", "title", "stage", "value", "currency", "probability",
	"expected_close_date", "actual_close_date",
	"contact_id", "company_id", "assigned_to", "created_at",
}

// Handler handles CSV export requests.
type Handler struct {
	engine *pipeline.Engine
}

// Deals handles GET /api/v1/deals/export. It accepts the stage and
// assigned_to filters of the deal listing and streams every match.
func (h *Handler) Deals(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	f := domain.DealFilter{
		Stage:      q.Stage("stage"),
		AssignedTo: q.Int64("assigned_to"),
	}
	if !q.Check(w) {
		return
	}

	deals, _, err := h.engine.List(r.Context(), f)
	if err != nil {
		api.WriteStoreError(w, r, err, "Deal not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="deals.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(dealHeader)
	for _, d := range deals {
		_ = cw.Write(dealRow(d))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("deal export interrupted")
		return
	}
	zerolog.Ctx(r.Context()).Debug().Int("rows", len(deals)).Msg("deal export written")
}

func dealRow(d *domain.Deal) []string {
	return []string{
		strconv.FormatInt(d.ID, 10),
		d.Title,
		string(d.Stage),
		d.Value.StringFixed(2),
		d.Currency,
		strconv.Itoa(d.Probability),
		date(d.ExpectedCloseDate),
		date(d.ActualCloseDate),
		id(d.ContactID),
		id(d.CompanyID),
		id(d.AssignedTo),
		d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func date(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func id(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
