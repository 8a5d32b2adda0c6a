package imports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

// maxUploadBytes caps the multipart body.
const maxUploadBytes = 10 << 20

// Handler handles CSV import requests.
type Handler struct {
	store *store.Store
}

// RowError describes a CSV line that was not imported. Line is 1-based and
// counts the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Result summarises an import.
type Result struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	IDs      []int64    `json:"ids"`
	Errors   []RowError `json:"errors"`
}

// Contacts handles POST /api/v1/contacts/import. The multipart field "file"
// holds a CSV with a header row; unknown columns are ignored. Rows are
// imported independently so one bad line does not abort the rest.
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("CSV file is required", corrID, nil))
		return
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Failed to read CSV header", corrID, nil))
		return
	}
	cols := columns(header)
	if _, ok := cols["first_name"]; !ok {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("CSV header must include first_name and last_name", corrID, nil))
		return
	}
	if _, ok := cols["last_name"]; !ok {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("CSV header must include first_name and last_name", corrID, nil))
		return
	}

	res := Result{IDs: []int64{}, Errors: []RowError{}}
	actor := api.ActorID(r.Context())
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.fail(line, err.Error())
			continue
		}

		in, err := contactInput(cols, record)
		if err != nil {
			res.fail(line, err.Error())
			continue
		}
		if details := api.Validate(in); len(details) > 0 {
			res.fail(line, details[0].Message)
			continue
		}
		if in.CompanyID != nil {
			if _, err := h.store.Companies.Get(r.Context(), *in.CompanyID); err != nil {
				res.fail(line, fmt.Sprintf("company_id %d does not exist", *in.CompanyID))
				continue
			}
		}

		c, err := h.store.Contacts.Create(r.Context(), &domain.Contact{
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			Email:          in.Email,
			Phone:          in.Phone,
			JobTitle:       in.JobTitle,
			CompanyID:      in.CompanyID,
			Tags:           in.Tags,
			LeadSource:     in.LeadSource,
			LifecycleStage: in.LifecycleStage,
			CreatedBy:      actor,
		})
		if err != nil {
			res.fail(line, err.Error())
			continue
		}
		res.Imported++
		res.IDs = append(res.IDs, c.ID)
	}

	zerolog.Ctx(r.Context()).Info().
		Int("imported", res.Imported).
		Int("failed", res.Failed).
		Msg("contact import finished")

	api.WriteJSON(w, http.StatusOK, res)
}

func (res *Result) fail(line int, msg string) {
	res.Failed++
	res.Errors = append(res.Errors, RowError{Line: line, Message: msg})
}

// columns maps normalised header names to their index.
func columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[name] = i
	}
	return cols
}

func contactInput(cols map[string]int, record []string) (domain.ContactInput, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	in := domain.ContactInput{
		FirstName:      get("first_name"),
		LastName:       get("last_name"),
		Email:          get("email"),
		Phone:          get("phone"),
		JobTitle:       get("job_title"),
		LeadSource:     get("lead_source"),
		LifecycleStage: get("lifecycle_stage"),
	}
	if v := get("company_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return in, fmt.Errorf("invalid company_id %q", v)
		}
		in.CompanyID = &id
	}
	// Tags are semicolon separated inside one cell.
	for _, tag := range strings.Split(get("tags"), ";") {
		if tag = strings.TrimSpace(tag); tag != "" {
			in.Tags = append(in.Tags, tag)
		}
	}
	return in, nil
}
