package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

// validate is shared by every handler. Field names in errors use the JSON
// tag so they match the request body.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals compare as numbers in gte/lte rules.
	validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.InexactFloat64()
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("stage", func(fl validator.FieldLevel) bool {
		return domain.Stage(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("activity_type", func(fl validator.FieldLevel) bool {
		return domain.ActivityType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return domain.TaskStatus(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
		return domain.TaskPriority(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("market_data_type", func(fl validator.FieldLevel) bool {
		return domain.MarketDataType(fl.Field().String()).Valid()
	})
}

// Validate checks v's struct tags and returns one detail per failing field.
func Validate(v any) []ErrorDetail {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDetail{{Message: err.Error(), Code: "INVALID"}}
	}

	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ErrorDetail{
			Message: describe(fe),
			Code:    "INVALID_" + strings.ToUpper(fe.Tag()),
			In:      fe.Field(),
		})
	}
	return details
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "stage":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), joinStages())
	case "activity_type":
		return fmt.Sprintf("%s must be one of call, email, meeting, note, task", fe.Field())
	case "task_status":
		return fmt.Sprintf("%s must be one of pending, in_progress, completed, cancelled", fe.Field())
	case "task_priority":
		return fmt.Sprintf("%s must be one of low, medium, high, urgent", fe.Field())
	case "market_data_type":
		return fmt.Sprintf("%s must be one of trend, competitor, news, sentiment", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

func joinStages() string {
	names := make([]string, 0, len(domain.Stages()))
	for _, s := range domain.Stages() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// Decode reads a JSON body into v and validates it. On failure it writes a
// 400 response and returns false.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	corrID := CorrelationID(r.Context())

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		WriteError(w, http.StatusBadRequest, NewValidationError(msg, corrID,
			[]ErrorDetail{{Message: err.Error(), Code: "INVALID_JSON"}}))
		return false
	}

	if details := Validate(v); len(details) > 0 {
		WriteError(w, http.StatusBadRequest, NewValidationError("Invalid input", corrID, details))
		return false
	}
	return true
}
