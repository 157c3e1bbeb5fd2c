package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"spendyfy/internal/core"
	"spendyfy/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// newValidator builds the request validator with english translations
// registered, so field errors come out as readable sentences.
func newValidator() (*validator.Validate, ut.Translator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	eng := en.New()
	uni := ut.New(eng, eng)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, nil, fmt.Errorf("english translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, nil, fmt.Errorf("register translations: %w", err)
	}
	return v, trans, nil
}

type expenseCreateRequest struct {
	Title         string     `json:"title" validate:"required,min=3,max=100"`
	Amount        core.Money `json:"amount"`
	Category      string     `json:"category" validate:"required,oneof=Food Transport Shopping Bills Entertainment Health Others"`
	Date          core.Date  `json:"date"`
	Description   string     `json:"description" validate:"max=500"`
	PaymentMethod string     `json:"paymentMethod" validate:"omitempty,oneof=Cash Card UPI 'Net Banking' Others"`
}

type expenseUpdateRequest struct {
	Title         *string     `json:"title" validate:"omitempty,min=3,max=100"`
	Amount        *core.Money `json:"amount"`
	Category      *string     `json:"category" validate:"omitempty,oneof=Food Transport Shopping Bills Entertainment Health Others"`
	Date          *core.Date  `json:"date"`
	Description   *string     `json:"description" validate:"omitempty,max=500"`
	PaymentMethod *string     `json:"paymentMethod" validate:"omitempty,oneof=Cash Card UPI 'Net Banking' Others"`
}

type profileUpdateRequest struct {
	FirstName     *string     `json:"firstName" validate:"omitempty,max=100"`
	LastName      *string     `json:"lastName" validate:"omitempty,max=100"`
	MonthlyBudget *core.Money `json:"monthlyBudget"`
	Categories    []string    `json:"categories" validate:"omitempty,min=1,dive,oneof=Food Transport Shopping Bills Entertainment Health Others"`
}

// decodeBody decodes a JSON body into dst, rejecting oversized payloads.
// Unknown fields are ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is empty")
		default:
			return fmt.Errorf("invalid request body: %w", err)
		}
	}
	return nil
}

// validateStruct runs the struct validation rules and translates any
// failures into per-field errors. The json tag name is reported, not
// the Go field name.
func (s *Server) validateStruct(v any) []fieldError {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{
			Field:   jsonFieldName(fe.Field()),
			Message: fe.Translate(s.translator),
		})
	}
	return out
}

// jsonFieldName lowercases the first rune so struct field names line up
// with their json tags.
func jsonFieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// parseListFilter reads the listing query parameters. Invalid values
// are reported all at once rather than first-failure-wins.
func parseListFilter(r *http.Request, userID string) (storage.ExpenseFilter, []fieldError) {
	q := r.URL.Query()
	var errs []fieldError

	f := storage.ExpenseFilter{
		UserID: userID,
		SortBy: "date",
		Order:  "desc",
		Page:   1,
		Limit:  10,
	}

	if raw := q.Get("category"); raw != "" {
		c := core.Category(raw)
		if !c.Valid() {
			errs = append(errs, fieldError{Field: "category", Message: "category is not a known category"})
		} else {
			f.Category = c
		}
	}

	rng, rangeErrs := parseDateRange(q.Get("startDate"), q.Get("endDate"))
	errs = append(errs, rangeErrs...)
	f.Range = rng

	if raw := q.Get("minAmount"); raw != "" {
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil || cents < 0 {
			errs = append(errs, fieldError{Field: "minAmount", Message: "minAmount must be a non-negative amount"})
		} else {
			f.MinCents = &cents
		}
	}
	if raw := q.Get("maxAmount"); raw != "" {
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil || cents < 0 {
			errs = append(errs, fieldError{Field: "maxAmount", Message: "maxAmount must be a non-negative amount"})
		} else {
			f.MaxCents = &cents
		}
	}
	if f.MinCents != nil && f.MaxCents != nil && *f.MinCents > *f.MaxCents {
		errs = append(errs, fieldError{Field: "minAmount", Message: "minAmount must not exceed maxAmount"})
	}

	if raw := q.Get("sortBy"); raw != "" {
		switch raw {
		case "date", "amount", "title", "category", "created_at":
			f.SortBy = raw
		default:
			errs = append(errs, fieldError{Field: "sortBy", Message: "sortBy must be one of date, amount, title, category, created_at"})
		}
	}
	if raw := q.Get("order"); raw != "" {
		switch raw {
		case "asc", "desc":
			f.Order = raw
		default:
			errs = append(errs, fieldError{Field: "order", Message: "order must be asc or desc"})
		}
	}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, fieldError{Field: "page", Message: "page must be a positive integer"})
		} else {
			f.Page = n
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			errs = append(errs, fieldError{Field: "limit", Message: "limit must be between 1 and 100"})
		} else {
			f.Limit = n
		}
	}

	return f, errs
}

// parseDateRange reads optional ISO date bounds, requiring start <= end
// when both are present.
func parseDateRange(start, end string) (storage.DateRange, []fieldError) {
	var r storage.DateRange
	var errs []fieldError

	if start != "" {
		d, err := core.ParseDate(start)
		if err != nil {
			errs = append(errs, fieldError{Field: "startDate", Message: "startDate must be an ISO date (YYYY-MM-DD)"})
		} else {
			r.Start = d
		}
	}
	if end != "" {
		d, err := core.ParseDate(end)
		if err != nil {
			errs = append(errs, fieldError{Field: "endDate", Message: "endDate must be an ISO date (YYYY-MM-DD)"})
		} else {
			r.End = d
		}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		errs = append(errs, fieldError{Field: "endDate", Message: "endDate must not be before startDate"})
	}
	return r, errs
}

// parseLimit reads a bounded integer query parameter with a default.
func parseLimit(raw string, def, min, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}
	return n, nil
}
