package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ValidationError describes one rejected request field
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// EvaluateRequest is shared by the evaluate and backtest routes
type EvaluateRequest struct {
	Ticker string `param:"ticker" validate:"required,max=20"`
	Count  int    `query:"count" default:"200" validate:"gte=60,lte=500"`
}

type HistoryRequest struct {
	Ticker string `query:"ticker" validate:"max=20"`
	Kind   string `query:"kind" default:"evaluations" validate:"oneof=evaluations backtests"`
	Limit  int    `query:"limit" default:"20" validate:"gte=1,lte=50"`
}

// readAndValidate binds path and query params, fills defaults, then validates
func readAndValidate(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return []ValidationError{{Code: "ERR_BIND", Message: bindMessage(err)}}
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   strings.ToLower(fe.Field()),
				Message: message(fe),
			})
		}
		return out
	}

	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("%v", he.Message)
	}
	return err.Error()
}

func message(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
