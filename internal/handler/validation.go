package handler

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/healthweb/planboard/internal/domain"
)

const calendarDateTag = "calendar_date"

// newValidator returns a validator reporting json field names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation(calendarDateTag, func(fl validator.FieldLevel) bool {
		_, err := parseCalendarTime(fl.Field().String(), time.UTC)
		return err == nil
	})
	return v
}

// parseCalendarTime accepts a date key or an RFC 3339 timestamp
func parseCalendarTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := domain.ParseDateKey(value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return t.In(loc), nil
}

// validationError renders validator errors as {"error": ..., "fields": {field: tag}}
func validationError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "this field is required"
		case calendarDateTag:
			fields[fe.Field()] = "must be YYYY-MM-DD or an RFC 3339 timestamp"
		default:
			fields[fe.Field()] = "failed on " + fe.Tag()
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Invalid request",
		"fields": fields,
	})
}
