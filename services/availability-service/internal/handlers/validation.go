package handlers

import (
	"errors"
	"reflect"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Schedules are stored per minute, so seconds would be dropped silently.
	_ = v.RegisterValidation("time_of_day", func(fl validator.FieldLevel) bool {
		t, err := schedule.ParseTimeOfDay(fl.Field().String())
		return err == nil && t.Second == 0
	})
	_ = v.RegisterValidation("civil_date", func(fl validator.FieldLevel) bool {
		_, err := civil.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// validationMessage renders the failed fields as "field tag" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Namespace()
		if _, rest, ok := strings.Cut(msg, "."); ok {
			msg = rest
		}
		msg += " failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, ", ")
}
