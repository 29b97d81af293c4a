package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report field names by their JSON tag so errors line up with the request body.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("report_type", func(fl validator.FieldLevel) bool {
			return ReportType(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			return Severity(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("poll_choice", func(fl validator.FieldLevel) bool {
			return PollChoice(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("service_type", func(fl validator.FieldLevel) bool {
			return ServiceType(fl.Field().String()).IsValid()
		})

		validate = v
	})
	return validate
}

// Validate runs struct-tag validation and converts failures into field errors.
// A nil result means the value is valid.
func Validate(v interface{}) []FieldError {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from the namespace ("CreateReportRequest.location.address").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s characters or less", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", name, fe.Param())
	case "email":
		return "invalid email format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "report_type":
		return fmt.Sprintf("%s must be one of: %s", name, joinReportTypes())
	case "severity":
		return fmt.Sprintf("%s must be low, medium, or high", name)
	case "poll_choice":
		return fmt.Sprintf("%s must be stillThere, resolved, or fake", name)
	case "service_type":
		return fmt.Sprintf("%s must be ambulance, mechanic, fuel, or towing", name)
	case "latitude":
		return fmt.Sprintf("%s must be between -90 and 90", name)
	case "longitude":
		return fmt.Sprintf("%s must be between -180 and 180", name)
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}

func joinReportTypes() string {
	names := make([]string, 0, len(AllReportTypes))
	for _, t := range AllReportTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
