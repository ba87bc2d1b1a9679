package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator with the service desk tags registered:
//
//	username         letters, digits, dot, underscore, dash
//	ticket_status    a known domain.TicketStatus
//	ticket_priority  a known domain.TicketPriority
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("ticket_status", func(fl validator.FieldLevel) bool {
		return domain.TicketStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("ticket_priority", func(fl validator.FieldLevel) bool {
		return domain.TicketPriority(fl.Field().String()).Valid()
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. All field failures are
// joined into one message.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// jsonName reports fields by their payload name.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "username":
		return field + " may only contain letters, digits, '.', '_' and '-'"
	case "ticket_status":
		return field + " must be one of: open, in-progress, resolved, closed"
	case "ticket_priority":
		return field + " must be one of: low, medium, high, critical"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
