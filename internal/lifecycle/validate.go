package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/model"
)

// newValidator builds the validator used for command structs. Field names in
// messages follow the json tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"equipment_status": func(fl validator.FieldLevel) bool {
			return model.EquipmentStatus(fl.Field().String()).Valid()
		},
		"maintenance_status": func(fl validator.FieldLevel) bool {
			return model.MaintenanceStatus(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	return v
}

// check validates cmd and converts failures into one validation error.
func (c *Coordinator) check(op string, cmd any) error {
	err := c.validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation(op, "%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "notblank", "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "equipment_status", "maintenance_status":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a valid status", fe.Field(), fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return apperr.Validation(op, "%s", strings.Join(msgs, "; "))
}
