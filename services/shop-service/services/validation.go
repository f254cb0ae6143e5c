package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
)

// Validator wraps validator/v10, reporting fields by their json name and
// messages by their label tag.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct returns a *apperrors.ValidationError listing every failing field, or nil.
func (val *Validator) Struct(ctx context.Context, s interface{}) error {
	err := val.v.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	typ := reflect.Indirect(reflect.ValueOf(s)).Type()
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe, label(typ, fe.StructField()))
	}
	return apperrors.NewValidationError(fields)
}

func label(typ reflect.Type, field string) string {
	if f, ok := typ.FieldByName(field); ok {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
	}
	return field
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required", "required_if":
		return label + " is required"
	case "gt":
		return label + " must be a positive number"
	case "email":
		return "Invalid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return label + " must be a date (YYYY-MM-DD)"
	default:
		return label + " is invalid"
	}
}

// remoteErr maps gateway failures onto the application taxonomy.
func remoteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrNotFound, err)
	default:
		return apperrors.Wrap(apperrors.ErrRemoteUnavailable, err)
	}
}
