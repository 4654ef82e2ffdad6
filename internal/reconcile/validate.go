package reconcile

import (
	"errors"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// checkKey validates the natural key tags of an input record.
func checkKey(record any) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		missing := make([]string, 0, len(errs))
		for _, fe := range errs {
			missing = append(missing, fe.Field())
		}
		return pkgerrors.New(pkgerrors.CodeMissingKey, "missing "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"fields": missing})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validate record")
}
