package tools

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report offending fields by their JSON names, the model never sees Go names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// UnmarshalInput parses the raw tool call arguments into the typed request
// and validates it. Malformed JSON returns ErrFailedUnmarshalInput, a schema
// violation returns ErrInvalidInput naming the offending field.
func UnmarshalInput[T any](input string, req *T) error {
	err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), req)
	if err != nil {
		return errors.WithStack(chatmodel.ErrFailedUnmarshalInput)
	}
	return ValidateInput(req)
}

// ValidateInput checks the parsed request against its validate tags.
func ValidateInput(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verr validator.ValidationErrors
	if errors.As(err, &verr) && len(verr) > 0 {
		f := verr[0]
		return errors.WithMessagef(ErrInvalidInput, "field %q failed on %q", f.Field(), f.Tag())
	}
	return errors.WithMessage(ErrInvalidInput, err.Error())
}
