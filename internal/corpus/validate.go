package corpus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedRecord is returned (in strict mode) for records missing required fields.
var ErrMalformedRecord = errors.New("malformed record")

var validate = validator.New()

func validatePaper(p Paper) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: paper %q: %s", ErrMalformedRecord, p.PaperID, describe(err))
	}
	return nil
}

func validateCitation(c Citation) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: citation %s -> %q: %s", ErrMalformedRecord, c.Source, c.Target, describe(err))
	}
	return nil
}

// describe flattens validator field errors into "field: tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
