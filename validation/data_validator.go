// Package validation checks path and query inputs and decoded request bodies.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/go-playground/validator/v10"
)

var (
	// Letters in any script (Polish diacritics included), digits and the punctuation found in product names
	inputRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+',/%()]+$`)

	// Barcodes, GTINs and registry identifiers
	codeRegex = regexp.MustCompile(`^[A-Za-z0-9\-/.]+$`)

	dangerousPatterns = []string{
		"<script", "javascript:", "vbscript:", "onerror=", "onload=",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "$(", "${", "`",
		"../", "..\\", "%2e%2e", "file://",
	}
)

const (
	maxInputLength = 100
	maxInputWords  = 8
	maxCodeLength  = 64
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput validates free-text search input such as a medicine name.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input cannot be empty")
	}

	// Short names are left to the similarity threshold
	if utf8.RuneCountInString(trimmed) > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	if len(strings.Fields(trimmed)) > maxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxInputWords)
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(trimmed) {
		return fmt.Errorf("input contains invalid characters")
	}

	if hasExcessiveRepetition(trimmed) {
		return fmt.Errorf("input contains excessive character repetition")
	}
	return nil
}

// ValidateCode validates barcodes, scanned codes and registry identifiers.
// Whitespace is never accepted, not even around the code.
func (v *DataValidatorImpl) ValidateCode(input string) error {
	if input == "" {
		return fmt.Errorf("code cannot be empty")
	}
	if len(input) > maxCodeLength {
		return fmt.Errorf("code too long: maximum %d characters", maxCodeLength)
	}
	if !codeRegex.MatchString(input) || strings.Contains(input, "..") {
		return fmt.Errorf("code contains invalid characters")
	}
	return nil
}

// ValidateStruct runs the `validate` tags of a decoded request body. Failures
// are returned as *common.ValidationError naming the JSON fields.
func (v *DataValidatorImpl) ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	fields := make([]string, 0, len(fieldErrs))
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
		messages = append(messages, translateError(fe))
	}
	return &common.ValidationError{Fields: fields, Message: strings.Join(messages, "; ")}
}

// getValidator returns the shared validator, reporting JSON field names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

func translateError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s long", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must contain at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

// hasExcessiveRepetition flags the same rune repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}
