package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/eskulia/eskulia-api/common"
)

func TestValidateInput(t *testing.T) {
	v := NewDataValidator()

	valid := []string{
		"apap",
		"Apap Extra",
		"Żółć",
		"Ibuprom Max 400 mg",
		"Vit. C + D3",
		"Nurofen (dla dzieci)",
		"5%",
		"a",
	}
	for _, in := range valid {
		if err := v.ValidateInput(in); err != nil {
			t.Errorf("ValidateInput(%q) unexpected error: %v", in, err)
		}
	}

	invalid := map[string]string{
		"empty":       "   ",
		"too long":    strings.Repeat("ab", 51),
		"too many":    "a b c d e f g h i",
		"script":      "<script>alert(1)</script>",
		"sql comment": "apap--",
		"traversal":   "../etc",
		"semicolon":   "apap;drop",
		"repetition":  "aaaaaaaaaaaaa",
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			if err := v.ValidateInput(in); err == nil {
				t.Errorf("ValidateInput(%q) expected error", in)
			}
		})
	}
}

func TestValidateCode(t *testing.T) {
	v := NewDataValidator()

	for _, code := range []string{"5909990733828", "100000001", "PL-123/45", "R.0001"} {
		if err := v.ValidateCode(code); err != nil {
			t.Errorf("ValidateCode(%q) unexpected error: %v", code, err)
		}
	}
	for _, code := range []string{"", " 5909990733828", "59 09", "abc;", "../x", strings.Repeat("1", 65)} {
		if err := v.ValidateCode(code); err == nil {
			t.Errorf("ValidateCode(%q) expected error", code)
		}
	}
}

type tokenBody struct {
	FCMToken   string `json:"fcm_token" validate:"required,max=255"`
	DeviceType string `json:"device_type" validate:"required,oneof=android ios web"`
}

func TestValidateStruct(t *testing.T) {
	v := NewDataValidator()

	if err := v.ValidateStruct(&tokenBody{FCMToken: "abc", DeviceType: "ios"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := v.ValidateStruct(&tokenBody{DeviceType: "windows"})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *common.ValidationError, got %T", err)
	}
	if strings.Join(verr.Fields, ",") != "fcm_token,device_type" {
		t.Errorf("Fields = %v", verr.Fields)
	}
	if !strings.Contains(verr.Message, "device_type must be one of: android, ios, web") {
		t.Errorf("Message = %q", verr.Message)
	}
}
