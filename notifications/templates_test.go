package notifications

import (
	"errors"
	"strings"
	"testing"

	"github.com/eskulia/eskulia-api/common"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		content map[string]any
		want    string
	}{
		{"plain", "Informacja systemowa", nil, "Informacja systemowa"},
		{"single field", "Przypomnienie: {title}", map[string]any{"title": "Leki"}, "Przypomnienie: Leki"},
		{"numbers", "Data: {date} o {time}", map[string]any{"date": "2026-10-20", "time": float64(9)}, "Data: 2026-10-20 o 9"},
		{"escaped braces", "{{literal}} {x}", map[string]any{"x": "v"}, "{literal} v"},
		{"unicode around", "⚠️ {alert_type}", map[string]any{"alert_type": "Wycofanie"}, "⚠️ Wycofanie"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.format, tt.content)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	for _, format := range []string{"{unclosed", "stray }", "{missing}"} {
		if _, err := Render(format, map[string]any{}); !errors.Is(err, common.ErrValidation) {
			t.Errorf("Render(%q) expected ErrValidation, got %v", format, err)
		}
	}
}

func TestTypes(t *testing.T) {
	got := strings.Join(Types(), ",")
	if got != "ALERT,APPOINTMENT,MESSAGE,REMINDER,SYSTEM" {
		t.Errorf("Types() = %s", got)
	}
}

func TestLookup(t *testing.T) {
	if _, err := Lookup(TypeAlert); err != nil {
		t.Errorf("Lookup(ALERT): %v", err)
	}
	_, err := Lookup("message")
	if !errors.Is(err, common.ErrInvalidType) {
		t.Errorf("types are case sensitive, expected ErrInvalidType, got %v", err)
	}
}

func TestEveryTemplateRendersWithItsRequiredFields(t *testing.T) {
	for name, tmpl := range templates {
		content := map[string]any{}
		for _, f := range tmpl.RequiredFields {
			content[f] = "x"
		}
		if _, _, err := tmpl.Render(content); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
