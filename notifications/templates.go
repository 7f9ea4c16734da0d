// Package notifications renders templated push notifications and delivers
// them to device tokens through a Messenger.
package notifications

import (
	"fmt"
	"slices"
	"strings"

	"github.com/eskulia/eskulia-api/common"
)

// Notification types
const (
	TypeMessage     = "MESSAGE"
	TypeReminder    = "REMINDER"
	TypeAppointment = "APPOINTMENT"
	TypeSystem      = "SYSTEM"
	TypeAlert       = "ALERT"
)

// Template renders the title and body of one notification type.
type Template struct {
	Title          string
	Body           string
	RequiredFields []string
}

var templates = map[string]Template{
	TypeMessage: {
		Title:          "Nowa wiadomość od {sender_name}",
		Body:           "{message}",
		RequiredFields: []string{"sender_name", "message"},
	},
	TypeReminder: {
		Title:          "Przypomnienie: {title}",
		Body:           "{description}",
		RequiredFields: []string{"title", "description"},
	},
	TypeAppointment: {
		Title:          "Wizyta: {appointment_type}",
		Body:           "Data: {date} o {time}",
		RequiredFields: []string{"appointment_type", "date", "time"},
	},
	TypeSystem: {
		Title:          "Informacja systemowa",
		Body:           "{message}",
		RequiredFields: []string{"message"},
	},
	TypeAlert: {
		Title:          "⚠️ {alert_type}",
		Body:           "{message}",
		RequiredFields: []string{"alert_type", "message"},
	},
}

// Types returns the recognised notification types in alphabetical order.
func Types() []string {
	types := make([]string, 0, len(templates))
	for t := range templates {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Lookup returns the template for notificationType or an ErrInvalidType error.
func Lookup(notificationType string) (Template, error) {
	tmpl, ok := templates[notificationType]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q (available: %s)",
			common.ErrInvalidType, notificationType, strings.Join(Types(), ", "))
	}
	return tmpl, nil
}

// Validate reports every required field absent from content, in template order.
func (t Template) Validate(content map[string]any) error {
	var missing []string
	for _, field := range t.RequiredFields {
		if _, ok := content[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return common.NewMissingFieldsError(missing)
	}
	return nil
}

// Render validates content and fills both templates.
func (t Template) Render(content map[string]any) (title, body string, err error) {
	if err := t.Validate(content); err != nil {
		return "", "", err
	}
	if title, err = Render(t.Title, content); err != nil {
		return "", "", err
	}
	if body, err = Render(t.Body, content); err != nil {
		return "", "", err
	}
	return title, body, nil
}

// Render substitutes {field} placeholders with content values formatted with %v.
// "{{" and "}}" produce literal braces.
func Render(format string, content map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(format))

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(format[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed placeholder in %q", common.ErrValidation, format)
			}
			name := format[i+1 : i+1+end]
			value, ok := content[name]
			if !ok {
				return "", common.NewMissingFieldsError([]string{name})
			}
			fmt.Fprintf(&b, "%v", value)
			i += end + 1
		case c == '}':
			return "", fmt.Errorf("%w: single '}' in %q", common.ErrValidation, format)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
