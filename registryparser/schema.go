package registryparser

import (
	"strings"
	"unicode"

	"github.com/eskulia/eskulia-api/registryparser/entities"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// column maps one Medicine field to the header names the registry has used for it.
type column struct {
	field    string
	aliases  []string
	required bool
	set      func(m *entities.Medicine, v string)
}

var schema = []column{
	{"identifier", []string{"identyfikator", "identyfikator_produktu_leczniczego"}, true,
		func(m *entities.Medicine, v string) { m.Identifier = v }},
	{"name", []string{"nazwa", "nazwa_produktu_leczniczego"}, true,
		func(m *entities.Medicine, v string) { m.Name = v }},
	{"common_name", []string{"nazwa_powszechna", "nazwa_powszechnie_stosowana"}, false,
		func(m *entities.Medicine, v string) { m.CommonName = v }},
	{"preparation_type", []string{"rodzaj_preparatu"}, false,
		func(m *entities.Medicine, v string) { m.PreparationType = v }},
	{"administration_route", []string{"droga_podania", "droga_podania_gatunek_tkanka_okres_karencji"}, false,
		func(m *entities.Medicine, v string) { m.AdministrationRoute = v }},
	{"strength", []string{"moc"}, false,
		func(m *entities.Medicine, v string) { m.Strength = v }},
	{"pharmaceutical_form", []string{"postac_farmaceutyczna"}, false,
		func(m *entities.Medicine, v string) { m.PharmaceuticalForm = v }},
	{"atc_code", []string{"kod_atc"}, false,
		func(m *entities.Medicine, v string) { m.AtcCode = v }},
	{"responsible_entity", []string{"podmiot_odpowiedzialny"}, false,
		func(m *entities.Medicine, v string) { m.ResponsibleEntity = v }},
	{"active_substance", []string{"substancja_czynna"}, false,
		func(m *entities.Medicine, v string) { m.ActiveSubstance = v }},
	{"packaging", []string{"opakowanie", "opakowania"}, false,
		func(m *entities.Medicine, v string) { m.Packaging = v }},
}

// normalizeHeader turns "Nazwa Powszechnie Stosowana" or "Postać farmaceutyczna"
// into "nazwa_powszechnie_stosowana" / "postac_farmaceutyczna".
func normalizeHeader(h string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), h)
	if err != nil {
		stripped = h
	}
	// ł has no decomposition
	stripped = strings.NewReplacer("ł", "l", "Ł", "L").Replace(stripped)

	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(stripped)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// columnBinding is a resolved schema column: the index in the current header, or -1.
type columnBinding struct {
	column
	index int
}

// bindHeader resolves every schema column against the header row and returns the
// fields that could not be found.
func bindHeader(header []string) ([]columnBinding, []string) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	bindings := make([]columnBinding, 0, len(schema))
	var missing []string
	for _, col := range schema {
		b := columnBinding{column: col, index: -1}
		for _, alias := range col.aliases {
			if idx, ok := positions[alias]; ok {
				b.index = idx
				break
			}
		}
		if b.index < 0 {
			missing = append(missing, col.field)
		}
		bindings = append(bindings, b)
	}
	return bindings, missing
}
