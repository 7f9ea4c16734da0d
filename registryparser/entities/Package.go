package entities

import "strings"

// Package is a single package variant, i.e. one line of the packaging text.
type Package struct {
	Line        int    `json:"line"`
	Description string `json:"description"`
}

// SplitPackaging splits a packaging blob into its non-empty lines.
// Line numbers keep their position in the original text (1-based).
func SplitPackaging(packaging string) []Package {
	if packaging == "" {
		return nil
	}

	var packages []Package
	for i, line := range strings.Split(packaging, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		packages = append(packages, Package{Line: i + 1, Description: line})
	}
	return packages
}

// BarcodeMatch is the result of resolving a barcode: the medicine plus the packaging line holding it.
type BarcodeMatch struct {
	Name               string `json:"name"`
	CommonName         string `json:"common_name"`
	Strength           string `json:"strength"`
	PharmaceuticalForm string `json:"pharmaceutical_form"`
	PackagingDetails   string `json:"packaging_details"`
	ActiveSubstance    string `json:"active_substance"`
}

// NewBarcodeMatch builds the resolver response for a medicine and its matching package line.
func NewBarcodeMatch(m Medicine, line string) BarcodeMatch {
	return BarcodeMatch{
		Name:               m.Name,
		CommonName:         m.CommonName,
		Strength:           m.Strength,
		PharmaceuticalForm: m.PharmaceuticalForm,
		PackagingDetails:   line,
		ActiveSubstance:    m.ActiveSubstance,
	}
}
