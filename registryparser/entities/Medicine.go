package entities

// Medicine is one record of the medicinal products registry as imported from the CSV feed.
// Identifier is unique across the store; every field except Identifier and Name may be empty.
type Medicine struct {
	Identifier          string    `json:"identifier"`
	Name                string    `json:"name"`
	CommonName          string    `json:"common_name"`
	PreparationType     string    `json:"preparation_type"`
	AdministrationRoute string    `json:"administration_route"`
	Strength            string    `json:"strength"`
	PharmaceuticalForm  string    `json:"pharmaceutical_form"`
	AtcCode             string    `json:"atc_code"`
	ResponsibleEntity   string    `json:"responsible_entity"`
	ActiveSubstance     string    `json:"active_substance"`
	Packaging           string    `json:"packaging"`
	Packages            []Package `json:"-"` // Pre-computed at import: one entry per packaging line
}

// ScoredMedicine is a fuzzy name search hit.
type ScoredMedicine struct {
	Medicine
	Similarity float64 `json:"similarity"`
}
