package entities

// RegistryProduct is one entry of the live registry search API response.
// Field names follow the upstream JSON.
type RegistryProduct struct {
	MedicinalProductName        string `json:"medicinalProductName"`
	CommonName                  string `json:"commonName"`
	MedicinalProductPower       string `json:"medicinalProductPower"`
	PharmaceuticalFormName      string `json:"pharmaceuticalFormName"`
	SubjectMedicinalProductName string `json:"subjectMedicinalProductName"`
	RegistryNumber              string `json:"registryNumber"`
	ActiveSubstanceName         string `json:"activeSubstanceName"`
	AtcCode                     string `json:"atcCode"`
	ExpirationDateString        string `json:"expirationDateString"`
	ProcedureTypeName           string `json:"procedureTypeName"`
	SpecimenType                string `json:"specimenType"`
}

// RegistrySearchResponse is the paged envelope returned by the registry search API.
type RegistrySearchResponse struct {
	Content       []RegistryProduct `json:"content"`
	TotalElements int               `json:"totalElements"`
}

// CodeInfo describes the scanned code.
type CodeInfo struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// DrugDetail is the scan endpoint representation of a registry product.
type DrugDetail struct {
	Name                         string   `json:"name"`
	CommonName                   string   `json:"common_name"`
	Power                        string   `json:"power"`
	Form                         string   `json:"form"`
	PackageSize                  *string  `json:"package_size"` // Not provided by the registry API
	MarketingAuthorizationHolder string   `json:"marketing_authorization_holder"`
	MarketingAuthorizationNumber string   `json:"marketing_authorization_number"`
	ActiveSubstance              string   `json:"active_substance"`
	CodeInfo                     CodeInfo `json:"code_info"`
	AtcCode                      string   `json:"atc_code"`
	ExpirationDate               string   `json:"expiration_date"`
	ProcedureType                string   `json:"procedure_type"`
	SpecimenType                 string   `json:"specimen_type"`
}

// NewDrugDetail maps a registry product onto the scan response.
func NewDrugDetail(p RegistryProduct, code CodeInfo) DrugDetail {
	return DrugDetail{
		Name:                         p.MedicinalProductName,
		CommonName:                   p.CommonName,
		Power:                        p.MedicinalProductPower,
		Form:                         p.PharmaceuticalFormName,
		MarketingAuthorizationHolder: p.SubjectMedicinalProductName,
		MarketingAuthorizationNumber: p.RegistryNumber,
		ActiveSubstance:              p.ActiveSubstanceName,
		CodeInfo:                     code,
		AtcCode:                      p.AtcCode,
		ExpirationDate:               p.ExpirationDateString,
		ProcedureType:                p.ProcedureTypeName,
		SpecimenType:                 p.SpecimenType,
	}
}
