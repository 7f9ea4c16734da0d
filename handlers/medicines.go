package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/registry"
	"github.com/eskulia/eskulia-api/registryparser/entities"
	"github.com/eskulia/eskulia-api/trigram"
	"github.com/go-chi/chi/v5"
)

// ScanResponse is returned when the external registry knows the scanned code
type ScanResponse struct {
	Found bool                `json:"found"`
	Drug  entities.DrugDetail `json:"drug"`
}

// ScanMissResponse is returned with 404 when the code is unknown
type ScanMissResponse struct {
	Found          bool   `json:"found"`
	ScannedCode    string `json:"scanned_code"`
	IdentifiedType string `json:"identified_type"`
}

// UpdateResponse reports a finished import
type UpdateResponse struct {
	Status      string `json:"status"`
	Records     int    `json:"records"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// FindMedicineByName ranks medicines by trigram similarity to {name}
func (h *HTTPHandlerImpl) FindMedicineByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing medicine name")
		return
	}

	if err := h.validator.ValidateInput(name); err != nil {
		logging.Warn("Unusual user input", "name", name, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.medicines.SearchByName(r.Context(), name, trigram.DefaultThreshold)
	if err != nil {
		h.respondInternal(w, r, "search_by_name", err)
		return
	}
	if len(results) == 0 {
		h.RespondWithError(w, http.StatusNotFound, "Nie znaleziono leku o podanej nazwie.")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, results)
}

// FindMedicineByBarcode resolves {barcode} to a medicine and its matching packaging line
func (h *HTTPHandlerImpl) FindMedicineByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if err := h.validator.ValidateCode(barcode); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	match, err := h.medicines.FindByBarcode(r.Context(), barcode)
	if err != nil {
		h.respondStoreError(w, r, "find_by_barcode", "Nie znaleziono leku z podanym kodem kreskowym.", err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, match)
}

// FindMedicineByIdentifier returns the record with registry identifier {identifier}
func (h *HTTPHandlerImpl) FindMedicineByIdentifier(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if err := h.validator.ValidateCode(identifier); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	med, err := h.medicines.GetByIdentifier(r.Context(), identifier)
	if err != nil {
		h.respondStoreError(w, r, "get_by_identifier", "Medicine not found", err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, med)
}

// ScanCode looks a scanned code up in the live external registry.
// Every lookup failure is reported to the client as not found.
func (h *HTTPHandlerImpl) ScanCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Nie podano kodu")
		return
	}

	codeType := registry.IdentifyCodeType(code)
	miss := ScanMissResponse{Found: false, ScannedCode: code, IdentifiedType: codeType}

	if err := h.validator.ValidateCode(code); err != nil {
		logging.Warn("Unusual scanned code", "code", code, "error", err)
		h.RespondWithJSON(w, http.StatusNotFound, miss)
		return
	}
	if h.registry == nil {
		h.RespondWithJSON(w, http.StatusNotFound, miss)
		return
	}

	product, err := h.registry.SearchByCode(r.Context(), code)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logging.Warn("Registry lookup failed", "code", code, "error", err)
		}
		h.RespondWithJSON(w, http.StatusNotFound, miss)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, ScanResponse{
		Found: true,
		Drug:  entities.NewDrugDetail(product, entities.CodeInfo{Value: code, Type: codeType}),
	})
}

// UpdateMedicines runs the bulk import and answers once it has finished.
// A request arriving during a run waits for that run instead of starting another.
func (h *HTTPHandlerImpl) UpdateMedicines(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Import is not configured")
		return
	}

	if err := h.scheduler.RunImport(r.Context()); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logging.Info("Client left before import finished", "error", err)
			return
		case errors.Is(err, common.ErrUpstream), errors.Is(err, common.ErrEmptyDataset):
			logging.Error("Import failed", "error", err)
			h.RespondWithError(w, http.StatusBadGateway, "Registry feed unavailable, data was not changed")
		default:
			h.respondInternal(w, r, "import", err)
		}
		return
	}

	resp := UpdateResponse{Status: "completed"}
	if h.status != nil {
		resp.Records = h.status.GetRecordCount()
		if t := h.status.GetLastUpdated(); !t.IsZero() {
			resp.LastUpdated = t.UTC().Format(time.RFC3339)
		}
	}
	h.RespondWithJSON(w, http.StatusOK, resp)
}
