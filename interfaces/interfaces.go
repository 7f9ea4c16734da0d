// Package interfaces defines core abstractions for the eskulia API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/eskulia/eskulia-api/registryparser/entities"
)

// MedicineStore defines the contract for the registry record store.
// ReplaceAll is the only writer; readers never lock.
type MedicineStore interface {
	// ReplaceAll atomically swaps the whole record set for medicines
	ReplaceAll(ctx context.Context, medicines []entities.Medicine) error

	// SearchByName ranks records by trigram similarity of their name, keeping scores > threshold
	SearchByName(ctx context.Context, name string, threshold float64) ([]entities.ScoredMedicine, error)

	// FindByBarcode returns the first record with a packaging line containing barcode
	FindByBarcode(ctx context.Context, barcode string) (entities.BarcodeMatch, error)

	GetByIdentifier(ctx context.Context, identifier string) (entities.Medicine, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// TokenStore defines the contract for device token persistence.
// Tokens are soft-deleted only.
type TokenStore interface {
	UpsertToken(ctx context.Context, ownerID int64, token string, platform entities.Platform) (entities.DeviceToken, error)
	DeactivateToken(ctx context.Context, ownerID int64, token string) error
	ActiveTokens(ctx context.Context, ownerIDs []int64) ([]entities.DeviceToken, error)
}

// ImportStatus tracks bulk import progress for health reporting.
type ImportStatus interface {
	GetLastUpdated() time.Time
	GetRecordCount() int
	GetLastError() string
	GetServerStartTime() time.Time
	IsUpdating() bool

	BeginUpdate() bool
	EndUpdate()
	RecordSuccess(count int, report *entities.DataQualityReport)
	RecordFailure(err error)
}

// Parser defines the contract for fetching and parsing the registry CSV feed.
type Parser interface {
	// ParseAllMedicines downloads the feed and maps it onto records
	ParseAllMedicines(ctx context.Context) ([]entities.Medicine, *entities.DataQualityReport, error)
}

// Scheduler defines the contract for import scheduling.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()

	// RunImport executes one import now; concurrent callers share the same run
	RunImport(ctx context.Context) error
}

// RegistryClient queries the live registry search API.
type RegistryClient interface {
	SearchByCode(ctx context.Context, code string) (entities.RegistryProduct, error)
}

// Dispatcher renders and delivers push notifications.
type Dispatcher interface {
	// Dispatch returns one result per token, in token order
	Dispatch(ctx context.Context, req entities.NotificationRequest) ([]entities.DeliveryResult, error)

	// Types lists the recognised notification types
	Types() []string
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	ScanCode(w http.ResponseWriter, r *http.Request)
	FindMedicineByName(w http.ResponseWriter, r *http.Request)
	FindMedicineByBarcode(w http.ResponseWriter, r *http.Request)
	FindMedicineByIdentifier(w http.ResponseWriter, r *http.Request)
	UpdateMedicines(w http.ResponseWriter, r *http.Request)
	SendNotification(w http.ResponseWriter, r *http.Request)
	UpdateToken(w http.ResponseWriter, r *http.Request)
	DeleteToken(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status label, details and HTTP status code
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled import time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for input validation.
type DataValidator interface {
	// ValidateInput validates free-text search input
	ValidateInput(input string) error

	// ValidateCode validates barcodes and product codes
	ValidateCode(input string) error

	// ValidateStruct validates a decoded request body
	ValidateStruct(v any) error
}
