// Package data provides the in-memory registry store and the import status
// tracker. Both use atomic snapshots so readers never block an import.
package data

import (
	"sync/atomic"
	"time"

	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/registryparser/entities"
)

// Compile-time check to ensure Status implements ImportStatus
var _ interfaces.ImportStatus = (*Status)(nil)

// Status records the outcome of registry imports for health reporting.
type Status struct {
	lastUpdated     atomic.Value // time.Time
	lastReport      atomic.Pointer[entities.DataQualityReport]
	lastError       atomic.Value // string
	recordCount     atomic.Int64
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewStatus creates a Status with no import recorded yet
func NewStatus() *Status {
	s := &Status{}
	s.lastUpdated.Store(time.Time{})
	s.lastError.Store("")
	s.serverStartTime.Store(time.Time{})
	return s
}

// GetLastUpdated returns the time of the last successful import, zero if none
func (s *Status) GetLastUpdated() time.Time {
	if t, ok := s.lastUpdated.Load().(time.Time); ok {
		return t
	}
	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// SetLastUpdated seeds the timestamp, e.g. when the store already holds data at startup.
func (s *Status) SetLastUpdated(t time.Time, count int) {
	s.lastUpdated.Store(t)
	s.recordCount.Store(int64(count))
}

func (s *Status) GetRecordCount() int {
	return int(s.recordCount.Load())
}

// GetLastError returns the error of the last import, empty when it succeeded
func (s *Status) GetLastError() string {
	v, _ := s.lastError.Load().(string)
	return v
}

// LastReport returns the data quality report of the last successful import, or nil.
func (s *Status) LastReport() *entities.DataQualityReport {
	return s.lastReport.Load()
}

func (s *Status) SetServerStartTime(t time.Time) {
	s.serverStartTime.Store(t)
}

func (s *Status) GetServerStartTime() time.Time {
	if t, ok := s.serverStartTime.Load().(time.Time); ok {
		return t
	}
	return time.Time{}
}

// IsUpdating returns true while an import is running
func (s *Status) IsUpdating() bool {
	return s.updating.Load()
}

// BeginUpdate returns false if another import already holds the flag
func (s *Status) BeginUpdate() bool {
	return s.updating.CompareAndSwap(false, true)
}

func (s *Status) EndUpdate() {
	s.updating.Store(false)
}

// RecordSuccess stores the outcome of a completed import
func (s *Status) RecordSuccess(count int, report *entities.DataQualityReport) {
	s.recordCount.Store(int64(count))
	s.lastReport.Store(report)
	s.lastError.Store("")
	s.lastUpdated.Store(time.Now())
}

// RecordFailure keeps the previous data timestamp and remembers why the import failed
func (s *Status) RecordFailure(err error) {
	if err == nil {
		return
	}
	s.lastError.Store(err.Error())
}
