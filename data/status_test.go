package data

import (
	"errors"
	"testing"
	"time"

	"github.com/eskulia/eskulia-api/registryparser/entities"
)

func TestStatusUpdateFlag(t *testing.T) {
	s := NewStatus()

	if !s.BeginUpdate() {
		t.Fatal("first BeginUpdate should succeed")
	}
	if s.BeginUpdate() {
		t.Error("second BeginUpdate should fail while updating")
	}
	if !s.IsUpdating() {
		t.Error("IsUpdating should be true")
	}
	s.EndUpdate()
	if s.IsUpdating() {
		t.Error("IsUpdating should be false after EndUpdate")
	}
}

func TestStatusRecordOutcomes(t *testing.T) {
	s := NewStatus()

	if !s.GetLastUpdated().IsZero() {
		t.Error("new status should have zero last updated")
	}

	report := &entities.DataQualityReport{ImportedRecords: 10}
	s.RecordSuccess(10, report)
	updated := s.GetLastUpdated()
	if updated.IsZero() || s.GetRecordCount() != 10 || s.LastReport() != report {
		t.Errorf("success not recorded: %v %d", updated, s.GetRecordCount())
	}

	s.RecordFailure(errors.New("upstream transport error: status 503"))
	if s.GetLastError() == "" {
		t.Error("failure should be remembered")
	}
	if !s.GetLastUpdated().Equal(updated) || s.GetRecordCount() != 10 {
		t.Error("failure must keep the previous data timestamp and count")
	}

	s.RecordSuccess(11, nil)
	if s.GetLastError() != "" {
		t.Error("success should clear the last error")
	}
}

func TestStatusServerStartTime(t *testing.T) {
	s := NewStatus()
	now := time.Now()
	s.SetServerStartTime(now)
	if !s.GetServerStartTime().Equal(now) {
		t.Error("server start time not stored")
	}
}
