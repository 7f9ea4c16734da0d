// Package scheduler runs the registry CSV import on a daily schedule and on
// demand. Concurrent triggers share one run.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/metrics"
	"github.com/go-co-op/gocron"
	"golang.org/x/sync/singleflight"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const importKey = "registry-import"

// Options tune the import schedule
type Options struct {
	Schedule      string        // gocron At() times, "HH:MM[;HH:MM...]"
	Timeout       time.Duration // upper bound for one import run
	ImportOnStart bool
	Location      *time.Location
}

// Scheduler handles registry imports using dependency injection
type Scheduler struct {
	store     interfaces.MedicineStore
	parser    interfaces.Parser
	status    interfaces.ImportStatus
	opts      Options
	times     []time.Duration
	scheduler *gocron.Scheduler
	group     singleflight.Group
	done      chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(store interfaces.MedicineStore, parser interfaces.Parser, status interfaces.ImportStatus, opts Options) (*Scheduler, error) {
	times, err := ParseSchedule(opts.Schedule)
	if err != nil {
		return nil, err
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Scheduler{
		store:     store,
		parser:    parser,
		status:    status,
		opts:      opts,
		times:     times,
		scheduler: gocron.NewScheduler(opts.Location),
		done:      make(chan struct{}),
	}, nil
}

// Start registers the daily import and starts the staleness monitor.
// A failed initial import is logged; the server keeps serving the data it has.
func (s *Scheduler) Start() error {
	if s.opts.ImportOnStart {
		if err := s.RunImport(context.Background()); err != nil {
			logging.Error("Failed to perform initial data load", "error", err)
		}
	}

	_, err := s.scheduler.Every(1).Day().At(s.opts.Schedule).Do(func() {
		if err := s.RunImport(context.Background()); err != nil {
			logging.Error("Scheduled import failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	logging.Info("Import scheduler started", "schedule", s.opts.Schedule, "next_run", s.NextRun(time.Now()).Format(time.RFC3339))
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// RunImport runs one import now, or joins the run already in flight.
// The run itself is detached from ctx; ctx only bounds how long the caller waits.
func (s *Scheduler) RunImport(ctx context.Context) error {
	ch := s.group.DoChan(importKey, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		defer cancel()
		return nil, s.updateData(runCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logging.Debug("Joined in-flight import")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// updateData downloads, parses and swaps in a new record set.
// On any failure the previous data stays in place.
func (s *Scheduler) updateData(ctx context.Context) (err error) {
	if !s.status.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.status.EndUpdate()

	start := time.Now()
	records := 0
	defer func() {
		metrics.ObserveImport(start, records, err)
		if err != nil {
			s.status.RecordFailure(err)
		}
	}()

	logging.Info("Starting registry import", "started_at", start.Format(time.RFC3339))

	medicines, report, err := s.parser.ParseAllMedicines(ctx)
	if err != nil {
		logging.Error("Failed to parse registry feed", "error", err)
		return fmt.Errorf("failed to parse registry feed: %w", err)
	}

	if report != nil {
		if len(report.MissingColumns) > 0 {
			logging.Warn("Registry feed is missing columns", "columns", report.MissingColumns)
		}
		if len(report.DuplicateIdentifiers) > 0 {
			logging.Warn("Duplicate identifiers detected",
				"total", len(report.DuplicateIdentifiers),
				"identifier_list", report.DuplicateIdentifiers,
			)
		}
		if report.SkippedRows > 0 {
			logging.Warn("Rows skipped", "count", report.SkippedRows)
		}
	}

	if err := s.store.ReplaceAll(ctx, medicines); err != nil {
		logging.Error("Failed to replace registry records", "error", err)
		return fmt.Errorf("failed to replace registry records: %w", err)
	}

	records = len(medicines)
	s.status.RecordSuccess(records, report)
	logging.Info("Registry import completed", "duration", time.Since(start).String(), "medicine_count", records)
	return nil
}

// startHealthMonitoring warns when the data has not been refreshed for a day
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				lastUpdate := s.status.GetLastUpdated()
				if time.Since(lastUpdate) > 25*time.Hour {
					logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate)
				}
			}
		}
	}()
}

// NextRun returns the first scheduled import strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	return NextRun(now.In(s.opts.Location), s.times)
}

// ParseSchedule parses "HH:MM[;HH:MM...]" into sorted offsets from midnight
func ParseSchedule(schedule string) ([]time.Duration, error) {
	var times []time.Duration
	for _, part := range strings.Split(schedule, ";") {
		part = strings.TrimSpace(part)
		hh, mm, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid schedule time %q: expected HH:MM", part)
		}
		h, errH := strconv.Atoi(hh)
		m, errM := strconv.Atoi(mm)
		if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			return nil, fmt.Errorf("invalid schedule time %q", part)
		}
		times = append(times, time.Duration(h)*time.Hour+time.Duration(m)*time.Minute)
	}
	slices.Sort(times)
	return slices.Compact(times), nil
}

// NextRun returns the first of the daily times strictly after now, in now's location
func NextRun(now time.Time, times []time.Duration) time.Time {
	if len(times) == 0 {
		return time.Time{}
	}
	at := func(day time.Time, offset time.Duration) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(),
			int(offset/time.Hour), int(offset%time.Hour/time.Minute), 0, 0, now.Location())
	}
	for _, offset := range times {
		if t := at(now, offset); t.After(now) {
			return t
		}
	}
	return at(now.AddDate(0, 0, 1), times[0])
}
