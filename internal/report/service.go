package report

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/logger"
	"github.com/sadopc/mymonth/internal/store"
)

// Repository is the read side of the record store.
type Repository interface {
	FetchRecords(from, to time.Time) ([]store.DailyRecord, error)
	FetchTarget(month time.Time) (*store.MonthlyTarget, error)
}

// Service computes reports from a Repository snapshot on every call.
type Service struct {
	repo Repository
	cfg  Config
	now  func() time.Time
}

func NewService(repo Repository, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

// SetClock replaces the clock used to decide "today".
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Config() Config {
	return s.cfg
}

// SetConfig swaps the domain configuration after validating it.
func (s *Service) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Today returns the service clock's current date at midnight UTC.
func (s *Service) Today() time.Time {
	return calendar.Day(s.now())
}

// MonthReport is everything the month view shows for one month.
type MonthReport struct {
	Month     time.Time
	Records   []store.DailyRecord
	Days      []DailyMetrics
	Target    *store.MonthlyTarget
	Scorecard Scorecard
}

// MonthReport loads, gap-fills and aggregates the month containing month,
// then reconciles it against the stored target up to the reference day.
func (s *Service) MonthReport(month time.Time) (*MonthReport, error) {
	today := s.Today()
	first, last := calendar.MonthBounds(month)

	records, err := s.repo.FetchRecords(first, last)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	target, err := s.repo.FetchTarget(first)
	if err != nil {
		return nil, fmt.Errorf("fetch target: %w", err)
	}

	filled := FillGaps(records, first, last)
	days, err := Aggregate(filled, s.cfg, today)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", calendar.MonthKey(first), err)
	}

	elapsed := calendar.ReferenceDay(first, last, today)
	sc, err := Reconcile(target, days, first, elapsed)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", calendar.MonthKey(first), err)
	}

	logger.Debug("month report", "month", calendar.MonthKey(first), "records", len(records), "elapsed", elapsed, "target", target != nil)
	return &MonthReport{
		Month:     first,
		Records:   filled,
		Days:      days,
		Target:    target,
		Scorecard: sc,
	}, nil
}

// History returns one summary per stored month from January 1st, years
// before ref's year, through the month before ref, followed by a to-date
// summary of ref's month that stops at today.
func (s *Service) History(ref time.Time, years int) ([]MonthlySummary, error) {
	today := s.Today()
	first, last := calendar.MonthBounds(ref)

	var past, current []MonthlySummary
	g := new(errgroup.Group)

	g.Go(func() error {
		from := calendar.Date(first.Year()-years, time.January, 1)
		to := first.AddDate(0, 0, -1)
		if to.Before(from) {
			return nil
		}
		records, err := s.repo.FetchRecords(from, to)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		days, err := Aggregate(fillStoredMonths(records), s.cfg, today)
		if err != nil {
			return fmt.Errorf("aggregate history: %w", err)
		}
		past = Rollup(days)
		return nil
	})

	g.Go(func() error {
		end := last
		if today.Before(end) {
			end = today
		}
		if end.Before(first) {
			return nil
		}
		records, err := s.repo.FetchRecords(first, end)
		if err != nil {
			return fmt.Errorf("fetch current month: %w", err)
		}
		days, err := Aggregate(FillGaps(records, first, end), s.cfg, today)
		if err != nil {
			return fmt.Errorf("aggregate current month: %w", err)
		}
		current = Rollup(days)
		for i := range current {
			current[i].ToDate = true
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("history", "ref", calendar.MonthKey(first), "months", len(past), "to_date", len(current) > 0)
	return append(past, current...), nil
}

// fillStoredMonths gap-fills every month that has at least one record, so
// each summarized month spans its full calendar length. Months without any
// stored record are left out.
func fillStoredMonths(records []store.DailyRecord) []store.DailyRecord {
	var out []store.DailyRecord
	for i := 0; i < len(records); {
		first, last := calendar.MonthBounds(records[i].Date)
		j := i
		for j < len(records) && calendar.SameMonth(records[j].Date, first) {
			j++
		}
		out = append(out, FillGaps(records[i:j], first, last)...)
		i = j
	}
	return out
}
