package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidCycle = errors.New("invalid cycle")
	ErrInvalidDate  = errors.New("invalid date")
)

// ValidCycles are the GFS forecast cycles (UTC hours).
var ValidCycles = []int{0, 6, 12, 18}

const DateLayout = "20060102"

var acceptedDateLayouts = []string{DateLayout, "2006-01-02", "01/02/2006"}

// ProcessingRequest is one (cycle, date) submission. It is immutable once built.
type ProcessingRequest struct {
	cycle int
	date  time.Time
}

// NewProcessingRequest validates raw operator input.
func NewProcessingRequest(cycle, date string) (ProcessingRequest, error) {
	c, err := ParseCycle(cycle)
	if err != nil {
		return ProcessingRequest{}, err
	}

	d, err := ParseDate(date)
	if err != nil {
		return ProcessingRequest{}, err
	}

	return ProcessingRequest{cycle: c, date: d}, nil
}

func ParseCycle(raw string) (int, error) {
	c, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w %q: must be one of %v", ErrInvalidCycle, raw, ValidCycles)
	}
	if !IsValidCycle(c) {
		return 0, fmt.Errorf("%w %d: must be one of %v", ErrInvalidCycle, c, ValidCycles)
	}
	return c, nil
}

func IsValidCycle(c int) bool {
	for _, v := range ValidCycles {
		if v == c {
			return true
		}
	}
	return false
}

// ParseDate resolves YYYYMMDD, YYYY-MM-DD or MM/DD/YYYY to a calendar day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range acceptedDateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q: expected YYYYMMDD", ErrInvalidDate, raw)
}

func (r ProcessingRequest) Cycle() int { return r.cycle }

func (r ProcessingRequest) Date() time.Time { return r.date }

// DateString formats the date as YYYYMMDD.
func (r ProcessingRequest) DateString() string { return r.date.Format(DateLayout) }

func (r ProcessingRequest) Parameters() Parameters {
	return Parameters{Date: r.DateString(), Cycle: r.cycle}
}

func (r ProcessingRequest) String() string {
	return fmt.Sprintf("%s/%02dz", r.DateString(), r.cycle)
}

// LatestCycle returns the most recent cycle whose data is expected to be
// available at now, given the publication delay.
func LatestCycle(now time.Time, delay time.Duration) ProcessingRequest {
	t := now.UTC().Add(-delay)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return ProcessingRequest{cycle: (t.Hour() / 6) * 6, date: day}
}
