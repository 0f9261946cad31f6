package domain

import "time"

// ReportingWindow is the half-open period [Start, End) a return describes.
type ReportingWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewReportingWindow validates and returns a window.
func NewReportingWindow(start, end time.Time) (ReportingWindow, error) {
	w := ReportingWindow{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return ReportingWindow{}, err
	}
	return w, nil
}

// Validate rejects windows whose start is not strictly before their end.
func (w ReportingWindow) Validate() error {
	if !w.Start.Before(w.End) {
		return OutOfWindowSnapshotError{Start: w.Start, End: w.End}
	}
	return nil
}

// Contains reports whether t lies in [Start, End).
func (w ReportingWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StrictlyContains reports whether t lies in (Start, End).
func (w ReportingWindow) StrictlyContains(t time.Time) bool {
	return t.After(w.Start) && t.Before(w.End)
}
