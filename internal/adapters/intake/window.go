package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Window is the application period: Opening <= t < Deadline. A zero bound is
// open on that side.
type Window struct {
	Opening  time.Time
	Deadline time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Opening.IsZero() && t.Before(w.Opening) {
		return false
	}
	if !w.Deadline.IsZero() && !t.Before(w.Deadline) {
		return false
	}
	return true
}

// DefaultLotteryID names the lottery after the ISO week of now, e.g. 2020-W07.
func DefaultLotteryID(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// DefaultDeadline is today at hour:00 in now's location.
func DefaultDeadline(now time.Time, hour int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
}

// DefaultWindow ends at DefaultDeadline and opens period earlier.
func DefaultWindow(now time.Time, hour int, period time.Duration) Window {
	deadline := DefaultDeadline(now, hour)
	return Window{Opening: deadline.Add(-period), Deadline: deadline}
}

// SuggestApplications returns the first file in dir, by name, whose name
// contains "applications" in any case.
func SuggestApplications(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), "applications") {
			return filepath.Join(dir, n), true
		}
	}
	return "", false
}
