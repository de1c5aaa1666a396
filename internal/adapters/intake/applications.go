package intake

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jaykayes/lottery-script/internal/domain/model"
	"golang.org/x/text/unicode/norm"
)

// Application form columns.
const (
	ColTimestamp = "Timestamp"
	ColUsername  = "Username"
)

// PoolColumn names the form column that lists the ids wanted from a pool.
type PoolColumn struct {
	Pool   model.Pool
	Column string
}

// Form describes the application form export.
type Form struct {
	Pools    []PoolColumn
	Layouts  []string       // timestamp layouts, tried in order
	Location *time.Location // nil means time.Local
}

// Problem is an application row, or part of one, that could not be used.
type Problem struct {
	Row      int
	Identity string
	Pool     model.Pool // empty for whole-row problems
	Value    string
	Reason   string
}

func (p Problem) String() string {
	if p.Pool == "" {
		return fmt.Sprintf("row %d %q: %s (%q)", p.Row, p.Identity, p.Reason, p.Value)
	}
	return fmt.Sprintf("row %d %q, %s: %s (%q)", p.Row, p.Identity, p.Pool, p.Reason, p.Value)
}

// Problem reasons.
const (
	ReasonNoName       = "missing name"
	ReasonBadTimestamp = "unreadable timestamp"
	ReasonBadList      = "unreadable item list"
	ReasonWrongPool    = "item not in pool"
)

// ReadApplications parses the form export. Rows without a name or with an
// unreadable timestamp are dropped; an unreadable id list drops only that
// pool's requests. Ids the catalog places in another pool are dropped. Every
// applicant starts ineligible; see Prepare.
func ReadApplications(r io.Reader, catalog model.Catalog, form Form) ([]model.Applicant, []Problem, error) {
	h, records, err := rows(r, ErrMalformedApplications)
	if err != nil {
		return nil, nil, err
	}
	cols := []string{ColTimestamp, ColName}
	for _, pc := range form.Pools {
		cols = append(cols, pc.Column)
	}
	if err := h.require(ErrMalformedApplications, cols...); err != nil {
		return nil, nil, err
	}

	loc := form.Location
	if loc == nil {
		loc = time.Local
	}

	var (
		applicants []model.Applicant
		problems   []Problem
	)
	for i, rec := range records {
		row := i + 2
		identity := NormalizeName(h.get(rec, ColName))
		if identity == "" {
			if !blank(rec) {
				problems = append(problems, Problem{Row: row, Reason: ReasonNoName})
			}
			continue
		}

		raw := h.get(rec, ColTimestamp)
		ts, err := parseTimestamp(raw, form.Layouts, loc)
		if err != nil {
			problems = append(problems, Problem{Row: row, Identity: identity, Value: raw, Reason: ReasonBadTimestamp})
			continue
		}

		a := model.Applicant{
			Identity:  identity,
			Username:  strings.TrimSpace(h.get(rec, ColUsername)),
			Submitted: ts,
		}
		for _, pc := range form.Pools {
			value := h.get(rec, pc.Column)
			ids, err := ParseIDs(value)
			if err != nil {
				problems = append(problems, Problem{Row: row, Identity: identity, Pool: pc.Pool, Value: value, Reason: ReasonBadList})
				continue
			}
			for _, id := range ids {
				if it, ok := catalog.Get(id); ok && it.Pool != pc.Pool {
					problems = append(problems, Problem{Row: row, Identity: identity, Pool: pc.Pool, Value: strconv.Itoa(id), Reason: ReasonWrongPool})
					continue
				}
				a.Requested = append(a.Requested, id)
			}
		}
		applicants = append(applicants, a)
	}
	return applicants, problems, nil
}

// ReadApplicationsFile reads the form export at path.
func ReadApplicationsFile(path string, catalog model.Catalog, form Form) ([]model.Applicant, []Problem, error) {
	type result struct {
		applicants []model.Applicant
		problems   []Problem
	}
	res, err := withFile(path, func(r io.Reader) (result, error) {
		a, p, err := ReadApplications(r, catalog, form)
		return result{a, p}, err
	})
	return res.applicants, res.problems, err
}

// ParseIDs reads a free-text id list such as "12, 14, 3,". Trailing commas
// and spaces are ignored; any other unreadable part rejects the whole list.
// Empty input is an empty list.
func ParseIDs(s string) ([]int, error) {
	s = strings.TrimRight(strings.TrimSpace(s), ", ")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("id list %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NormalizeName trims, collapses inner whitespace and applies Unicode NFC so
// that the same name typed on different devices compares equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func parseTimestamp(s string, layouts []string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q matches no layout", s)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
