package intake

import (
	"io"
	"strings"
)

// ColEmail is the terms form e-mail column.
const ColEmail = "E-Mail"

// Terms holds who accepted the terms and conditions.
type Terms struct {
	names  map[string]struct{}
	emails map[string]struct{}
}

// ReadTerms parses the terms form export (Name and E-Mail columns).
func ReadTerms(r io.Reader) (*Terms, error) {
	h, records, err := rows(r, ErrMalformedTerms)
	if err != nil {
		return nil, err
	}
	if err := h.require(ErrMalformedTerms, ColName, ColEmail); err != nil {
		return nil, err
	}

	t := &Terms{names: make(map[string]struct{}), emails: make(map[string]struct{})}
	for _, rec := range records {
		if name := NormalizeName(h.get(rec, ColName)); name != "" {
			t.names[name] = struct{}{}
		}
		if email := strings.ToLower(h.get(rec, ColEmail)); email != "" {
			t.emails[email] = struct{}{}
		}
	}
	return t, nil
}

// ReadTermsFile reads the terms form export at path.
func ReadTermsFile(path string) (*Terms, error) {
	return withFile(path, ReadTerms)
}

// Accepted reports whether the applicant signed, matched by name or by the
// form username against the e-mail column. A nil Terms accepts everyone.
func (t *Terms) Accepted(identity, username string) bool {
	if t == nil {
		return true
	}
	if _, ok := t.names[identity]; ok {
		return true
	}
	if username == "" {
		return false
	}
	_, ok := t.emails[strings.ToLower(username)]
	return ok
}

// Len returns the number of signed names.
func (t *Terms) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
