package model

import "time"

// Applicant is one application that passed intake. Identity is the only
// equality key: two applications with the same identity are one applicant.
type Applicant struct {
	Identity  string
	Username  string
	Submitted time.Time
	Eligible  bool  // terms accepted
	Requested []int // raw ids; may repeat or be unknown to the catalog
}
