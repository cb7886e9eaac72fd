package model

import (
	"fmt"
	"time"
)

// Lead represents an inbound prospect awaiting assignment to a service
// location. Leads are immutable once a routing decision has been recorded;
// retrying a lead produces a new decision, never a mutation of a past one.
type Lead struct {
	ID    string
	ZIP   string // 5-digit postal code
	Score *int   // raw quality signal in [0,100], nil when the source supplied none
	// Source identifies the acquisition channel (referral, facebook,
	// google, website, walk-in, ...). Free-form; unknown channels score
	// with the neutral multiplier.
	Source    string
	Phone     string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Validate checks that the lead carries a well-formed postal code.
func (l Lead) Validate() error {
	if !ValidZIP(l.ZIP) {
		return fmt.Errorf("lead %s: postal code %q is not 5 digits", l.ID, l.ZIP)
	}
	return nil
}

// ContactComplete reports whether phone, email and name are all present.
func (l Lead) ContactComplete() bool {
	return l.Phone != "" && l.Email != "" && l.Name != ""
}

// ValidZIP reports whether s is exactly five ASCII digits.
func ValidZIP(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
