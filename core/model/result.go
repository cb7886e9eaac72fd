package model

// Outcome tags the variant of a RoutingResult.
type Outcome string

const (
	OutcomeRouted     Outcome = "routed"
	OutcomeWaitlisted Outcome = "waitlisted"
	OutcomeFailed     Outcome = "failed"
)

// ErrorKind classifies failed routing attempts. Only SystemError should
// alert an operator; the others are expected business outcomes.
type ErrorKind string

const (
	ErrInvalidInput ErrorKind = "invalid_input"
	ErrNoLocations  ErrorKind = "no_locations"
	ErrOutOfRange   ErrorKind = "out_of_range"
	ErrNoCapacity   ErrorKind = "no_capacity"
	ErrSystemError  ErrorKind = "system_error"
)

// RoutingResult is the single artifact of a routing attempt. Exactly one
// variant is produced per attempt:
//
//	routed     — Location, DistanceMiles, Reason, HighPriority
//	waitlisted — FallbackLocation, Reason
//	failed     — ErrorKind, Message
type RoutingResult struct {
	Outcome Outcome

	Location      *Location
	DistanceMiles float64
	Reason        string
	HighPriority  bool

	FallbackLocation *Location

	ErrorKind ErrorKind
	Message   string
}

// Routed builds the success variant.
func Routed(loc Location, distance float64, reason string, highPriority bool) RoutingResult {
	return RoutingResult{
		Outcome:       OutcomeRouted,
		Location:      &loc,
		DistanceMiles: distance,
		Reason:        reason,
		HighPriority:  highPriority,
	}
}

// Waitlisted builds the over-capacity fallback variant.
func Waitlisted(loc Location, reason string) RoutingResult {
	return RoutingResult{
		Outcome:          OutcomeWaitlisted,
		FallbackLocation: &loc,
		Reason:           reason,
	}
}

// Failed builds the failure variant.
func Failed(kind ErrorKind, message string) RoutingResult {
	return RoutingResult{Outcome: OutcomeFailed, ErrorKind: kind, Message: message}
}

// SelectedLocation returns the location named by the result, if any.
func (r RoutingResult) SelectedLocation() *Location {
	switch r.Outcome {
	case OutcomeRouted:
		return r.Location
	case OutcomeWaitlisted:
		return r.FallbackLocation
	}
	return nil
}
