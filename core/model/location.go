package model

// Tier classifies how much walk-in traffic a location already absorbs.
// Standard leads are steered toward low-traffic locations to balance load.
type Tier string

const (
	TierHighTraffic Tier = "high-traffic"
	TierLowTraffic  Tier = "low-traffic"
)

// Status is the operational state of a location.
type Status string

const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusClosed      Status = "closed"
)

// Location is a service location able to receive leads. Locations are owned
// by configuration; CurrentLoad is the only field mutated at runtime and
// only ever through the capacity store.
type Location struct {
	ID           string
	ZIP          string
	Tier         Tier
	Status       Status
	CurrentLoad  int
	MaxDailyLoad int
	// OpenHour and CloseHour bound the local business day, 24h clock.
	OpenHour  int
	CloseHour int
}

// Operational reports whether the location currently accepts leads.
func (l Location) Operational() bool {
	return l.Status == StatusActive
}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}
