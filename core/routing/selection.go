package routing

import (
	"sort"

	"github.com/conexio/leadrouter/core/capacity"
	"github.com/conexio/leadrouter/core/model"
)

// candidate pairs a location with its resolved distance and live capacity.
type candidate struct {
	loc      model.Location
	distance float64
	info     capacity.Info
}

// sortByDistance orders candidates ascending by distance, ties broken by
// location ID so repeated runs over the same input are deterministic.
func sortByDistance(list []candidate) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].distance != list[j].distance {
			return list[i].distance < list[j].distance
		}
		return list[i].loc.ID < list[j].loc.ID
	})
}

// inRadius keeps candidates within the service radius.
func inRadius(list []candidate, radius float64) []candidate {
	var out []candidate
	for _, c := range list {
		if c.distance <= radius {
			out = append(out, c)
		}
	}
	return out
}

// available keeps candidates that are operational with free slots.
func available(list []candidate) []candidate {
	var out []candidate
	for _, c := range list {
		if c.info.Operational && c.info.HasCapacity {
			out = append(out, c)
		}
	}
	return out
}

// operational keeps candidates that accept leads, ignoring capacity. Used by
// the waitlist fallback.
func operational(list []candidate) []candidate {
	var out []candidate
	for _, c := range list {
		if c.info.Operational {
			out = append(out, c)
		}
	}
	return out
}

// pick applies the selection policy to a distance-sorted candidate list.
// High-priority leads get the nearest slot regardless of tier; standard
// leads prefer a low-traffic location and otherwise take the closest.
func pick(list []candidate, highPriority bool) candidate {
	if !highPriority {
		for _, c := range list {
			if c.loc.Tier == model.TierLowTraffic {
				return c
			}
		}
	}
	return list[0]
}

// pickFallback selects the waitlist target: greatest number of available
// slots, ties broken by distance (the list is already distance-sorted, so
// the first maximum wins).
func pickFallback(list []candidate) candidate {
	best := list[0]
	for _, c := range list[1:] {
		if c.info.AvailableSlots > best.info.AvailableSlots {
			best = c
		}
	}
	return best
}

// without removes the candidate with the given location ID.
func without(list []candidate, id string) []candidate {
	var out []candidate
	for _, c := range list {
		if c.loc.ID != id {
			out = append(out, c)
		}
	}
	return out
}
