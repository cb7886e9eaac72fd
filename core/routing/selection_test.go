package routing

import (
	"testing"

	"github.com/conexio/leadrouter/core/capacity"
	"github.com/conexio/leadrouter/core/model"
)

func cand(id string, dist float64, tier model.Tier, slots int) candidate {
	return candidate{
		loc:      model.Location{ID: id, Tier: tier, Status: model.StatusActive},
		distance: dist,
		info:     capacity.Info{HasCapacity: slots > 0, AvailableSlots: slots, Operational: true},
	}
}

func TestSortByDistanceTieBreak(t *testing.T) {
	list := []candidate{
		cand("b", 5, model.TierLowTraffic, 1),
		cand("a", 5, model.TierLowTraffic, 1),
		cand("c", 2, model.TierLowTraffic, 1),
	}
	sortByDistance(list)
	got := []string{list[0].loc.ID, list[1].loc.ID, list[2].loc.ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestPickPrefersLowTrafficForStandardLeads(t *testing.T) {
	list := []candidate{
		cand("near", 1, model.TierHighTraffic, 1),
		cand("far", 9, model.TierLowTraffic, 1),
	}
	if c := pick(list, false); c.loc.ID != "far" {
		t.Fatalf("standard pick = %s, want far", c.loc.ID)
	}
	if c := pick(list, true); c.loc.ID != "near" {
		t.Fatalf("high-priority pick = %s, want near", c.loc.ID)
	}
}

func TestPickFallsBackToClosestWithoutLowTraffic(t *testing.T) {
	list := []candidate{
		cand("near", 1, model.TierHighTraffic, 1),
		cand("far", 9, model.TierHighTraffic, 1),
	}
	if c := pick(list, false); c.loc.ID != "near" {
		t.Fatalf("pick = %s, want near", c.loc.ID)
	}
}

func TestPickFallbackGreatestSlots(t *testing.T) {
	list := []candidate{
		cand("near", 1, model.TierLowTraffic, 2),
		cand("far", 9, model.TierLowTraffic, 7),
	}
	if c := pickFallback(list); c.loc.ID != "far" {
		t.Fatalf("fallback = %s, want far", c.loc.ID)
	}
	// Equal slot counts: list is distance-sorted, first wins.
	tie := []candidate{
		cand("near", 1, model.TierLowTraffic, 3),
		cand("far", 9, model.TierLowTraffic, 3),
	}
	if c := pickFallback(tie); c.loc.ID != "near" {
		t.Fatalf("fallback tie = %s, want near", c.loc.ID)
	}
}

func TestRadiusAndAvailabilityFilters(t *testing.T) {
	list := []candidate{
		cand("in", 10, model.TierLowTraffic, 1),
		cand("edge", 25, model.TierLowTraffic, 0),
		cand("out", 26, model.TierLowTraffic, 1),
	}
	near := inRadius(list, 25)
	if len(near) != 2 {
		t.Fatalf("inRadius kept %d, want 2 (boundary inclusive)", len(near))
	}
	if av := available(near); len(av) != 1 || av[0].loc.ID != "in" {
		t.Fatalf("available = %+v", av)
	}
}
