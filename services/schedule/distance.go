package schedule

import (
	"math"
	"sort"

	"tutorroute/models"
	"tutorroute/services/travel"
)

// SortByTime orders blocks by date then start minute, keeping input order on ties.
func SortByTime(blocks []Block) []Block {
	out := append([]Block(nil), blocks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// SortByDistance groups blocks by date. Within a date the owner's blocks come
// first in time order, followed by member blocks in greedy nearest-neighbour
// order starting at the owner's location. Ties keep input order. Members
// without a location are visited last.
func SortByDistance(blocks []Block, ownerID string, owner models.Location, locations map[string]*models.Location) []Block {
	byDate := make(map[string][]Block)
	var dates []string
	for _, b := range blocks {
		if _, ok := byDate[b.Date]; !ok {
			dates = append(dates, b.Date)
		}
		byDate[b.Date] = append(byDate[b.Date], b)
	}
	sort.Strings(dates)

	out := make([]Block, 0, len(blocks))
	for _, date := range dates {
		var ownerBlocks, members []Block
		for _, b := range byDate[date] {
			if b.ParticipantID == ownerID {
				ownerBlocks = append(ownerBlocks, b)
			} else {
				members = append(members, b)
			}
		}
		out = append(out, SortByTime(ownerBlocks)...)
		out = append(out, nearestNeighbour(members, owner, locations)...)
	}
	return out
}

// nearestNeighbour walks from start, always taking the closest unvisited block.
func nearestNeighbour(members []Block, start models.Location, locations map[string]*models.Location) []Block {
	visited := make([]bool, len(members))
	out := make([]Block, 0, len(members))
	current := start
	for range members {
		best := -1
		bestKm := math.Inf(1)
		for i, b := range members {
			if visited[i] {
				continue
			}
			km := math.Inf(1)
			if loc := locations[b.ParticipantID]; loc != nil {
				km = travel.Haversine(current, *loc)
			}
			if best == -1 || km < bestKm {
				best, bestKm = i, km
			}
		}
		visited[best] = true
		out = append(out, members[best])
		if loc := locations[members[best].ParticipantID]; loc != nil {
			current = *loc
		}
	}
	return out
}
