package models

import "fmt"

// TravelMode selects how travel legs between participants are computed.
type TravelMode string

const (
	ModeNormal    TravelMode = "normal" // no travel adjustment
	ModeTransit   TravelMode = "transit"
	ModeDriving   TravelMode = "driving"
	ModeBicycling TravelMode = "bicycling"
	ModeWalking   TravelMode = "walking"
)

// Valid reports whether m is one of the supported modes.
func (m TravelMode) Valid() bool {
	switch m {
	case ModeNormal, ModeTransit, ModeDriving, ModeBicycling, ModeWalking:
		return true
	}
	return false
}

// ParseTravelMode converts a raw selector into a TravelMode.
func ParseTravelMode(raw string) (TravelMode, error) {
	m := TravelMode(raw)
	if !m.Valid() {
		return "", fmt.Errorf("unsupported travel mode %q", raw)
	}
	return m, nil
}

// Location is a geocoded address.
type Location struct {
	Lat         float64 `bson:"lat" json:"lat"`
	Lng         float64 `bson:"lng" json:"lng"`
	DisplayName string  `bson:"displayName" json:"displayName"`
}

type ParticipantRole string

const (
	RoleOwner  ParticipantRole = "owner"
	RoleMember ParticipantRole = "member"
)

// Participant is the normalized reference the scheduling core works with.
type Participant struct {
	ID           string              `bson:"id" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Role         ParticipantRole     `bson:"role" json:"role"`
	Location     *Location           `bson:"location,omitempty" json:"location,omitempty"`
	Availability []AvailabilityEntry `bson:"availability,omitempty" json:"availability,omitempty"`
}

// DisplayName returns the location name when present, else the participant name.
func (p *Participant) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Location != nil && p.Location.DisplayName != "" {
		return p.Location.DisplayName
	}
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// AvailabilityEntry is one raw availability declaration. Exactly one of
// Weekday (0=Sunday) or SpecificDate is expected to be set.
type AvailabilityEntry struct {
	Weekday      *int   `bson:"weekday,omitempty" json:"weekday,omitempty"`
	SpecificDate string `bson:"specificDate,omitempty" json:"specificDate,omitempty"`
	StartTime    string `bson:"startTime" json:"startTime"`
	EndTime      string `bson:"endTime" json:"endTime"`
	Priority     int    `bson:"priority" json:"priority"`
}

// BlockedTime is a room-wide forbidden interval. An empty Date applies every day.
type BlockedTime struct {
	StartTime string `bson:"startTime" json:"startTime"`
	EndTime   string `bson:"endTime" json:"endTime"`
	Label     string `bson:"label,omitempty" json:"label,omitempty"`
	Date      string `bson:"date,omitempty" json:"date,omitempty"`
}

// Assignment is one contiguous activity as produced by the auto-assignment step.
type Assignment struct {
	ParticipantID string `bson:"participantId" json:"participantId"`
	Date          string `bson:"date" json:"date"`
	StartTime     string `bson:"startTime" json:"startTime"`
	EndTime       string `bson:"endTime" json:"endTime"`
	Label         string `bson:"label,omitempty" json:"label,omitempty"`
}

// ActivitySlot is an atomic storage unit of an activity (10 minutes by default).
type ActivitySlot struct {
	ParticipantID string `bson:"participantId" json:"participantId"`
	Date          string `bson:"date" json:"date"`
	StartTime     string `bson:"startTime" json:"startTime"`
	EndTime       string `bson:"endTime" json:"endTime"`
	Label         string `bson:"label,omitempty" json:"label,omitempty"`
}

// TravelSlot is a synthetic travel interval ending exactly where the
// participant's activity starts.
type TravelSlot struct {
	ID                string     `bson:"id" json:"id"`
	ParticipantID     string     `bson:"participantId" json:"participantId"`
	Date              string     `bson:"date" json:"date"`
	StartTime         string     `bson:"startTime" json:"startTime"`
	EndTime           string     `bson:"endTime" json:"endTime"`
	FromParticipantID string     `bson:"fromParticipantId" json:"fromParticipantId"`
	FromLocationName  string     `bson:"fromLocationName" json:"fromLocationName"`
	ToLocationName    string     `bson:"toLocationName" json:"toLocationName"`
	Mode              TravelMode `bson:"mode" json:"mode"`
	DurationSeconds   int        `bson:"durationSeconds" json:"durationSeconds"`
	DistanceMeters    int        `bson:"distanceMeters" json:"distanceMeters"`
	DurationText      string     `bson:"durationText" json:"durationText"`
	Estimated         bool       `bson:"estimated" json:"estimated"`
}

type PlacementStatus string

const (
	PlacementPlaced    PlacementStatus = "placed"    // kept its original slot
	PlacementRelocated PlacementStatus = "relocated" // moved as one block
	PlacementSplit     PlacementStatus = "split"     // duration divided over several segments
	PlacementDropped   PlacementStatus = "dropped"   // no feasible placement in the horizon
)

// PlacementOutcome reports what happened to one input activity.
type PlacementOutcome struct {
	ParticipantID   string          `json:"participantId"`
	Date            string          `json:"date"`
	StartTime       string          `json:"startTime"`
	EndTime         string          `json:"endTime"`
	Label           string          `json:"label,omitempty"`
	Status          PlacementStatus `json:"status"`
	Reason          string          `json:"reason,omitempty"`
	Segments        int             `json:"segments"`
	UnplacedMinutes int             `json:"unplacedMinutes,omitempty"`
}

// RecalculationResult is the externally visible output of one run.
type RecalculationResult struct {
	ActivitySlots  []ActivitySlot     `json:"activitySlots"`
	TravelSlots    []TravelSlot       `json:"travelSlots"`
	Mode           TravelMode         `json:"mode"`
	TravelAdjusted bool               `json:"travelAdjusted"`
	Outcomes       []PlacementOutcome `json:"outcomes"`
}

// Dropped returns the outcomes of activities that could not be placed.
func (r *RecalculationResult) Dropped() []PlacementOutcome {
	var out []PlacementOutcome
	for _, o := range r.Outcomes {
		if o.Status == PlacementDropped {
			out = append(out, o)
		}
	}
	return out
}

type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

type TimeWindow struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type ConflictKind string

const (
	ConflictAllocation ConflictKind = "allocation"
	ConflictBlocked    ConflictKind = "blocked"
	ConflictPreference ConflictKind = "preference"
	ConflictBounds     ConflictKind = "bounds"
)

// Conflict describes why a span cannot be placed.
type Conflict struct {
	Kind          ConflictKind `json:"kind"`
	ParticipantID string       `json:"participantId,omitempty"`
	StartTime     string       `json:"startTime,omitempty"`
	EndTime       string       `json:"endTime,omitempty"`
	Message       string       `json:"message"`
}

// SimulationRequest asks whether an activity could be dropped at a given slot.
type SimulationRequest struct {
	ParticipantID   string `json:"participantId" binding:"required"`
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"startTime" binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,gt=0"`
}

type SimulationResult struct {
	CanPlace               bool        `json:"canPlace"`
	TravelMinutes          int         `json:"travelMinutes"`
	FromLocationName       string      `json:"fromLocationName,omitempty"`
	Conflicts              []Conflict  `json:"conflicts"`
	ProposedTravelWindow   *TimeWindow `json:"proposedTravelWindow,omitempty"`
	ProposedActivityWindow TimeWindow  `json:"proposedActivityWindow"`
}

// RelocateRequest moves one existing activity, optionally not earlier than MinimumStart.
type RelocateRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
	Date          string `json:"date" binding:"required"`
	StartTime     string `json:"startTime" binding:"required"`
	MinimumStart  string `json:"minimumStart,omitempty"`
}
