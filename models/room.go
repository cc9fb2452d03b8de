package models

import "time"

// Room is the persisted document shared by an owner and its members.
// AssignedSlots hold the auto-assignment output; ActivitySlots and
// TravelSlots hold the latest recalculated schedule.
type Room struct {
	ID            string         `bson:"id" json:"id"`
	Name          string         `bson:"name" json:"name"`
	OwnerID       string         `bson:"ownerId" json:"ownerId"`
	Participants  []Participant  `bson:"participants" json:"participants"`
	BlockedTimes  []BlockedTime  `bson:"blockedTimes,omitempty" json:"blockedTimes,omitempty"`
	AssignedSlots []ActivitySlot `bson:"assignedSlots" json:"assignedSlots"`
	ActivitySlots []ActivitySlot `bson:"activitySlots,omitempty" json:"activitySlots,omitempty"`
	TravelSlots   []TravelSlot   `bson:"travelSlots,omitempty" json:"travelSlots,omitempty"`
	TravelMode    TravelMode     `bson:"travelMode" json:"travelMode"`
	Version       int            `bson:"version" json:"version"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// RecalculatePayload is the queued job body for background recalculation.
type RecalculatePayload struct {
	JobID  string     `json:"jobId"`
	RoomID string     `json:"roomId"`
	Mode   TravelMode `json:"mode"`
}
