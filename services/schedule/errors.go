package schedule

import (
	"errors"

	"tutorroute/models"
)

// Fatal preconditions. A run returning one of these has not mutated anything.
var (
	ErrEmptySchedule        = errors.New("schedule has no activities to recalculate")
	ErrMissingOwnerLocation = errors.New("owner location has no coordinates")
	ErrUnknownMode          = errors.New("unknown travel mode")
	ErrUnknownParticipant   = errors.New("activity references an unknown participant")
	ErrInvalidActivity      = errors.New("activity has an invalid time range")
	ErrBlockNotFound        = errors.New("activity not found in schedule")
)

// ModeRejectedError is returned when the validation gate refuses a mode.
type ModeRejectedError struct {
	Mode    models.TravelMode
	Message string
}

func (e *ModeRejectedError) Error() string {
	return e.Message
}

// IsPrecondition reports whether err is one of the fatal precondition failures
// whose message can be surfaced to the caller verbatim.
func IsPrecondition(err error) bool {
	var rejected *ModeRejectedError
	return errors.As(err, &rejected) ||
		errors.Is(err, ErrEmptySchedule) ||
		errors.Is(err, ErrMissingOwnerLocation) ||
		errors.Is(err, ErrUnknownMode) ||
		errors.Is(err, ErrUnknownParticipant) ||
		errors.Is(err, ErrInvalidActivity) ||
		errors.Is(err, ErrBlockNotFound) ||
		errors.Is(err, ErrInvalidClock) ||
		errors.Is(err, ErrInvalidDate)
}
