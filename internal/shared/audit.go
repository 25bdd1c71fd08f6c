package shared

import "time"

// Stamp records who changed a row and when.
type Stamp struct {
	RecorderID int64
	RecordedAt time.Time
}

// NewStamp builds a Stamp for the actor at the given instant.
func NewStamp(actorID int64, at time.Time) Stamp {
	return Stamp{RecorderID: actorID, RecordedAt: at.UTC()}
}

// RecorderRef returns the recorder id as a nullable reference.
func (s Stamp) RecorderRef() *int64 {
	if s.RecorderID == 0 {
		return nil
	}
	id := s.RecorderID
	return &id
}
