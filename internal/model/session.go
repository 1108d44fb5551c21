package model

import "time"

// Session is a bookable class, unrelated to login tokens.
type Session struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionAvailability is a session as seen by one user on the sessions page.
type SessionAvailability struct {
	Session
	Reserved     int  `json:"reserved"`
	ReservedByMe bool `json:"reserved_by_me"`
}

// Remaining returns the number of seats still open.
func (a SessionAvailability) Remaining() int {
	if n := a.Capacity - a.Reserved; n > 0 {
		return n
	}
	return 0
}

// Full reports whether no seats remain.
func (a SessionAvailability) Full() bool {
	return a.Remaining() == 0
}
