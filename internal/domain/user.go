package domain

import "slices"

// DefaultPhotoURL is the avatar assigned to accounts that never set one.
const DefaultPhotoURL = "https://i.imgur.com/gK4I8h8.png"

// DateLayout is the day/month/year layout used for MemberSince and LastLogin.
const DateLayout = "02/01/2006"

// UserRecord is a registered account together with its learning progress.
// The JSON names match the persisted shape.
type UserRecord struct {
	ID               int64   `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	MemberSince      string  `json:"memberSince"`
	LastLogin        string  `json:"lastLogin"`
	PhotoURL         string  `json:"photoUrl"`
	CompletedLessons []int64 `json:"completedLessons"`
}

// HasCompleted reports whether the course id is in the completed set.
func (u *UserRecord) HasCompleted(courseID int64) bool {
	return slices.Contains(u.CompletedLessons, courseID)
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u
	c.CompletedLessons = slices.Clone(u.CompletedLessons)
	if c.CompletedLessons == nil {
		c.CompletedLessons = []int64{}
	}
	return &c
}
