package models

// UnratedState is the rate_change sentinel for contests that never affect ratings.
const UnratedState = "-"

// FirstRatedEpochSecond is the start time of the earliest contest that counted toward
// ratings. Contests starting before it are unrated regardless of their rate_change value.
const FirstRatedEpochSecond int64 = 1468670400

// Contest represents one contest in the archive catalog.
type Contest struct {
	ID               string `gorm:"primaryKey;size:255" json:"id"`
	StartEpochSecond int64  `gorm:"not null" json:"start_epoch_second"`
	DurationSecond   int64  `gorm:"not null" json:"duration_second"`
	Title            string `gorm:"size:255" json:"title"`
	RateChange       string `gorm:"size:255" json:"rate_change"`
}

// IsRated reports whether the contest counts toward rating computation.
func (c Contest) IsRated() bool {
	return c.StartEpochSecond >= FirstRatedEpochSecond && c.RateChange != UnratedState
}

// ContestProblem links a problem to a contest it appeared in.
type ContestProblem struct {
	ContestID string `gorm:"primaryKey;size:255" json:"contest_id"`
	ProblemID string `gorm:"primaryKey;size:255" json:"problem_id"`
}

// TableName keeps the legacy singular table name.
func (ContestProblem) TableName() string {
	return "contest_problem"
}
