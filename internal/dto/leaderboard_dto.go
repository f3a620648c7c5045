package dto

// LeaderboardRangeRequest asks for the leaderboard rows in the half-open rank range
// [Start, End).
type LeaderboardRangeRequest struct {
	Start int `json:"start" validate:"gte=0"`
	End   int `json:"end" validate:"gte=0"`
}

// LeaderboardEntry is one row of a leaderboard slice.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	PointSum int64  `json:"point_sum"`
}

// LeaderboardResponse is an ordered leaderboard slice.
type LeaderboardResponse struct {
	Entries  []LeaderboardEntry `json:"entries"`
	CacheHit bool               `json:"-"`
}
