package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContestIsRated(t *testing.T) {
	require.True(t, Contest{ID: "agc001", StartEpochSecond: FirstRatedEpochSecond, RateChange: "All"}.IsRated())
	require.True(t, Contest{ID: "abc200", StartEpochSecond: FirstRatedEpochSecond + 1, RateChange: " ~ 1999"}.IsRated())

	// Both signals are required: a contest before the rated era stays unrated even
	// with a rating range, and the sentinel overrides any start time.
	require.False(t, Contest{ID: "arc001", StartEpochSecond: FirstRatedEpochSecond - 1, RateChange: "All"}.IsRated())
	require.False(t, Contest{ID: "mujin", StartEpochSecond: FirstRatedEpochSecond + 1, RateChange: UnratedState}.IsRated())
}

func TestSubmissionIsAccepted(t *testing.T) {
	require.True(t, Submission{ID: 1, Result: ResultAccepted}.IsAccepted())
	require.False(t, Submission{ID: 2, Result: ResultWrongAnswer}.IsAccepted())
	require.False(t, Submission{ID: 3, Result: "Judging"}.IsAccepted())
}
