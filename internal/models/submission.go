package models

// Judge verdict codes stored in the result column.
const (
	ResultAccepted            = "AC"
	ResultWrongAnswer         = "WA"
	ResultTimeLimitExceeded   = "TLE"
	ResultCompileError        = "CE"
	ResultRuntimeError        = "RE"
	ResultMemoryLimitExceeded = "MLE"
	ResultOutputLimitExceeded = "OLE"
	ResultQueryLimitExceeded  = "QLE"
	ResultInternalError       = "IE"
	ResultNotGraded           = "NG"
)

// KnownResults lists every verdict the judge is expected to emit. Submissions carrying
// any other result are surfaced by the invalid-result integrity query.
var KnownResults = []string{
	ResultAccepted,
	ResultWrongAnswer,
	ResultTimeLimitExceeded,
	ResultCompileError,
	ResultRuntimeError,
	ResultMemoryLimitExceeded,
	ResultOutputLimitExceeded,
	ResultQueryLimitExceeded,
	ResultInternalError,
	ResultNotGraded,
}

// Submission is one judged submission. Rows are immutable except for the fields the
// crawler may re-observe: user_id, result, point and execution_time.
type Submission struct {
	ID            int64   `gorm:"primaryKey" json:"id"`
	EpochSecond   int64   `gorm:"not null" json:"epoch_second"`
	ProblemID     string  `gorm:"size:255;not null" json:"problem_id"`
	ContestID     string  `gorm:"size:255;not null" json:"contest_id"`
	UserID        string  `gorm:"size:255;not null" json:"user_id"`
	Language      string  `gorm:"size:255" json:"language"`
	Point         float64 `json:"point"`
	Length        int32   `json:"length"`
	Result        string  `gorm:"size:255" json:"result"`
	ExecutionTime *int32  `json:"execution_time"`
}

// IsAccepted reports whether the submission passed all test cases.
func (s Submission) IsAccepted() bool {
	return s.Result == ResultAccepted
}
