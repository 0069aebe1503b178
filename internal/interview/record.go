package interview

import (
	"fmt"
	"time"
)

// TimestampLayout is ISO-8601 local time at second precision.
const TimestampLayout = "2006-01-02T15:04:05"

// Record is the persisted snapshot of one finished session.
type Record struct {
	Timestamp      string        `json:"timestamp"`
	Role           string        `json:"role"`
	InterviewType  InterviewType `json:"interview_type"`
	Level          Level         `json:"level"`
	TotalQuestions int           `json:"total_questions"`
	Turns          []Turn        `json:"qa_list"`
	Summary        string        `json:"summary"`
}

// BuildRecord creates a record from a session state, stamped with now.
func BuildRecord(st SessionState, now time.Time) Record {
	turns := append([]Turn{}, st.Turns...)
	return Record{
		Timestamp:      now.Format(TimestampLayout),
		Role:           st.Config.Role,
		InterviewType:  st.Config.InterviewType,
		Level:          st.Config.Level,
		TotalQuestions: st.Config.TotalQuestions,
		Turns:          turns,
		Summary:        st.Summary,
	}
}

// Label is the one-line history listing for the n-th record.
func (r Record) Label(n int) string {
	return fmt.Sprintf("Session %d – %s – %s (%s, %s)", n, r.Timestamp, r.Role, r.InterviewType, r.Level)
}
