package domain

// Verdict is a judge's answer to one group comparison.
// Choice is 1-indexed against the group as presented to the judge;
// the engine maps it back to a candidate by position.
type Verdict struct {
	// Choice selects the winning group member, in [1, group size].
	Choice int `json:"choice"`

	// Rationale carries the judge's free-form reasoning.
	// The engine records it for observability but never interprets it.
	Rationale string `json:"rationale,omitempty"`
}

// Standing is one row of a ranking: a candidate's text and its final
// win count, in the shape consumed by persistence and reporting.
type Standing struct {
	Text string `json:"text"`
	Wins int    `json:"wins"`
}

// Standings flattens ranked candidates into persistable rows.
func Standings(ranked []*Candidate) []Standing {
	rows := make([]Standing, len(ranked))
	for i, c := range ranked {
		rows[i] = Standing{Text: c.Text, Wins: c.Wins()}
	}
	return rows
}
