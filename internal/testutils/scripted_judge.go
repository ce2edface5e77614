package testutils

import (
	"context"
	"sync"

	"github.com/slushpile/slush/internal/domain"
	"github.com/slushpile/slush/internal/ports"
)

var _ ports.Judge = (*ScriptedJudge)(nil)

// ScriptedJudge implements ports.Judge with a deterministic pick function,
// recording every group it sees. The default behavior picks the first
// member, which keeps engine tests fully reproducible.
type ScriptedJudge struct {
	mu sync.Mutex

	// pick chooses the 1-indexed winner for a group of texts.
	// call is the zero-based invocation count, letting scripts vary
	// behavior across calls (e.g. fail three times, then succeed).
	pick func(call int, texts []string) (domain.Verdict, error)

	// groups records the texts of every Pick invocation in order.
	groups [][]string
}

// NewScriptedJudge creates a judge driven by pick. A nil pick always
// chooses the first group member.
func NewScriptedJudge(pick func(call int, texts []string) (domain.Verdict, error)) *ScriptedJudge {
	if pick == nil {
		pick = func(int, []string) (domain.Verdict, error) {
			return domain.Verdict{Choice: 1, Rationale: "first by script"}, nil
		}
	}
	return &ScriptedJudge{pick: pick}
}

// PickLongest returns a pick function choosing the longest text, a cheap
// deterministic proxy for "quality" in tests.
func PickLongest() func(int, []string) (domain.Verdict, error) {
	return func(_ int, texts []string) (domain.Verdict, error) {
		best := 1
		for i, text := range texts {
			if len(text) > len(texts[best-1]) {
				best = i + 1
			}
		}
		return domain.Verdict{Choice: best, Rationale: "longest by script"}, nil
	}
}

// Pick implements ports.Judge.
func (j *ScriptedJudge) Pick(ctx context.Context, texts []string) (domain.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return domain.Verdict{}, err
	}

	j.mu.Lock()
	call := len(j.groups)
	group := make([]string, len(texts))
	copy(group, texts)
	j.groups = append(j.groups, group)
	j.mu.Unlock()

	return j.pick(call, texts)
}

// Groups returns the groups judged so far, in invocation order.
func (j *ScriptedJudge) Groups() [][]string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([][]string, len(j.groups))
	copy(out, j.groups)
	return out
}

// Calls returns the number of Pick invocations so far.
func (j *ScriptedJudge) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.groups)
}
