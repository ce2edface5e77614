package judge

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/slushpile/slush/internal/ports"
)

// choicePattern matches the CHOICE(n) marker the judge is instructed to
// emit in its final decision.
var choicePattern = regexp.MustCompile(`CHOICE\((\d+)\)`)

// ParseChoice extracts the single 1-indexed choice from a judge reply for
// a group of groupSize members. It is a pure function, independent of the
// retry and concurrency machinery, so verdict parsing is testable on its
// own.
//
// A reply is malformed when it carries no CHOICE marker, more than one
// distinct choice, or a choice outside [1, groupSize]; all such cases
// return an error wrapping ports.ErrMalformedVerdict.
func ParseChoice(response string, groupSize int) (int, error) {
	matches := choicePattern.FindAllStringSubmatch(response, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: no CHOICE marker in reply (%d chars)",
			ports.ErrMalformedVerdict, len(response))
	}

	choice, err := strconv.Atoi(matches[0][1])
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable choice %q", ports.ErrMalformedVerdict, matches[0][1])
	}

	// Repeating the same choice is fine; naming two different ones is not.
	for _, m := range matches[1:] {
		if m[1] != matches[0][1] {
			return 0, fmt.Errorf("%w: conflicting choices %s and %s",
				ports.ErrMalformedVerdict, matches[0][1], m[1])
		}
	}

	if choice < 1 || choice > groupSize {
		return 0, fmt.Errorf("%w: choice %d out of range [1, %d]",
			ports.ErrMalformedVerdict, choice, groupSize)
	}
	return choice, nil
}
