// Package evaluation judges simulated calls and decides whether a call is
// good enough to accept.
package evaluation

import (
	"fmt"
	"sort"
	"strings"
)

// Criterion names one judged quality of the representative.
type Criterion string

const (
	IsRepeating         Criterion = "is_repeating"
	IsNegotiatingEnough Criterion = "is_negotiating_enough"
	IsIrrelevant        Criterion = "is_irrelevant"
)

// Judgment values.
const (
	Yes = "yes"
	No  = "no"
)

// Verdict maps criteria to "yes" or "no".
type Verdict map[Criterion]string

// Get returns the judgment for c, or "" when absent.
func (v Verdict) Get(c Criterion) string {
	return v[c]
}

// Failing lists the criteria in required whose judgment differs, sorted.
func (v Verdict) Failing(required map[Criterion]string) []Criterion {
	var failing []Criterion
	for c, want := range required {
		if v[c] != want {
			failing = append(failing, c)
		}
	}
	sort.Slice(failing, func(i, j int) bool { return failing[i] < failing[j] })
	return failing
}

// fromObject normalizes an extracted JSON object into a Verdict. Strings are
// lowercased and trimmed; booleans become yes/no; other values are formatted.
func fromObject(obj map[string]any) Verdict {
	v := make(Verdict, len(obj))
	for k, raw := range obj {
		switch val := raw.(type) {
		case string:
			v[Criterion(k)] = strings.ToLower(strings.TrimSpace(val))
		case bool:
			if val {
				v[Criterion(k)] = Yes
			} else {
				v[Criterion(k)] = No
			}
		default:
			v[Criterion(k)] = fmt.Sprint(val)
		}
	}
	return v
}

// verdictFormat documents the expected evaluator answer.
type verdictFormat struct {
	IsRepeating         string `json:"is_repeating" jsonschema:"enum=yes,enum=no"`
	IsNegotiatingEnough string `json:"is_negotiating_enough" jsonschema:"enum=yes,enum=no"`
	IsIrrelevant        string `json:"is_irrelevant" jsonschema:"enum=yes,enum=no"`
}
