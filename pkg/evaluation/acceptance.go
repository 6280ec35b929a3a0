package evaluation

// Acceptance decides whether an attempt's verdicts count as success.
type Acceptance func(verdicts []Verdict) bool

// DefaultCriteria are the judgments a call must receive to be accepted.
var DefaultCriteria = map[Criterion]string{
	IsRepeating:         No,
	IsNegotiatingEnough: Yes,
	IsIrrelevant:        No,
}

// RequireAll accepts when any single verdict matches every criterion.
// An empty verdict list is never accepted.
func RequireAll(criteria map[Criterion]string) Acceptance {
	return func(verdicts []Verdict) bool {
		for _, v := range verdicts {
			if len(v.Failing(criteria)) == 0 {
				return true
			}
		}
		return false
	}
}

// DefaultAcceptance requires no repetition, enough negotiation and no
// irrelevant responses.
var DefaultAcceptance = RequireAll(DefaultCriteria)
