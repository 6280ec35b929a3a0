// Package policy holds the instruction templates that govern a role.
//
// A Policy is template text with single-brace named slots such as {name}.
// Rendering substitutes operator parameters; revision always produces a new
// Policy value.
package policy

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"

	"github.com/mattsolo1/grove-callsim/pkg/failure"
)

// Slot names a placeholder in a representative policy.
type Slot string

const (
	SlotName      Slot = "name"
	SlotAmountDue Slot = "amount_due"
	SlotDueDate   Slot = "due_date"
	SlotToday     Slot = "today"
	SlotSummary   Slot = "summary"
)

// RequiredSlots must appear in every representative policy.
var RequiredSlots = []Slot{SlotName, SlotAmountDue, SlotDueDate, SlotToday, SlotSummary}

// DateLayout formats {today} and is the suggested layout for due dates.
const DateLayout = "January 02, 2006"

// NoSummary fills {summary} when there is no prior conversation.
const NoSummary = "No past conversation"

// Policy is an unrendered instruction template.
type Policy string

// Params are the operator-supplied values substituted into a Policy.
type Params struct {
	Name      string
	AmountDue string
	DueDate   string
	Today     string
	Summary   string
}

// NewParams fills Today and Summary when they are empty.
func NewParams(name, amountDue, dueDate string, now time.Time) Params {
	return Params{
		Name:      name,
		AmountDue: amountDue,
		DueDate:   dueDate,
		Today:     now.Format(DateLayout),
		Summary:   NoSummary,
	}
}

func (p Params) values() map[Slot]string {
	return map[Slot]string{
		SlotName:      p.Name,
		SlotAmountDue: p.AmountDue,
		SlotDueDate:   p.DueDate,
		SlotToday:     p.Today,
		SlotSummary:   p.Summary,
	}
}

// String returns the template text.
func (p Policy) String() string {
	return string(p)
}

// Slots lists the distinct known slots referenced by the policy, in order of
// first appearance.
func (p Policy) Slots() []Slot {
	known := map[Slot]bool{}
	for _, s := range RequiredSlots {
		known[s] = true
	}
	seen := map[Slot]bool{}
	var slots []Slot
	expand(string(p), func(s Slot) (string, bool) {
		if known[s] && !seen[s] {
			seen[s] = true
			slots = append(slots, s)
		}
		return "", false
	})
	return slots
}

// expand replaces every {slot} that resolve knows. Anything else between
// braces, such as a JSON example, is written back unchanged. A tag holding a
// nested brace is split at the innermost one, so {"a": {name}} still
// resolves {name}.
func expand(text string, resolve func(Slot) (string, bool)) string {
	return fasttemplate.ExecuteFuncString(text, "{", "}", func(w io.Writer, tag string) (int, error) {
		outer, name := "", tag
		if i := strings.LastIndex(tag, "{"); i >= 0 {
			outer, name = "{"+tag[:i], tag[i+1:]
		}
		if v, ok := resolve(Slot(name)); ok {
			return io.WriteString(w, outer+v)
		}
		return io.WriteString(w, outer+"{"+name+"}")
	})
}

// Missing returns the required slots that p does not reference.
func (p Policy) Missing() []Slot {
	present := map[Slot]bool{}
	for _, s := range p.Slots() {
		present[s] = true
	}
	var missing []Slot
	for _, s := range RequiredSlots {
		if !present[s] {
			missing = append(missing, s)
		}
	}
	return missing
}

// Validate fails with PolicyTemplateMismatch when a required slot is absent.
func (p Policy) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return failure.New(failure.PolicyTemplateMismatch, "policy is empty")
	}
	if missing := p.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, s := range missing {
			names[i] = "{" + string(s) + "}"
		}
		return failure.Newf(failure.PolicyTemplateMismatch, "policy is missing placeholders %s", strings.Join(names, ", "))
	}
	return nil
}

// Render validates p and substitutes params into every known slot. Braces
// that do not name a known slot are left untouched.
func (p Policy) Render(params Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	values := params.values()
	rendered := expand(string(p), func(s Slot) (string, bool) {
		v, ok := values[s]
		return v, ok
	})
	return rendered, nil
}

// Load reads a policy template from disk.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading policy file %s: %w", path, err)
	}
	p := Policy(data)
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}
