// Package dialogue runs a two-party simulated call between a bank
// representative and a counterpart until either side hangs up.
package dialogue

import (
	"strings"
)

// Party identifies which side of the call produced a turn.
type Party string

const (
	// Representative is the bank agent whose policy is being tuned.
	Representative Party = "agent"
	// Counterpart is the simulated debtor.
	Counterpart Party = "user"
)

// Label is the capitalized form used in formatted transcripts.
func (p Party) Label() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Other returns the opposite party.
func (p Party) Other() Party {
	if p == Representative {
		return Counterpart
	}
	return Representative
}

// Turn is a single utterance.
type Turn struct {
	Role    Party  `json:"role"`
	Message string `json:"message"`
}

// Conversation is the ordered list of turns of one call.
type Conversation []Turn

// Format renders the conversation as "Agent: ..." / "User: ..." lines.
func (c Conversation) Format() string {
	lines := make([]string, len(c))
	for i, turn := range c {
		lines[i] = turn.Role.Label() + ": " + turn.Message
	}
	return strings.Join(lines, "\n")
}

// Alternates reports whether turns strictly alternate starting with the
// representative.
func (c Conversation) Alternates() bool {
	want := Representative
	for _, turn := range c {
		if turn.Role != want {
			return false
		}
		want = want.Other()
	}
	return true
}

// ByParty returns only the turns spoken by p.
func (c Conversation) ByParty(p Party) []Turn {
	var turns []Turn
	for _, turn := range c {
		if turn.Role == p {
			turns = append(turns, turn)
		}
	}
	return turns
}
