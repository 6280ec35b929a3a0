package dialogue

import (
	"context"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-callsim/pkg/llm"
)

var log = grovelogging.NewLogger("callsim.dialogue")

// Reply is the outcome of one reply-generation step.
type Reply struct {
	Message   string
	ToolCalls []ToolCall
	Ended     bool
}

// Role is one participant of the call.
type Role interface {
	Party() Party
	// GenerateReply answers input. Tools requested by the model run as part
	// of the call and may end it.
	GenerateReply(ctx context.Context, input string) (Reply, error)
	// Ended is monotonic: once true it stays true.
	Ended() bool
	// Log returns the side-channel entries recorded so far.
	Log() []LogEntry
}

// RoleOption configures a role.
type RoleOption func(*agent)

// WithEmitter sends committed utterances to e.
func WithEmitter(e Emitter) RoleOption {
	return func(a *agent) {
		if e != nil {
			a.emitter = e
		}
	}
}

type line struct {
	party   Party
	message string
}

// agent is the model-backed Role. Representative and counterpart differ only
// in the tools they expose.
type agent struct {
	party        Party
	client       llm.Client
	instructions string
	tools        map[string]tool
	toolOrder    []string
	emitter      Emitter
	log          *logrus.Entry

	history []line
	pending []string
	entries []LogEntry
	ended   bool
}

// NewRepresentative creates the bank agent with complaint, reschedule,
// answering-machine and end-call tools.
func NewRepresentative(client llm.Client, instructions string, opts ...RoleOption) Role {
	return newAgent(Representative, client, instructions, representativeTools(), opts)
}

// NewCounterpart creates the simulated debtor, who can only hang up.
func NewCounterpart(client llm.Client, instructions string, opts ...RoleOption) Role {
	return newAgent(Counterpart, client, instructions, counterpartTools(), opts)
}

func newAgent(party Party, client llm.Client, instructions string, tools []tool, opts []RoleOption) *agent {
	a := &agent{
		party:        party,
		client:       client,
		instructions: strings.TrimSpace(instructions),
		tools:        make(map[string]tool, len(tools)),
		emitter:      nopEmitter{},
		log:          log.WithField("role", party),
	}
	for _, t := range tools {
		a.tools[t.name] = t
		a.toolOrder = append(a.toolOrder, t.name)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *agent) Party() Party { return a.party }

func (a *agent) Ended() bool { return a.ended }

func (a *agent) Log() []LogEntry {
	out := make([]LogEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *agent) hangup() {
	a.ended = true
}

func (a *agent) record(kind, message string) {
	a.log.Info(message)
	a.entries = append(a.entries, LogEntry{Role: a.party, Kind: kind, Message: message})
}

func (a *agent) GenerateReply(ctx context.Context, input string) (Reply, error) {
	if a.ended {
		return Reply{Ended: true}, fmt.Errorf("%s has already ended the call", a.party)
	}

	raw, err := a.client.Generate(ctx, a.prompt(input))
	if err != nil {
		return Reply{}, fmt.Errorf("generating %s reply: %w", a.party, err)
	}
	// Acknowledgements stay queued until a prompt carrying them succeeds.
	a.pending = nil
	message, calls := parseReply(raw)
	a.history = append(a.history, line{a.party.Other(), input}, line{a.party, message})

	u := startUtterance(ctx, a.emitter, a.party, message)
	if err := a.runTools(ctx, calls, u); err != nil {
		return Reply{}, err
	}
	if err := u.wait(ctx); err != nil {
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		a.log.WithError(err).Warn("Utterance emission failed")
	}

	return Reply{Message: message, ToolCalls: calls, Ended: a.ended}, nil
}

func (a *agent) prompt(input string) string {
	var b strings.Builder
	b.WriteString(a.instructions)

	b.WriteString("\n\n## Tools\nYou may call these tools by listing them in \"tool_calls\":\n")
	for _, name := range a.toolOrder {
		t := a.tools[name]
		fmt.Fprintf(&b, "- %s: %s\n", t.signature(), t.description)
	}

	if len(a.history) > 0 {
		b.WriteString("\n## Conversation so far\n")
		for _, l := range a.history {
			fmt.Fprintf(&b, "%s: %s\n", a.speaker(l.party), l.message)
		}
	}

	if len(a.pending) > 0 {
		b.WriteString("\n## Tool results\n")
		for _, ack := range a.pending {
			fmt.Fprintf(&b, "- %s\n", ack)
		}
	}

	fmt.Fprintf(&b, "\n## Latest message\n%s: %s\n", a.speaker(a.party.Other()), input)
	b.WriteString("\n## Reply format\nRespond with ONLY a JSON object matching this schema:\n")
	b.WriteString(replySchema)
	b.WriteString("\n")
	return b.String()
}

func (a *agent) speaker(p Party) string {
	if p == a.party {
		return "You"
	}
	return "Them"
}
