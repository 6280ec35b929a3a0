package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogEntry is a side-channel event recorded by a role during a call.
type LogEntry struct {
	Role    Party  `json:"role"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Tool names understood by the roles.
const (
	ToolEndCall          = "end_call"
	ToolLogComplaint     = "log_complaint"
	ToolRescheduleCall   = "reschedule_call"
	ToolAnsweringMachine = "detected_answering_machine"
)

// tool is a capability a role may invoke while generating a reply. The
// returned acknowledgement is shown to the role on its next turn.
type tool struct {
	name        string
	description string
	params      []string
	run         func(ctx context.Context, a *agent, call ToolCall, u *utterance) (string, error)
}

func (t tool) signature() string {
	if len(t.params) == 0 {
		return t.name
	}
	return t.name + "(" + strings.Join(t.params, ", ") + ")"
}

// endCall lets the current utterance finish before hanging up so the last
// words are never cut from the call.
func endCall(ctx context.Context, a *agent, call ToolCall, u *utterance) (string, error) {
	if a.ended {
		return "", nil
	}
	if err := u.wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		a.log.WithError(err).Warn("Utterance emission failed before hangup")
	}
	a.log.Info("Ending the call via function tool")
	a.hangup()
	return "", nil
}

func answeringMachine(ctx context.Context, a *agent, call ToolCall, u *utterance) (string, error) {
	if a.ended {
		return "", nil
	}
	a.log.Info("Answering machine detected via function tool")
	a.hangup()
	return "", nil
}

func logComplaint(ctx context.Context, a *agent, call ToolCall, u *utterance) (string, error) {
	reason := call.Args["reason"]
	a.record("complaint", fmt.Sprintf("[Complaint] : %s", reason))
	return "I'm sorry to hear that. I've logged your concern.", nil
}

func rescheduleCall(ctx context.Context, a *agent, call ToolCall, u *utterance) (string, error) {
	date := call.Args["date"]
	a.record("reschedule", fmt.Sprintf("[Reschedule] Requested callback on %s", date))
	return fmt.Sprintf("No problem. I'll mark your preferred call-back date as %s.", date), nil
}

func representativeTools() []tool {
	return []tool{
		{
			name:        ToolLogComplaint,
			description: "Record a complaint raised by the customer.",
			params:      []string{"reason"},
			run:         logComplaint,
		},
		{
			name:        ToolRescheduleCall,
			description: "Schedule a callback on the date the customer prefers.",
			params:      []string{"date"},
			run:         rescheduleCall,
		},
		{
			name:        ToolEndCall,
			description: "End the call once the conversation is over.",
			run:         endCall,
		},
		{
			name:        ToolAnsweringMachine,
			description: "Hang up immediately because the call reached voicemail or an answering machine.",
			run:         answeringMachine,
		},
	}
}

func counterpartTools() []tool {
	return []tool{
		{
			name:        ToolEndCall,
			description: "Hang up the phone.",
			run:         endCall,
		},
	}
}

// runTools runs every requested tool in order. Hanging up does not cancel the
// tools listed after it, so a farewell turn can still log a complaint.
func (a *agent) runTools(ctx context.Context, calls []ToolCall, u *utterance) error {
	for _, call := range calls {
		t, ok := a.tools[call.Name]
		if !ok {
			a.log.WithField("tool", call.Name).Warn("Ignoring call to unknown tool")
			continue
		}
		a.log.WithFields(logrus.Fields{"tool": call.Name, "args": call.Args}).Debug("Running tool")
		ack, err := t.run(ctx, a, call, u)
		if err != nil {
			return fmt.Errorf("tool %s: %w", call.Name, err)
		}
		if ack != "" {
			a.pending = append(a.pending, call.Name+": "+ack)
		}
	}
	return nil
}
