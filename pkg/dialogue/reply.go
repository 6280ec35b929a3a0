package dialogue

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mattsolo1/grove-callsim/pkg/judgment"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args,omitempty"`
}

// replyFormat documents the object a role is asked to answer with.
type replyFormat struct {
	Message   string       `json:"message" jsonschema:"description=The words you say out loud next"`
	ToolCalls []toolFormat `json:"tool_calls,omitempty" jsonschema:"description=Tools to call while speaking"`
}

type toolFormat struct {
	Name string            `json:"name" jsonschema:"description=Name of one of the listed tools"`
	Args map[string]string `json:"args,omitempty" jsonschema:"description=Tool arguments by name"`
}

var replySchema = judgment.SchemaFor(&replyFormat{})

// parseReply reads a model reply. Replies that are not a JSON object with a
// "message" field are used verbatim as the message with no tool calls.
func parseReply(raw string) (string, []ToolCall) {
	text := strings.TrimSpace(raw)

	body, ok := replyObject(text)
	if !ok {
		return text, nil
	}

	res := gjson.Parse(body)
	msg := res.Get("message")
	if !msg.Exists() {
		return text, nil
	}

	var calls []ToolCall
	res.Get("tool_calls").ForEach(func(_, v gjson.Result) bool {
		name := strings.TrimSpace(v.Get("name").String())
		if name == "" {
			return true
		}
		call := ToolCall{Name: name}
		v.Get("args").ForEach(func(k, val gjson.Result) bool {
			if call.Args == nil {
				call.Args = map[string]string{}
			}
			call.Args[k.String()] = val.String()
			return true
		})
		calls = append(calls, call)
		return true
	})
	return strings.TrimSpace(msg.String()), calls
}

// replyObject returns the first valid JSON object in text, preferring the
// earliest '{' and, from there, the latest '}'. Prose around the object may
// itself contain braces.
func replyObject(text string) (string, bool) {
	for start := strings.Index(text, "{"); start >= 0; {
		for end := strings.LastIndex(text, "}"); end > start; end = strings.LastIndex(text[:end], "}") {
			if body := text[start : end+1]; gjson.Valid(body) {
				return body, true
			}
		}
		next := strings.Index(text[start+1:], "{")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}
