package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/evaluation"
)

// DefaultArtifactPath is where the CLI writes the artifact by default.
const DefaultArtifactPath = "transcript.json"

// Artifact is the persisted record of a run's final attempt.
type Artifact struct {
	Prompt       string                `json:"prompt"`
	Conversation dialogue.Conversation `json:"conversation"`
	Eval         []evaluation.Verdict  `json:"eval"`
	CustomLog    []dialogue.LogEntry   `json:"custom_log"`
	Outcome      Outcome               `json:"outcome"`
	Attempts     int                   `json:"attempts"`
	RunID        string                `json:"run_id,omitempty"`
	SavedAt      time.Time             `json:"saved_at"`
}

// NewArtifact builds the artifact for a. The policy recorded is the one that
// produced a's conversation, never a later untested revision.
func NewArtifact(a *Attempt, outcome Outcome, runID string) *Artifact {
	art := &Artifact{
		Prompt:       a.Policy.String(),
		Conversation: a.Conversation,
		Eval:         a.Verdicts,
		CustomLog:    a.Log,
		Outcome:      outcome,
		Attempts:     a.Number,
		RunID:        runID,
		SavedAt:      time.Now().UTC(),
	}
	if art.Conversation == nil {
		art.Conversation = dialogue.Conversation{}
	}
	if art.Eval == nil {
		art.Eval = []evaluation.Verdict{}
	}
	if art.CustomLog == nil {
		art.CustomLog = []dialogue.LogEntry{}
	}
	return art
}

// Store persists artifacts.
type Store interface {
	Save(a *Artifact) error
}

// FileStore writes the artifact as indented JSON, overwriting any previous file.
type FileStore struct {
	Path string
}

// NewFileStore creates a store for path, defaulting to DefaultArtifactPath.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultArtifactPath
	}
	return &FileStore{Path: path}
}

// Save implements Store.
func (s *FileStore) Save(a *Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create artifact directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads an artifact written by FileStore.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return &a, nil
}
