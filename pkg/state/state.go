package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// State remembers the most recent simulation run.
type State struct {
	LastArtifact string `yaml:"last_artifact,omitempty"`
	LastRunID    string `yaml:"last_run_id,omitempty"`
	LastOutcome  string `yaml:"last_outcome,omitempty"`
}

// stateFilePath returns the path to the state file.
func stateFilePath() (string, error) {
	// Resolution starts from the working directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current directory: %w", err)
	}
	return stateFilePathFrom(cwd), nil
}

// stateFilePathFrom walks up from dir looking for .git and places the state
// file under .grove at that root, or under dir when no repository is found.
func stateFilePathFrom(dir string) string {
	start := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			// Repository root: keep state next to the project's other grove files
			return filepath.Join(dir, ".grove", "callsim-state.yml")
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Hit the filesystem root without a repository
			// Fall back to the starting directory
			return filepath.Join(start, ".grove", "callsim-state.yml")
		}
		dir = parent
	}
}

// LoadState loads the state from the state file.
func LoadState() (*State, error) {
	path, err := stateFilePath()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No run recorded yet
			return &State{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return &state, nil
}

// SaveState saves the state to the state file.
func SaveState(state *State) error {
	path, err := stateFilePath()
	if err != nil {
		return err
	}
	return saveTo(path, state)
}

func saveTo(path string, state *State) error {
	// Create .grove on first save
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// RecordRun stores the artifact location and outcome of a finished run.
// Relative artifact paths are made absolute.
func RecordRun(artifactPath, runID, outcome string) error {
	// Record an absolute path
	abs, err := filepath.Abs(artifactPath)
	if err != nil {
		return fmt.Errorf("resolve artifact path: %w", err)
	}
	return SaveState(&State{LastArtifact: abs, LastRunID: runID, LastOutcome: outcome})
}

// GetLastArtifact returns the artifact path of the most recent run, or "".
func GetLastArtifact() (string, error) {
	state, err := LoadState()
	if err != nil {
		return "", err
	}
	return state.LastArtifact, nil
}
