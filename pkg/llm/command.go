package llm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-callsim/pkg/exec"
	"github.com/mattsolo1/grove-callsim/pkg/failure"
)

// CommandClient implements Client using the llm command-line tool. The prompt
// is piped to stdin and stdout is the response.
type CommandClient struct {
	executor    exec.CommandExecutor
	binary      string
	model       string
	temperature float64
}

// NewCommandClient creates a client that executes the llm command.
func NewCommandClient(cfg Config) *CommandClient {
	return NewCommandClientWithExecutor(cfg, exec.NewRealCommandExecutor())
}

// NewCommandClientWithExecutor creates a CommandClient with a custom executor.
func NewCommandClientWithExecutor(cfg Config, executor exec.CommandExecutor) *CommandClient {
	return &CommandClient{
		executor:    executor,
		binary:      "llm",
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (c *CommandClient) args() []string {
	args := []string{}
	if c.model != "" {
		args = append(args, "-m", c.model)
	}
	if c.temperature > 0 {
		args = append(args, "-o", "temperature", strconv.FormatFloat(c.temperature, 'f', -1, 64))
	}
	return args
}

// Generate runs the llm command once.
func (c *CommandClient) Generate(ctx context.Context, prompt string) (string, error) {
	if _, err := c.executor.LookPath(c.binary); err != nil {
		return "", failure.Wrap(failure.InvalidConfig, fmt.Sprintf("%s command not found for model %s", c.binary, c.model), err)
	}

	startTime := time.Now()
	out, err := c.executor.Run(ctx, prompt, c.binary, c.args()...)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"model":    c.model,
			"duration": time.Since(startTime),
		}).Debug("llm command failed")
		return "", fmt.Errorf("llm command failed: %w", err)
	}

	log.WithFields(logrus.Fields{
		"model":          c.model,
		"duration":       time.Since(startTime),
		"response_bytes": len(out),
	}).Debug("llm command succeeded")
	return out, nil
}
