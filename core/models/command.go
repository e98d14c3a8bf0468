package models

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandRequest is the structured request the front-end sends to the
// gateway. The front-end tokenizes free text; the gateway never sees it.
type CommandRequest struct {
	Correlation Correlation       `json:"correlation"`
	Command     string            `json:"command"`
	Args        map[string]string `json:"args"`
}

// CommandResponse is the synchronous reply to a command. Asynchronous
// completion (training) arrives later as a separate JobOutcome.
type CommandResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Command is one variant of the closed command vocabulary. Each variant
// carries its own typed arguments so an unknown or malformed command can
// never reach a worker.
type Command interface {
	CommandName() string
}

// TrainCommand submits a training run. Config is opaque to the gateway and
// passed through to the training worker.
type TrainCommand struct {
	Config string
}

// LoadModelCommand loads a registry entry into the deployment slot
type LoadModelCommand struct {
	Model   string
	Version int
}

// ClassifyCommand runs inference against the currently loaded model.
// Input is an image or sample-id payload, opaque to the gateway.
type ClassifyCommand struct {
	Input string
}

// RegistrySummaryCommand produces the formatted registry report
type RegistrySummaryCommand struct{}

// LogsCommand fetches the aggregated worker log buffers
type LogsCommand struct{}

// ChatCommand is delegated to the external reasoning collaborator
type ChatCommand struct {
	Text string
}

// DebugCommand is delegated to the external reasoning collaborator with the
// server logs attached
type DebugCommand struct {
	Text string
}

func (TrainCommand) CommandName() string           { return "train" }
func (LoadModelCommand) CommandName() string       { return "load_model" }
func (ClassifyCommand) CommandName() string        { return "classify" }
func (RegistrySummaryCommand) CommandName() string { return "registry_summary" }
func (LogsCommand) CommandName() string            { return "logs" }
func (ChatCommand) CommandName() string            { return "chat" }
func (DebugCommand) CommandName() string           { return "debug" }

// CommandNames lists the accepted command vocabulary
func CommandNames() []string {
	return []string{"train", "load_model", "classify", "registry_summary", "logs", "chat", "debug"}
}

// ParseCommand validates a raw (name, args) pair into a typed command.
// Validation happens here, before any worker call; failures are
// ErrInvalidCommand and never reach a worker.
func ParseCommand(name string, args map[string]string) (Command, error) {
	get := func(key string) (string, error) {
		v, ok := args[key]
		if !ok || strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%w: %s requires argument %q", ErrInvalidCommand, name, key)
		}
		return v, nil
	}

	switch name {
	case "train":
		config, err := get("config")
		if err != nil {
			return nil, err
		}
		return TrainCommand{Config: config}, nil

	case "load_model":
		model, err := get("model")
		if err != nil {
			return nil, err
		}
		versionStr, err := get("version")
		if err != nil {
			return nil, err
		}
		version, err := strconv.Atoi(versionStr)
		if err != nil || version < 1 {
			return nil, fmt.Errorf("%w: load_model version must be a positive integer, got %q", ErrInvalidCommand, versionStr)
		}
		return LoadModelCommand{Model: model, Version: version}, nil

	case "classify":
		input, err := get("input")
		if err != nil {
			return nil, err
		}
		return ClassifyCommand{Input: input}, nil

	case "registry_summary":
		return RegistrySummaryCommand{}, nil

	case "logs":
		return LogsCommand{}, nil

	case "chat":
		text, err := get("text")
		if err != nil {
			return nil, err
		}
		return ChatCommand{Text: text}, nil

	case "debug":
		// Debug text is optional; the collaborator falls back to a default prompt
		return DebugCommand{Text: args["text"]}, nil
	}

	return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, name)
}
