package orchestrator

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedProducer returns canned responses per agent, cycling through each
// agent's script across rounds. It backs the CLI dry-run mode and the tests.
type ScriptedProducer struct {
	// Scripts maps agent ID to the sequence of responses it will give.
	Scripts map[string][]string

	// Model is reported as the generating model for every response.
	Model string

	mu    sync.Mutex
	calls map[string]int
}

// NewScriptedProducer creates a producer with the given per-agent scripts.
func NewScriptedProducer(scripts map[string][]string) *ScriptedProducer {
	return &ScriptedProducer{
		Scripts: scripts,
		Model:   "scripted",
		calls:   make(map[string]int),
	}
}

// Produce returns the agent's next scripted response. An agent with no
// script errors, which exercises the omit-on-failure path.
func (p *ScriptedProducer) Produce(ctx context.Context, agentID, prompt string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	script, ok := p.Scripts[agentID]
	if !ok || len(script) == 0 {
		return "", "", fmt.Errorf("no script for agent %q", agentID)
	}

	call := p.calls[agentID]
	p.calls[agentID] = call + 1
	if call >= len(script) {
		call = len(script) - 1 // repeat the last line once the script runs out
	}
	return script[call], p.Model, nil
}
