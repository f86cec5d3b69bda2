package console

import (
	"context"
	"fmt"
	"strings"
)

// Command is one spoken command. It matches when any keyword appears anywhere
// in the utterance.
type Command struct {
	Name     string
	Keywords []string
	Synopsis string
	// Run executes the command. exit ends the console loop.
	Run func(ctx context.Context) (exit bool, err error)
}

// Registry holds commands in registration order. Matching walks that order,
// so an utterance containing several keywords resolves to the earliest
// registered command.
type Registry struct {
	cmds  []*Command
	names map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register adds a command. Duplicate names are rejected.
func (r *Registry) Register(c *Command) error {
	if _, exists := r.names[c.Name]; exists {
		return fmt.Errorf("command already registered: %s", c.Name)
	}
	r.names[c.Name] = struct{}{}
	r.cmds = append(r.cmds, c)
	return nil
}

// Match finds the first command with a keyword contained in heard.
func (r *Registry) Match(heard string) (*Command, bool) {
	heard = strings.ToLower(heard)
	for _, c := range r.cmds {
		for _, kw := range c.Keywords {
			if strings.Contains(heard, kw) {
				return c, true
			}
		}
	}
	return nil, false
}

// All returns the commands in registration order.
func (r *Registry) All() []*Command {
	return append([]*Command(nil), r.cmds...)
}

func (r *Registry) mustRegister(c *Command) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}
