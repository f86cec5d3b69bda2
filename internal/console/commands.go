package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"smartreminder/internal/core"
	"smartreminder/internal/speech"
	"smartreminder/internal/store"
)

func (c *Console) defaultRegistry() *Registry {
	r := NewRegistry()
	r.mustRegister(&Command{
		Name:     "add",
		Keywords: []string{"add", "new", "remind", "set"},
		Synopsis: "add a task, then say its time",
		Run:      c.runAdd,
	})
	r.mustRegister(&Command{
		Name:     "show",
		Keywords: []string{"show", "list"},
		Synopsis: "read out the scheduled tasks",
		Run:      c.runShow,
	})
	r.mustRegister(&Command{
		Name:     "delete",
		Keywords: []string{"delete", "remove"},
		Synopsis: "delete a task by its number",
		Run:      c.runDelete,
	})
	r.mustRegister(&Command{
		Name:     "exit",
		Keywords: []string{"exit", "quit", "stop"},
		Synopsis: "leave Smart Reminder",
		Run:      c.runExit,
	})
	r.mustRegister(&Command{
		Name:     "mics",
		Keywords: []string{"mics", "microphone"},
		Synopsis: "list audio capture devices",
		Run:      c.runMics,
	})
	r.mustRegister(&Command{
		Name:     "help",
		Keywords: []string{"help"},
		Synopsis: "list the commands",
		Run:      c.runHelp,
	})
	return r
}

func (c *Console) runAdd(ctx context.Context) (bool, error) {
	text, err := c.listen(ctx, promptTask)
	if err != nil || text == "" {
		if fatal := listenFatal(err); fatal != nil {
			return false, fatal
		}
		c.say(ctx, "No task detected.")
		return false, nil
	}
	phrase, err := c.listen(ctx, promptTime)
	if fatal := listenFatal(err); fatal != nil {
		return false, fatal
	}
	task, _, err := c.tasks.AddPhrase(ctx, text, phrase)
	switch {
	case errors.Is(err, core.ErrUnparseableTime):
		c.say(ctx, "Could not understand the time.")
		return false, nil
	case errors.Is(err, core.ErrEmptyText):
		c.say(ctx, "No task detected.")
		return false, nil
	case err != nil:
		return false, err
	}
	c.printf("Added: %q at %s\n", task.Text, task.Time)
	return false, nil
}

func (c *Console) runShow(ctx context.Context) (bool, error) {
	_, err := c.showTasks(ctx)
	return false, err
}

func (c *Console) showTasks(ctx context.Context) (int, error) {
	tasks, err := c.tasks.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		c.printf("No tasks scheduled.\n")
		c.say(ctx, "No tasks scheduled.")
		return 0, nil
	}
	c.printf("Scheduled tasks:\n")
	for i, t := range tasks {
		c.printf("%d. %s - %s\n", i+1, t.Text, t.Time)
	}
	if len(tasks) == 1 {
		c.say(ctx, "You have 1 task scheduled.")
	} else {
		c.say(ctx, fmt.Sprintf("You have %d tasks scheduled.", len(tasks)))
	}
	return len(tasks), nil
}

func (c *Console) runDelete(ctx context.Context) (bool, error) {
	count, err := c.showTasks(ctx)
	if err != nil || count == 0 {
		return false, err
	}
	heard, err := c.listen(ctx, promptIndex)
	if fatal := listenFatal(err); fatal != nil {
		return false, fatal
	}
	number, ok := parseNumber(heard)
	if !ok {
		c.say(ctx, "Invalid input. Cancelled.")
		return false, nil
	}
	task, err := c.tasks.DeleteAt(ctx, number-1)
	if errors.Is(err, store.ErrIndexOutOfRange) {
		c.say(ctx, "Task not found.")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.printf("Removed: %q at %s\n", task.Text, task.Time)
	return false, nil
}

func (c *Console) runExit(ctx context.Context) (bool, error) {
	c.printf("Exiting...\n")
	c.say(ctx, "Goodbye! Exiting Smart Reminder.")
	return true, nil
}

func (c *Console) runMics(ctx context.Context) (bool, error) {
	devices, err := speech.ListDevices(ctx, c.devicesCommand)
	if err != nil {
		c.logger.Warn("list capture devices", "err", err)
		c.say(ctx, "Could not list microphones.")
		return false, nil
	}
	if len(devices) == 0 {
		c.say(ctx, "No microphones found.")
		return false, nil
	}
	for i, d := range devices {
		c.printf("%d: %s\n", i, d)
	}
	c.say(ctx, fmt.Sprintf("Found %d microphones.", len(devices)))
	return false, nil
}

func (c *Console) runHelp(ctx context.Context) (bool, error) {
	for _, cmd := range c.registry.All() {
		c.printf("  %-8s %s (%s)\n", cmd.Name, cmd.Synopsis, strings.Join(cmd.Keywords, ", "))
	}
	c.say(ctx, promptCommand)
	return false, nil
}

// listenFatal drops recoverable capture failures and returns the rest.
func listenFatal(err error) error {
	if err == nil || errors.Is(err, speech.ErrNoSpeech) {
		return nil
	}
	return err
}

// parseNumber accepts "2", "2." or "number 2"; anything else is rejected.
func parseNumber(heard string) (int, bool) {
	fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(heard), "."))
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	if len(fields) > 2 || (len(fields) == 2 && fields[0] != "number") {
		return 0, false
	}
	return n, true
}
