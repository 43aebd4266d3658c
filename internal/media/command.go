package media

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// Command is an external tool invocation described as an explicit argument
// list. It is never passed through a shell.
type Command struct {
	Program string
	Args    []string
	Dir     string
}

// NewCommand starts a command for program.
func NewCommand(program string) *Command {
	return &Command{Program: program}
}

// Arg appends raw arguments.
func (c *Command) Arg(args ...string) *Command {
	c.Args = append(c.Args, args...)
	return c
}

// Flag appends a flag followed by its value. Empty values drop the flag.
func (c *Command) Flag(name, value string) *Command {
	if value == "" {
		return c
	}
	c.Args = append(c.Args, name, value)
	return c
}

// Input appends -i path.
func (c *Command) Input(path string) *Command {
	return c.Arg("-i", path)
}

// Output appends the output path. It must be called last.
func (c *Command) Output(path string) *Command {
	return c.Arg(path)
}

// InDir sets the working directory of the process.
func (c *Command) InDir(dir string) *Command {
	c.Dir = dir
	return c
}

// String renders the command for logs, quoting arguments with spaces.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Program)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			parts = append(parts, strconv.Quote(a))
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Exec builds the os/exec command bound to ctx.
func (c *Command) Exec(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	return cmd
}

// Runner executes commands. Tests swap in a recorder.
type Runner interface {
	// Run executes cmd and returns its combined output.
	Run(ctx context.Context, cmd *Command) ([]byte, error)
	// Output executes cmd and returns stdout only.
	Output(ctx context.Context, cmd *Command) ([]byte, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, cmd *Command) ([]byte, error) {
	return cmd.Exec(ctx).CombinedOutput()
}

// Output implements Runner.
func (ExecRunner) Output(ctx context.Context, cmd *Command) ([]byte, error) {
	return cmd.Exec(ctx).Output()
}
