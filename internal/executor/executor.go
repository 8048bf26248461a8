package executor

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Executor runs external commands, capturing stdout into the given writer.
type Executor struct {
	stdout io.Writer
}

func New(stdout io.Writer) *Executor {
	return &Executor{stdout: stdout}
}

func (e *Executor) Run(ctx context.Context, command *Cmd) error {
	log.Debugf("> %s %s", command.Binary, strings.Join(command.args, " "))

	var stderr bytes.Buffer

	start := time.Now()

	cmd := exec.CommandContext(ctx, command.Binary, command.args...)
	cmd.Stdout = e.stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), command.envs...)
	err := cmd.Run()

	log.Debugf("%s finished in %s", command.Binary, time.Since(start))

	if err != nil {
		return errors.Wrapf(err, "%s failed: %s", command.Binary, strings.TrimSpace(stderr.String()))
	}

	return nil
}

type Cmd struct {
	Binary string
	args   []string
	envs   []string
}

func (c *Cmd) Add(args ...string) {
	c.args = append(c.args, args...)
}

func (c *Cmd) Env(env string) {
	c.envs = append(c.envs, env)
}

func (c *Cmd) Command() []string {
	return c.args
}
