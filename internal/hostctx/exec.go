package hostctx

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// RunCommand executes a subprocess with the workspace as working directory
// and returns its combined output. A positive timeout is mandatory: the host
// never shells out unbounded, even when the plugin's own timeout is
// unlimited.
func (c *Context) RunCommand(timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("subprocess requires a positive timeout")
	}

	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.root
	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("command %s timed out after %s: %w", name, timeout, ctx.Err())
	}
	return output, err
}
