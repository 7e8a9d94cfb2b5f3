// Package git reads the state of the working tree being benchmarked.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client runs git in a directory.
type Client struct {
	// Dir is the working tree; empty means the current directory.
	Dir string
}

// NewClient creates a Client for dir.
func NewClient(dir string) *Client {
	return &Client{Dir: dir}
}

// CurrentCommitSHA returns the full hash of HEAD.
func (c *Client) CurrentCommitSHA(ctx context.Context) (string, error) {
	return c.run(ctx, "rev-parse", "HEAD")
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(out.String()), nil
}
