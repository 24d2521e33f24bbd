package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrConverterFailed wraps every failure of an external converter process.
var ErrConverterFailed = errors.New("converter failed")

// Pandoc converts by running `pandoc --from markdown --to rst`, one process
// per call, so concurrent use is safe.
type Pandoc struct {
	Path string
	From string
	To   string
}

// NewPandoc returns a Pandoc converter using the binary at path, or "pandoc"
// from PATH when path is empty.
func NewPandoc(path string) *Pandoc {
	if path == "" {
		path = "pandoc"
	}
	return &Pandoc{Path: path, From: "markdown", To: "rst"}
}

// Convert implements Converter.
func (p *Pandoc) Convert(ctx context.Context, markdown string) (string, error) {
	cmd := exec.CommandContext(ctx, p.Path, "--from", p.From, "--to", p.To)
	cmd.Stdin = strings.NewReader(markdown)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrConverterFailed, p.Path, err, msg)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrConverterFailed, p.Path, err)
	}
	return stdout.String(), nil
}
