package commands

import (
	"fmt"
	"path/filepath"

	"github.com/Aeva/whisperscope/internal/config"
	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write docshound.yaml into"`
}

func (i *InitCmd) Run(glob *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, config.DefaultFile)
	}
	if err := config.Init(path, i.Force); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "init failed").
			WithContext("path", path).
			UserAction().
			Build()
	}
	if glob != nil && glob.Out != nil {
		_, _ = fmt.Fprintf(glob.Out, "Wrote configuration to %s\n", path)
	}
	return nil
}
