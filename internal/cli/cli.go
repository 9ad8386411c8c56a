// Package cli implements the formdata command.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/formdata"
	"github.com/reoring/formdata/formspec"
	"github.com/reoring/formdata/naming"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version string
	verbose bool
	silent  bool
	logger  *zap.Logger
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "formdata",
		Short:         "Validate multipart/form-data bodies against YAML form declarations",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initLogger()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	c.rootCmd.AddCommand(c.newParseCommand())
	c.rootCmd.AddCommand(c.newSchemaCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	defer c.sync()
	err := c.rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(c.rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// SetIO redirects the command's input and outputs.
func (c *CLI) SetIO(in io.Reader, out, errOut io.Writer) {
	c.rootCmd.SetIn(in)
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

// SetArgs overrides os.Args[1:].
func (c *CLI) SetArgs(args []string) { c.rootCmd.SetArgs(args) }

func (c *CLI) initLogger() error {
	if c.logger != nil {
		return nil
	}
	if c.silent {
		c.logger = zap.NewNop()
		return nil
	}
	var (
		logger *zap.Logger
		err    error
	)
	if c.verbose {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stderr"}
		logger, err = z.Build()
	} else {
		z := zap.NewProductionConfig()
		z.OutputPaths = []string{"stderr"}
		logger, err = z.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}

func (c *CLI) sync() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// loadForm reads a YAML form declaration. File fields may use the "counter"
// and "uuid" generators, both writing into dir.
func loadForm(path, dir string) (*formdata.Form, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return formspec.Load(f, formspec.Registry{
		"counter": naming.Counter(dir),
		"uuid":    naming.UUID(dir),
	})
}
