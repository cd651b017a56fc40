package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/jsq"
	"github.com/deepnoodle-ai/jsq/engine"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var inputFlags = []struct{ flag, format string }{
	{"json-in", "json"},
	{"yaml-in", "yaml"},
	{"toml-in", "toml"},
	{"json5-in", "json5"},
	{"csv-in", "csv"},
}

var outputFlags = []struct{ flag, format string }{
	{"json-out", "json"},
	{"yaml-out", "yaml"},
	{"toml-out", "toml"},
	{"json5-out", "json5"},
	{"csv-out", "csv"},
}

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fatal(err)
	}
}

func buildRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jsq [body]",
		Short: "Evaluate a JavaScript function and print the result",
		Long: "Evaluate a JavaScript function and print the result.\n\n" +
			"Input is available in BODY as $. Environment variables are\n" +
			"available in BODY prefixed by $.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runHandler,
	}

	flags := rootCmd.Flags()
	flags.BoolP("json-in", "j", false, "Parse input as JSON")
	flags.BoolP("yaml-in", "y", false, "Parse input as YAML")
	flags.BoolP("toml-in", "t", false, "Parse input as TOML")
	flags.BoolP("json5-in", "5", false, "Parse input as JSON5")
	flags.BoolP("csv-in", "c", false, "Parse input as CSV")
	flags.BoolP("json-out", "J", false, "Print output as JSON")
	flags.BoolP("yaml-out", "Y", false, "Print output as YAML")
	flags.BoolP("toml-out", "T", false, "Print output as TOML")
	flags.Bool("json5-out", false, "Print output as JSON5 (strict JSON syntax)")
	flags.BoolP("csv-out", "C", false, "Print output as CSV")
	flags.BoolP("no-out", "N", false, "Suppress result output")
	flags.BoolP("statements", "s", false, "Evaluate BODY as top-level statements")
	flags.StringP("file", "f", "", "Read the script from a file")
	flags.StringP("input", "i", "", "Read input from a file instead of stdin")
	flags.Bool("debug", false, "Log pipeline stages to stderr")
	flags.Bool("no-color", false, "Disable colored output")

	rootCmd.MarkFlagsMutuallyExclusive("json-in", "yaml-in", "toml-in", "json5-in", "csv-in")
	rootCmd.MarkFlagsMutuallyExclusive("json-out", "yaml-out", "toml-out", "json5-out", "csv-out", "no-out")
	viper.BindPFlags(flags)
	return rootCmd
}

func runHandler(cmd *cobra.Command, args []string) error {
	processGlobalFlags()

	cfg := jsq.Config{
		Script:       jsq.DefaultScript,
		InputFormat:  selectedFormat(inputFlags),
		OutputFormat: selectedFormat(outputFlags),
		Suppress:     viper.GetBool("no-out"),
	}
	if len(args) > 0 {
		cfg.Script = args[0]
	}
	if viper.GetBool("statements") {
		cfg.Mode = engine.StatementBlock
	}

	var err error
	if cfg.ScriptPath, err = expandPath(viper.GetString("file")); err != nil {
		return err
	}
	if cfg.InputPath, err = expandPath(viper.GetString("input")); err != nil {
		return err
	}

	stdinTerminal := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	// With no script, no script file, and nothing piped in, there is nothing
	// useful to evaluate: show the help text instead.
	if len(args) == 0 && cfg.ScriptPath == "" && cfg.InputPath == "" && stdinTerminal {
		return cmd.Help()
	}

	opts := []jsq.Option{
		jsq.WithStdinTerminal(stdinTerminal),
	}
	if viper.GetBool("debug") {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
		opts = append(opts, jsq.WithLogger(logger))
	}

	return jsq.Run(cmd.Context(), cfg, opts...)
}

func selectedFormat(flags []struct{ flag, format string }) string {
	for _, f := range flags {
		if viper.GetBool(f.flag) {
			return f.format
		}
	}
	return ""
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expanding path %q: %w", path, err)
	}
	return expanded, nil
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
}

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", color.New(color.FgRed).Sprint(s))
	os.Exit(1)
}
