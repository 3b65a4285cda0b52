package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mhpenta/copilot"
	"github.com/mhpenta/copilot/internal/config"
	"github.com/mhpenta/copilot/markdown"
	"github.com/mhpenta/copilot/ui"
)

// rootOptions holds the persistent flags. Flags override config file and
// environment values only when set.
type rootOptions struct {
	configPath string
	backend    string
	endpoint   string
	display    int
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "copilot",
		Short: "Hackathon Co-Pilot: an architect, a coder and a debugger backed by local models",
		Long: "Hackathon Co-Pilot runs three AI agents against a local Ollama server.\n" +
			"Without a subcommand it starts the terminal UI.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl := ui.NewController(a.runner, ui.WithLogger(a.logger))
			return ui.Run(cmd.Context(), ctrl)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default: ./copilot.yaml or <user config dir>/copilot/copilot.yaml)")
	f.StringVar(&opts.backend, "backend", "", "inference backend: ollama or gemini")
	f.StringVar(&opts.endpoint, "endpoint", "", "Ollama generate endpoint URL")
	f.IntVar(&opts.display, "display", 0, "display to capture for the debugger (-1 = all displays)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to this file")

	cmd.AddCommand(
		newArchitectCmd(opts),
		newCoderCmd(opts),
		newDebugCmd(opts),
		newModelsCmd(opts),
	)
	return cmd
}

func newArchitectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "architect <idea...>",
		Short:   "Break a project idea into a numbered plan (" + copilot.Architect.Model.String() + ")",
		Example: `  copilot architect "A simple weather app using Python"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, opts, copilot.Architect, strings.Join(args, " "), false)
		},
	}
}

func newCoderCmd(opts *rootOptions) *cobra.Command {
	var codeOnly bool

	cmd := &cobra.Command{
		Use:   "coder <task...>",
		Short: "Write a code snippet for a task (" + copilot.Coder.Model.String() + ")",
		Example: `  copilot coder "Write a Python function to get weather data from an API"
  copilot coder --code-only "Reverse a string in Go" > reverse.go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, opts, copilot.Coder, strings.Join(args, " "), codeOnly)
		},
	}
	cmd.Flags().BoolVar(&codeOnly, "code-only", false, "print only the fenced code blocks of the response")
	return cmd
}

func newDebugCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Capture the screen and explain the error on it (" + copilot.Debugger.Model.String() + ")",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgent(cmd, opts, copilot.Debugger, "", false)
		},
	}
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the agents and the models serving them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			infos := a.manager.ListModelsInfo()
			sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "AGENT\tMODEL")
			for _, agent := range copilot.Agents() {
				fmt.Fprintf(w, "%s\t%s\n", agent.Title, agent.Model)
			}
			fmt.Fprintln(w)

			fmt.Fprintln(w, "MODEL\tNAME\tPROVIDER\tAPI MODEL\tIMAGES")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
					info.Name, info.DisplayName, info.Provider.DisplayName(),
					info.APIModelName, info.Capabilities.SupportsImages)
			}
			return w.Flush()
		},
	}
}

// runAgent invokes one agent and prints its response. A failed invocation
// is returned as its display text.
func runAgent(cmd *cobra.Command, opts *rootOptions, agent copilot.Agent, input string, codeOnly bool) error {
	a, err := newApp(cmd, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome := a.runner.Invoke(cmd.Context(), agent, input)
	if !outcome.OK() {
		return outcome.Err
	}

	text := outcome.Text
	if codeOnly {
		text = markdown.CodeOnly(text)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

// applyFlags overrides cfg with the flags that were set explicitly.
func applyFlags(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if flags.Changed("endpoint") {
		cfg.Ollama.Endpoint = opts.endpoint
	}
	if flags.Changed("display") {
		cfg.Capture.Display = opts.display
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	return cfg.Validate()
}
