// Package commands provides CLI commands for eerieecho.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/eerieecho/internal/config"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand
type globalFlags struct {
	theme   string
	model   string
	verbose bool
}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	flags := &globalFlags{}
	ask := &askOptions{}

	cmd := &cobra.Command{
		Use:   "eerieecho [message]",
		Short: "A themed terminal chat backed by Gemini",
		Long: `eerieecho is a terminal chat with a persona. Replies come from the Gemini
generateContent API when an API key is configured, and from the theme's
scripted lines otherwise.

Examples:
  eerieecho                           Start the chat
  eerieecho key set                   Store your Gemini API key
  eerieecho --theme kalajadu          Chat with another persona
  eerieecho "Who is there?"           Ask once and print the reply
  cat note.md | eerieecho             Read the message from stdin
  eerieecho config                    Configure settings`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "eerieecho %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if len(args) > 0 || ask.file != "" || deps.stdinIsPiped() {
				return runAsk(cmd.Context(), deps, flags, ask, args)
			}
			return runChat(cmd.Context(), deps, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.theme, "theme", "t", "", "Chat theme (e.g., eerieecho, kalajadu)")
	cmd.PersistentFlags().StringVarP(&flags.model, "model", "m", "",
		"Model to use ("+strings.Join(config.AvailableModels(), ", ")+" or a full model name)")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Write debug logs to the log file")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")
	ask.bind(cmd)

	cmd.AddCommand(
		NewChatCmd(deps, flags),
		NewAskCmd(deps, flags),
		NewKeyCmd(deps, flags),
		NewConfigCmd(deps, flags),
		NewThemesCmd(deps, flags),
	)

	return cmd
}

// Execute runs the root command
func Execute() {
	deps := NewDependencies()
	if err := NewRootCmd(deps).Execute(); err != nil {
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

func (d *Dependencies) stdinIsPiped() bool {
	if d.Stdin == nil || d.StdinIsTerminal == nil {
		return false
	}
	return !d.StdinIsTerminal()
}
