package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/models"
	"github.com/diogo/eerieecho/internal/render"
)

// NewKeyCmd creates the API key management command
func NewKeyCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the Gemini API key",
		Long: `Store, inspect or remove the Gemini API key.

The key is kept in the credential store named in the config (a local file
by default, or the system keyring) and is only sent to the Gemini API.
The ` + config.APIKeyEnv + ` environment variable is used when the store is empty.

Get a key at ` + models.EndpointAPIKeyHelp,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [key]",
			Short: "Store an API key",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runKeySet(deps, flags, args)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runKeyClear(deps, flags)
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the masked API key and where it comes from",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runKeyShow(deps, flags)
			},
		},
	)

	return cmd
}

func runKeySet(deps *Dependencies, flags *globalFlags, args []string) error {
	cfg := deps.loadConfig(flags)
	settings, err := deps.openSettings(cfg)
	if err != nil {
		return err
	}

	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		key, err = promptKey(deps, cfg)
		if err != nil {
			return err
		}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("no API key given (use 'eerieecho key clear' to remove it)")
	}
	if err := settings.SetAPIKey(key); err != nil {
		return err
	}

	fmt.Fprintln(deps.Stdout, successStyle().Render("✓ API key saved ("+settings.MaskedKey()+")"))
	return nil
}

// promptKey reads the key without echo on a terminal, or a line from a pipe
func promptKey(deps *Dependencies, cfg config.Config) (string, error) {
	if deps.StdinIsTerminal != nil && deps.StdinIsTerminal() && deps.ReadPassword != nil {
		fmt.Fprintln(deps.Stderr, warnStyle().Render(
			"⚠ Your API key is stored locally ("+config.StoreLocation(cfg)+") and only sent to the Gemini API."))
		fmt.Fprint(deps.Stderr, "API key: ")
		data, err := deps.ReadPassword()
		fmt.Fprintln(deps.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return string(data), nil
	}

	if deps.Stdin == nil {
		return "", errors.New("no API key given")
	}
	line, err := bufio.NewReader(deps.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return line, nil
}

func runKeyClear(deps *Dependencies, flags *globalFlags) error {
	cfg := deps.loadConfig(flags)
	settings, err := deps.openSettings(cfg)
	if err != nil {
		return err
	}
	if err := settings.SetAPIKey(""); err != nil {
		return err
	}

	fmt.Fprintln(deps.Stdout, successStyle().Render("✓ API key removed from "+config.StoreLocation(cfg)))
	if os.Getenv(config.APIKeyEnv) != "" {
		fmt.Fprintln(deps.Stderr, warnStyle().Render("⚠ "+config.APIKeyEnv+" is still set in the environment"))
	}
	return nil
}

func runKeyShow(deps *Dependencies, flags *globalFlags) error {
	cfg := deps.loadConfig(flags)
	settings, err := deps.openSettings(cfg)
	if err != nil {
		return err
	}

	dim := lipgloss.NewStyle().Foreground(render.GetTUITheme().TextDim)
	if !settings.HasAPIKey() {
		fmt.Fprintln(deps.Stdout, "API key: not set (replies come from the fallback script)")
		fmt.Fprintln(deps.Stdout, dim.Render("Get one at "+models.EndpointAPIKeyHelp))
		return nil
	}

	fmt.Fprintln(deps.Stdout, "API key: "+settings.MaskedKey())
	source := config.StoreLocation(cfg)
	if settings.Source() == config.SourceEnv {
		source = config.APIKeyEnv + " environment variable"
	}
	fmt.Fprintln(deps.Stdout, dim.Render("Source:  "+source))
	return nil
}

func warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(render.GetTUITheme().Warning)
}
