package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/diogo/eerieecho/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the current theme's persona.

Replies come from Gemini when an API key is set and from the theme's
scripted lines otherwise. Press ctrl+s to manage the key, /copy to copy
the last reply, and type 'exit' or press ctrl+c to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps, flags)
		},
	}
}

func runChat(ctx context.Context, deps *Dependencies, flags *globalFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	notices := tui.NewNotices()
	s, err := deps.openSession(flags, notices)
	if err != nil {
		return err
	}
	defer s.Close()

	return deps.TUI.RunChat(ctx, tui.ChatOptions{
		Controller: s.controller,
		Settings:   s.settings,
		Theme:      s.theme,
		Config:     s.cfg,
		ModelName:  s.client.GetModel().Name,
		Notices:    notices,
		Logger:     s.logger,
	})
}
