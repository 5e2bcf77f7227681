package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aura-labs/aura/internal/editing"
	"github.com/aura-labs/aura/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit <draft-id>",
	Short: "Open a draft in the terminal editor",
	Long: `Edit opens a saved draft in a full-screen terminal editor. Changes
autosave after a quiet period and a final save runs on exit, so closing
the editor never loses work. Concurrent edits from another surface are
detected and surfaced instead of silently overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		draft, err := repo.GetDraft(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("draft %s: %w", args[0], err)
		}

		debounce := editing.DefaultDebounce
		if v := os.Getenv("AUTOSAVE_DEBOUNCE"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				debounce = d
			}
		}

		session := editing.NewSession(&editing.StoreSaver{Repo: repo}, draft, debounce, nil)
		return tui.Run(session)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
