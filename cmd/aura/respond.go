package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aura-labs/aura/internal/domain"
)

var respondCmd = &cobra.Command{
	Use:   "respond <session-id>",
	Short: "Answer the coach's questions for a session",
	Long: `Respond walks through a session's unanswered coach questions on the
terminal. Press enter on an empty line to skip a question explicitly;
skips are recorded so the editor knows the gap was acknowledged rather
than missed. With --compose, a fresh draft is generated afterwards with
your answers folded in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx := cmd.Context()
		sessionID := args[0]
		if _, err := repo.GetSession(ctx, sessionID); err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}

		questions, err := repo.ListQuestions(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("session %s has no questions yet, run the pipeline first", sessionID)
		}
		answered, err := repo.LatestResponses(ctx, sessionID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		reader := bufio.NewReader(cmd.InOrStdin())
		asked := 0
		for _, q := range questions {
			if _, ok := answered[q.ID]; ok {
				continue
			}
			asked++
			fmt.Fprintf(out, "\n%d. (%s) %s\n", q.Ordinal, q.Purpose, q.Text)
			if q.WhyNow != "" {
				fmt.Fprintf(out, "   why now: %s\n", q.WhyNow)
			}
			fmt.Fprint(out, "> ")

			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				break
			}
			answer := strings.TrimSpace(line)

			resp := &domain.Response{
				ID:         uuid.NewString(),
				QuestionID: q.ID,
				CreatedAt:  time.Now(),
			}
			if answer == "" || strings.EqualFold(answer, "skip") {
				resp.Text = domain.SkippedResponse
				resp.Skipped = true
				fmt.Fprintln(out, "   (skipped)")
			} else {
				resp.Text = answer
			}
			if err := repo.CreateResponse(ctx, resp); err != nil {
				return fmt.Errorf("save response: %w", err)
			}
		}

		if asked == 0 {
			fmt.Fprintln(out, "all questions already answered")
		}

		compose, _ := cmd.Flags().GetBool("compose")
		if !compose {
			return nil
		}

		platformFlag, _ := cmd.Flags().GetString("platform")
		orch := newOrchestrator(repo)
		plan, err := orch.Strategize(ctx, sessionID, domain.Platform(platformFlag), "", "")
		if err != nil {
			return err
		}
		draft, _, err := orch.ComposeDraft(ctx, sessionID, plan)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\ndraft %s (v%d):\n\n%s\n", draft.ID, draft.Version, draft.Content)
		fmt.Fprintf(out, "\nedit with: aura edit %s\n", draft.ID)
		return nil
	},
}

func init() {
	respondCmd.Flags().Bool("compose", false, "compose a new draft after answering")
	respondCmd.Flags().String("platform", string(domain.DefaultPlatform), "target platform for --compose")

	rootCmd.AddCommand(respondCmd)
}
