package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aura-labs/aura/internal/domain"
	"github.com/aura-labs/aura/internal/pipeline"
	"github.com/aura-labs/aura/internal/store"
)

// localUserID scopes CLI-created sessions. The CLI always operates as
// one local author, so ownership checks reduce to this constant.
const localUserID = "local"

var runCmd = &cobra.Command{
	Use:   "run <content-file>",
	Short: "Run a content file through the full pipeline",
	Long: `Run reads raw learning content from a file, creates a session, and runs
the reviewer, coach, strategist, and editor stages. The coach's questions
are printed for later answering with "aura respond"; answers already
recorded are folded into the draft.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read content file: %w", err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return fmt.Errorf("content file %s is empty", args[0])
		}

		repo, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		platformFlag, _ := cmd.Flags().GetString("platform")
		platform := domain.Platform(platformFlag)
		goal, _ := cmd.Flags().GetString("goal")
		tone, _ := cmd.Flags().GetString("tone")

		ctx := cmd.Context()
		sess := &domain.Session{
			ID:      uuid.NewString(),
			UserID:  localUserID,
			Title:   title,
			Type:    domain.SourceFile,
			Content: string(content),
			Status:  domain.StatusIdle,
		}
		if err := repo.CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		orch := newOrchestrator(repo)
		result, err := orch.Run(ctx, sess.ID, platform, goal, tone)
		if err != nil {
			return err
		}

		printResult(cmd, sess.ID, result)
		return nil
	},
}

func init() {
	runCmd.Flags().String("title", "", "session title (default: content file name)")
	runCmd.Flags().String("platform", string(domain.DefaultPlatform), "target platform: xiaohongshu, x, or wechat")
	runCmd.Flags().String("goal", "", "publishing goal passed to the strategist")
	runCmd.Flags().String("tone", "", "desired tone passed to the strategist")

	rootCmd.AddCommand(runCmd)
}

// openStore opens the SQLite repository from the --db flag or DB_PATH.
func openStore(cmd *cobra.Command) (store.Repository, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = os.Getenv("DB_PATH")
	}
	if path == "" {
		path = "aura.db"
	}
	repo, err := store.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return repo, nil
}

// newOrchestrator builds a pipeline over the configured generator:
// remote when GENERATOR_URL is set, rule-based otherwise.
func newOrchestrator(repo store.Repository) *pipeline.Orchestrator {
	var gen pipeline.Generator = pipeline.NewRuleGenerator()
	if url := os.Getenv("GENERATOR_URL"); url != "" {
		if httpGen, err := pipeline.NewHTTPGenerator(pipeline.HTTPGeneratorConfig{
			BaseURL:        url,
			RequestTimeout: 60 * time.Second,
		}, nil); err == nil {
			gen = httpGen
		}
	}
	return pipeline.NewOrchestrator(repo, gen, 60*time.Second, nil, nil)
}

func printResult(cmd *cobra.Command, sessionID string, result *pipeline.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "session: %s\n\n", sessionID)

	fmt.Fprintf(out, "critique: %d problems\n", len(result.Critique.Problems))
	for _, p := range result.Critique.Problems {
		fmt.Fprintf(out, "  [%s] %s\n", p.Category, p.Issue)
	}

	fmt.Fprintf(out, "\nquestions (answer with \"aura respond %s\"):\n", sessionID)
	for _, q := range result.Questions {
		fmt.Fprintf(out, "  %d. (%s) %s\n", q.Ordinal, q.Purpose, q.Text)
	}

	fmt.Fprintf(out, "\nplan for %s:\n", result.Plan.Platform)
	for _, d := range result.Plan.Directives {
		fmt.Fprintf(out, "  [%s] %s\n", d.Concern, d.Text)
	}

	fmt.Fprintf(out, "\ndraft %s (v%d):\n\n%s\n", result.Draft.ID, result.Draft.Version, result.Draft.Content)
	if result.Draft.HasUnresolvedFigures() {
		fmt.Fprintln(out, "\nnote: the draft contains figure placeholders awaiting a source")
	}
	fmt.Fprintf(out, "\nedit with: aura edit %s\n", result.Draft.ID)
}
