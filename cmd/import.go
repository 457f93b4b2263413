package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/studyaid/internal/audit"
	"github.com/ziadkadry99/studyaid/internal/progress"
	"github.com/ziadkadry99/studyaid/internal/study"
	"github.com/ziadkadry99/studyaid/internal/walker"
)

var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Import note files as study materials",
	Long: `Imports note files as study materials of the given user. Each PATH is a
file, a directory (walked recursively for Markdown, text and similar notes)
or a doublestar glob such as "notes/**/*.md". With --analyze the keywords of
each material are extracted right away.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("user", "", "email of the owning user (required)")
	importCmd.Flags().Bool("analyze", false, "extract keywords for each imported material")
	importCmd.Flags().Int("concurrency", 4, "number of files processed in parallel")
	importCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to skip")
	importCmd.Flags().Int64("max-size", walker.DefaultMaxFileSize, "skip files larger than this many bytes")
	_ = importCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("user")
	analyze, _ := cmd.Flags().GetBool("analyze")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	maxSize, _ := cmd.Flags().GetInt64("max-size")
	if concurrency < 1 {
		concurrency = 1
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := walker.Walk(walker.WalkerConfig{Patterns: args, Exclude: exclude, MaxFileSize: maxSize})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No files matched.")
		return nil
	}

	a, err := openApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	var analyzer *study.Analyzer
	if analyze {
		if analyzer, err = createAnalyzerFromConfig(cfg, log); err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
	}

	activity := audit.NewStore(a.db)
	reporter := progress.NewReporter()
	reporter.Start(len(files), "Importing")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, f := range files {
		path := f.Path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			content := string(data)
			if strings.TrimSpace(content) == "" {
				reporter.Done("skipped empty " + path)
				return nil
			}

			title := f.Title
			m, err := a.materials.Create(gctx, user.ID, &title, content)
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
			if analyzer != nil {
				keywords, err := analyzer.ExtractKeywords(gctx, content)
				if err != nil {
					// The material stays; it can be analyzed again from the web app.
					log.Warn().Err(err).Str("file", path).Msg("keyword extraction failed")
				} else if _, err := a.materials.SetKeywords(gctx, m.ID, user.ID, keywords); err != nil {
					return fmt.Errorf("storing keywords for %s: %w", path, err)
				}
			}
			if a.index != nil {
				a.index.Refresh(gctx, m.ID, user.ID)
			}
			if err := activity.Log(gctx, audit.Entry{
				UserID:     user.ID,
				Action:     audit.ActionMaterialCreated,
				MaterialID: &m.ID,
				Summary:    "Imported " + path,
			}); err != nil {
				log.Warn().Err(err).Str("file", path).Msg("recording activity")
			}
			reporter.Done(path)
			return nil
		})
	}
	err = g.Wait()
	reporter.Finish()

	a.persistVectors(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d file(s) for %s.\n", len(files), user.Email)
	return nil
}
