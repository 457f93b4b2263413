package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyaid/internal/materials"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Semantically search a user's study materials",
	Long:  `Searches the vector index using a natural language query and returns the user's most relevant study materials.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().String("user", "", "email of the user whose materials are searched (required)")
	queryCmd.Flags().Int("limit", 5, "maximum number of results")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	_ = queryCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryText := args[0]

	email, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := openApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.index == nil {
		return fmt.Errorf("semantic search needs an embedding provider; check embedding_provider and its API key")
	}
	user, err := a.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	hits, err := a.index.Search(ctx, user.ID, queryText, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if jsonOutput {
		return printQueryResultsJSON(hits)
	}

	printQueryResultsTable(hits)
	return nil
}

type queryResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	MaterialID string  `json:"material_id"`
	Title      string  `json:"title"`
	Keyword    string  `json:"keyword,omitempty"`
	Summary    string  `json:"summary"`
}

func printQueryResultsJSON(hits []materials.SearchHit) error {
	var out []queryResultJSON
	for i, h := range hits {
		out = append(out, queryResultJSON{
			Rank:       i + 1,
			Similarity: float64(h.Similarity),
			MaterialID: h.Material.ID,
			Title:      h.Material.DisplayTitle(),
			Keyword:    h.Keyword,
			Summary:    truncate(h.Material.Content, 200),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printQueryResultsTable(hits []materials.SearchHit) {
	fmt.Printf("Found %d results:\n\n", len(hits))
	for i, h := range hits {
		keyword := ""
		if h.Keyword != "" {
			keyword = fmt.Sprintf(" (keyword: %s)", h.Keyword)
		}

		fmt.Printf("  %d. [%.1f%%] %s%s\n", i+1, h.Similarity*100, h.Material.DisplayTitle(), keyword)
		fmt.Printf("     ID: %s\n", h.Material.ID)
		fmt.Printf("     %s\n\n", truncate(h.Material.Content, 120))
	}
}
