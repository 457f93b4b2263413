package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyaid/internal/audit"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show a user's recent study activity",
	Args:  cobra.NoArgs,
	RunE:  runActivity,
}

var activityPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete activity entries older than a given age",
	Args:  cobra.NoArgs,
	RunE:  runActivityPrune,
}

func init() {
	activityCmd.Flags().String("user", "", "email of the user (required)")
	activityCmd.Flags().String("action", "", "only show entries with this action")
	activityCmd.Flags().Int("limit", 20, "maximum number of entries")
	activityCmd.Flags().Bool("json", false, "output entries as JSON")
	_ = activityCmd.MarkFlagRequired("user")

	activityPruneCmd.Flags().Duration("older-than", 90*24*time.Hour, "age beyond which entries are deleted")

	activityCmd.AddCommand(activityPruneCmd)
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	email, _ := cmd.Flags().GetString("user")
	action, _ := cmd.Flags().GetString("action")
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

	user, err := a.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	entries, err := audit.NewStore(a.db).Query(ctx, audit.QueryFilter{
		UserID: user.ID,
		Action: audit.Action(action),
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		if entries == nil {
			entries = []audit.Entry{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No activity recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-21s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Action, e.Summary)
	}
	return nil
}

func runActivityPrune(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
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

	a, err := openApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := audit.NewStore(a.db).DeleteBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d activity entries.\n", n)
	return nil
}
