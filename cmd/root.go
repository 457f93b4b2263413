package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "studyaid",
	Short: "AI study aid: keyword highlighting, flashcards and semantic search",
	Long: `studyaid turns study material into highlighted notes. An LLM extracts
the key concepts of each material, the text is rendered with those
keywords highlighted, and each keyword opens a popup with its detail.
Flashcards are generated from the same keywords.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "studyaid.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
