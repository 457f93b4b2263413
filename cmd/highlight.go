package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/studyaid/internal/highlight"
)

const (
	ansiKeyword = "\x1b[1;33m"
	ansiReset   = "\x1b[0m"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight FILE",
	Short: "Highlight keywords in a text file",
	Long: `Runs the keyword matcher over FILE ("-" for stdin) and prints the text
with keywords highlighted, followed by each matched keyword's detail.

The keywords file holds a YAML or JSON list of {keyword, detail} entries.`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	highlightCmd.Flags().StringP("keywords", "k", "", "YAML or JSON file with the keyword list (required)")
	highlightCmd.Flags().Bool("json", false, "output the segments as JSON")
	highlightCmd.Flags().Bool("no-color", false, "mark keywords with [brackets] instead of ANSI colors")
	_ = highlightCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(highlightCmd)
}

func runHighlight(cmd *cobra.Command, args []string) error {
	keywordsPath, _ := cmd.Flags().GetString("keywords")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	text, err := readInput(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	keywords, err := loadKeywords(keywordsPath)
	if err != nil {
		return err
	}

	segs := highlight.Match(text, keywords)
	out := cmd.OutOrStdout()
	if jsonOutput {
		if segs == nil {
			segs = []highlight.Segment{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(segs)
	}

	color := !noColor && out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
	printHighlighted(out, segs, color)
	return nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// loadKeywords reads a keyword list. JSON is valid YAML, so one decoder
// serves both formats.
func loadKeywords(path string) ([]highlight.KeywordEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keywords: %w", err)
	}
	var keywords []highlight.KeywordEntry
	if err := yaml.Unmarshal(data, &keywords); err != nil {
		return nil, fmt.Errorf("parsing keywords %s: %w", path, err)
	}
	if err := highlight.Validate(keywords); err != nil {
		return nil, fmt.Errorf("keywords %s: %w", path, err)
	}
	return keywords, nil
}

// printHighlighted writes the text with keywords marked, then a legend of
// the matched keywords in order of first appearance.
func printHighlighted(w io.Writer, segs []highlight.Segment, color bool) {
	var matched []*highlight.KeywordEntry
	seen := make(map[*highlight.KeywordEntry]bool)

	var sb strings.Builder
	for _, s := range segs {
		switch s.Kind {
		case highlight.KindText:
			sb.WriteString(s.Content)
		case highlight.KindKeyword:
			if color {
				sb.WriteString(ansiKeyword + s.Content + ansiReset)
			} else {
				sb.WriteString("[" + s.Content + "]")
			}
			if s.Keyword != nil && !seen[s.Keyword] {
				seen[s.Keyword] = true
				matched = append(matched, s.Keyword)
			}
		}
	}
	fmt.Fprintln(w, strings.TrimRight(sb.String(), "\n"))

	if len(matched) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, k := range matched {
		fmt.Fprintf(w, "  %s: %s\n", k.Keyword, k.Detail)
	}
}
