package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goodfirst/goodfirst/internal/config"
)

// --- quiz ---

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take the skills quiz to build your profile",
	Long: `Take the skills quiz to build your profile.

Without flags the quiz runs interactively. Use --answers to submit
pre-selected option indexes (0-based, -1 to skip a question):

  goodfirst quiz --answers 0,2,1,-1,3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		answersStr, _ := cmd.Flags().GetString("answers")
		ctx := cmd.Context()

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var answers []int
		if answersStr != "" {
			answers, err = parseAnswers(answersStr)
			if err != nil {
				return err
			}
		} else {
			answers, err = runInteractiveQuiz(ctx, client)
			if err != nil {
				return err
			}
		}

		resp, err := client.post(ctx, "/v1/assessments", map[string]any{"answers": answers})
		if err != nil {
			return err
		}

		var result struct {
			ID       string `json:"id"`
			Keywords []struct {
				Term   string `json:"term"`
				Weight int    `json:"weight"`
			} `json:"keywords"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Profile saved (assessment %s)", result.ID)
		for _, kw := range result.Keywords {
			printStatus(kw.Term, "weight %d", kw.Weight)
		}
		return nil
	},
}

func parseAnswers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	answers := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid answer %q: expected option indexes like 0,2,1", p)
		}
		answers = append(answers, n)
	}
	return answers, nil
}

func runInteractiveQuiz(ctx context.Context, client *apiClient) ([]int, error) {
	resp, err := client.get(ctx, "/v1/taxonomy")
	if err != nil {
		return nil, err
	}

	var taxonomy struct {
		Questions []struct {
			Text    string `json:"text"`
			Options []struct {
				Text string `json:"text"`
			} `json:"options"`
		} `json:"questions"`
	}
	if err := decodeJSON(resp, &taxonomy); err != nil {
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)
	answers := make([]int, 0, len(taxonomy.Questions))
	for i, q := range taxonomy.Questions {
		fmt.Printf("\n%s\n", colorize(colorBold, fmt.Sprintf("%d. %s", i+1, q.Text)))
		for j, o := range q.Options {
			fmt.Printf("  [%d] %s\n", j, o.Text)
		}
		fmt.Print("Your choice (enter to skip): ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading answer: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			answers = append(answers, -1)
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 0 || n >= len(q.Options) {
			printWarning("Invalid choice %q, skipping question", line)
			answers = append(answers, -1)
			continue
		}
		answers = append(answers, n)
	}
	return answers, nil
}

func init() {
	quizCmd.Flags().String("answers", "", "comma-separated option indexes, -1 to skip")
}

// --- resume ---

var resumeCmd = &cobra.Command{
	Use:   "resume <file>",
	Short: "Upload a resume (PDF or plain text) for skill extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading resume: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]string{
			"filename": filepath.Base(path),
			"content":  base64.StdEncoding.EncodeToString(data),
		}
		resp, err := client.post(cmd.Context(), "/v1/resumes", req)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Resume %s queued for extraction", result["id"])
		printStep("Skills will appear in your profile shortly")
		return nil
	},
}

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Get ranked issue recommendations for your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		max, _ := cmd.Flags().GetInt("max")
		assessmentID, _ := cmd.Flags().GetString("assessment")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/v1/recommendations?max_results=%d", max)
		if assessmentID != "" {
			path += "&assessment_id=" + url.QueryEscape(assessmentID)
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var out struct {
			Results []struct {
				Title           string   `json:"title"`
				Description     string   `json:"description"`
				RepositoryPath  string   `json:"repository_path"`
				Skills          []string `json:"skills"`
				MatchPercentage int      `json:"match_percentage"`
				IssueURL        string   `json:"issue_url"`
				MatchBand       string   `json:"match_band"`
			} `json:"results"`
		}
		if err := decodeJSON(resp, &out); err != nil {
			return err
		}

		if len(out.Results) == 0 {
			fmt.Println("No matching issues found.")
			return nil
		}

		for i, r := range out.Results {
			score := fmt.Sprintf("%d%% %s", r.MatchPercentage, r.MatchBand)
			fmt.Printf("\n%s %s\n", colorize(colorBold, fmt.Sprintf("%d. %s", i+1, r.Title)), colorize(bandColor(r.MatchBand), "["+score+"]"))
			if r.RepositoryPath != "" {
				fmt.Printf("   %s\n", r.RepositoryPath)
			}
			if len(r.Skills) > 0 {
				fmt.Printf("   Skills: %s\n", strings.Join(r.Skills, ", "))
			}
			desc := r.Description
			if len(desc) > 200 {
				desc = desc[:200] + "..."
			}
			if desc != "" {
				fmt.Printf("   %s\n", desc)
			}
			fmt.Printf("   %s\n", colorize(colorCyan, r.IssueURL))
		}
		return nil
	},
}

func bandColor(band string) string {
	switch band {
	case "excellent", "strong":
		return colorGreen
	case "good":
		return colorYellow
	default:
		return colorReset
	}
}

func init() {
	recommendCmd.Flags().Int("max", 10, "maximum number of recommendations")
	recommendCmd.Flags().String("assessment", "", "rank against a specific assessment ID instead of the current profile")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past recommendation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/v1/history?limit=%d", limit))
		if err != nil {
			return err
		}

		var entries []struct {
			ID        string `json:"id"`
			Keywords  string `json:"keywords"`
			Fetched   int    `json:"fetched"`
			Returned  int    `json:"returned"`
			CreatedAt string `json:"created_at"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No recommendation runs yet.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  fetched %d, returned %d  %s\n",
				colorize(colorCyan, e.ID[:8]),
				e.CreatedAt,
				e.Fetched,
				e.Returned,
				e.Keywords,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			printError("%v", err)
			fmt.Fprintf(os.Stderr, "valid keys: %s\n", strings.Join(config.ValidKeys(), ", "))
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <github-token>",
	Short: "Store a GitHub token in the platform secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetGitHubToken(args[0]); err != nil {
			return err
		}
		printSuccess("GitHub token stored")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetTokenCmd)
}
