package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forme-app/forme/internal/config"
	"github.com/forme-app/forme/internal/pipeline"
	"github.com/forme-app/forme/internal/risk"
)

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a product's ingredient list against your profile",
	Long: `Score a product's ingredient list against your profile.

Examples:
  forme analyze --user me --text "water, glycerin, fragrance" --category cosmetics
  forme analyze --user me --file ./label.txt --name "Daily Shampoo"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")
		categoryHint, _ := cmd.Flags().GetString("category")
		name, _ := cmd.Flags().GetString("name")
		asJSON, _ := cmd.Flags().GetBool("json")

		if text == "" && file == "" {
			return fmt.Errorf("one of --text or --file is required")
		}
		if text != "" && file != "" {
			return fmt.Errorf("--text and --file are mutually exclusive")
		}
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			text = string(data)
			if name == "" {
				name = filepath.Base(file)
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/analyze", pipeline.Request{
			UserID:       userID,
			RawText:      text,
			ProductName:  name,
			CategoryHint: categoryHint,
		})
		if err != nil {
			return err
		}

		var result pipeline.Result
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printScorecard(result)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("user", "default", "user whose profile to score against")
	analyzeCmd.Flags().String("text", "", "ingredient list as printed on the label")
	analyzeCmd.Flags().String("file", "", "file containing the ingredient list")
	analyzeCmd.Flags().String("category", "", "category hint: food, cosmetics, or household")
	analyzeCmd.Flags().String("name", "", "product name for the analysis history")
	analyzeCmd.Flags().Bool("json", false, "print the full result as JSON")
}

func printScorecard(result pipeline.Result) {
	score := result.Score
	fmt.Printf("\n%s %s\n",
		colorize(colorBold, "FOR ME"),
		colorize(scoreColor(score.ForMeScore), fmt.Sprintf("%d/100", score.ForMeScore)))
	fmt.Printf("  Category:    %s\n", score.Category)
	fmt.Printf("  Safety:      %d\n", score.SafetyScore)
	fmt.Printf("  Sensitivity: %d\n", score.SensitivityScore)
	fmt.Printf("  Match:       %d\n", score.MatchScore)

	for _, issue := range score.SafetyIssues {
		fmt.Printf("  %s %s\n", colorize(colorRed, "!"), issue)
	}
	for _, issue := range score.SensitivityIssues {
		fmt.Printf("  %s %s\n", colorize(colorYellow, "~"), issue)
	}

	if result.ProfileMinimal {
		printWarning("Your profile is minimal; scores reflect general guidance only")
	}
}

// --- label ---

var labelCmd = &cobra.Command{
	Use:   "label <path>",
	Short: "Submit a label document (text, PDF, or HTML) for background analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		categoryHint, _ := cmd.Flags().GetString("category")
		name, _ := cmd.Flags().GetString("name")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading label: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/labels", map[string]any{
			"user_id":       userID,
			"filename":      filepath.Base(args[0]),
			"content":       base64.StdEncoding.EncodeToString(data),
			"product_name":  name,
			"category_hint": categoryHint,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Queued label job %s", result["job_id"])
		return nil
	},
}

func init() {
	labelCmd.Flags().String("user", "default", "user whose profile to score against")
	labelCmd.Flags().String("category", "", "category hint: food, cosmetics, or household")
	labelCmd.Flags().String("name", "", "product name for the analysis history")
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/users/"+url.PathEscape(userID)+"/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

var profileSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a one-line profile summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/users/"+url.PathEscape(userID)+"/profile/summary")
		if err != nil {
			return err
		}

		var result struct {
			Summary   string `json:"summary"`
			IsMinimal bool   `json:"is_minimal"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Summary)
		if result.IsMinimal {
			printWarning("Profile is minimal; add allergies, sensitivities, or goals for better scores")
		}
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single profile field",
	Long: `Set a single profile field. The value is parsed as JSON when possible,
so list fields take JSON arrays:

  forme profile set skin_type dry
  forme profile set cosmetics_sensitivities '["fragrance","sls"]'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		key, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/users/" + url.PathEscape(userID) + "/profile"
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var fields map[string]any
		if err := decodeJSON(resp, &fields); err != nil {
			return err
		}

		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		fields[key] = parsed

		putResp, err := client.put(cmd.Context(), path, fields)
		if err != nil {
			return err
		}
		defer putResp.Body.Close()

		if putResp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", putResp.StatusCode)
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open a profile JSON in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/users/" + url.PathEscape(userID) + "/profile"
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}

		tmpFile, err := os.CreateTemp("", "forme-profile-*.json")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		tmpPath := tmpFile.Name()
		defer os.Remove(tmpPath)

		if _, err := tmpFile.Write(data); err != nil {
			tmpFile.Close()
			return err
		}
		tmpFile.Close()

		editorCmd := exec.Command(editor, tmpPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr
		if err := editorCmd.Run(); err != nil {
			return fmt.Errorf("editor exited with error: %w", err)
		}

		edited, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		var fields map[string]any
		if err := json.Unmarshal(edited, &fields); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		putResp, err := client.put(cmd.Context(), path, fields)
		if err != nil {
			return err
		}
		defer putResp.Body.Close()

		if putResp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", putResp.StatusCode)
		}

		printSuccess("Profile updated")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{profileShowCmd, profileSummaryCmd, profileSetCmd, profileEditCmd} {
		c.Flags().String("user", "default", "user whose profile to manage")
	}
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSummaryCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileEditCmd)
}

// --- reaction ---

var reactionCmd = &cobra.Command{
	Use:   "reaction",
	Short: "Record negative reactions to ingredients",
}

var reactionAddCmd = &cobra.Command{
	Use:   "add <ingredient>",
	Short: "Record a negative reaction to an ingredient",
	Long: `Record a negative reaction to an ingredient.

Reactions reported with --frequency always lower the sensitivity score of
future analyses that contain the ingredient.

Examples:
  forme reaction add fragrance --frequency always --reaction redness
  forme reaction add "whole milk" --frequency sometimes --domain food`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		reaction, _ := cmd.Flags().GetString("reaction")
		frequency, _ := cmd.Flags().GetString("frequency")
		severity, _ := cmd.Flags().GetString("severity")
		domain, _ := cmd.Flags().GetString("domain")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/users/"+url.PathEscape(userID)+"/reactions", map[string]any{
			"ingredient": args[0],
			"reaction":   reaction,
			"frequency":  frequency,
			"severity":   severity,
			"domain":     domain,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Recorded reaction to %s", args[0])
		return nil
	},
}

func init() {
	reactionAddCmd.Flags().String("user", "default", "user reporting the reaction")
	reactionAddCmd.Flags().String("reaction", "", "what happened (e.g. redness, bloating)")
	reactionAddCmd.Flags().String("frequency", "", "how often it happens: sometimes, often, or always")
	reactionAddCmd.Flags().String("severity", "", "mild, moderate, or severe")
	reactionAddCmd.Flags().String("domain", "", "category the reaction is scoped to: food, cosmetics, or household")
	reactionCmd.AddCommand(reactionAddCmd)
}

// --- analyses ---

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "List recent analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/users/%s/analyses?limit=%d", url.PathEscape(userID), limit)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var analyses []struct {
			ID          string `json:"id"`
			CreatedAt   string `json:"created_at"`
			Category    string `json:"category"`
			ProductName string `json:"product_name"`
			ResultJSON  string `json:"result_json"`
		}
		if err := decodeJSON(resp, &analyses); err != nil {
			return err
		}

		if len(analyses) == 0 {
			fmt.Println("No analyses found.")
			return nil
		}

		for _, a := range analyses {
			name := a.ProductName
			if name == "" {
				name = "(unnamed)"
			}
			var score struct {
				ForMeScore int `json:"for_me_score"`
			}
			scoreLabel := "-"
			if json.Unmarshal([]byte(a.ResultJSON), &score) == nil {
				scoreLabel = colorize(scoreColor(score.ForMeScore), fmt.Sprintf("%3d", score.ForMeScore))
			}
			fmt.Printf("%s  %s  %-10s %s  %s\n",
				colorize(colorCyan, a.ID[:8]),
				a.CreatedAt,
				a.Category,
				scoreLabel,
				name,
			)
		}
		return nil
	},
}

func init() {
	analysesCmd.Flags().String("user", "default", "user whose analyses to list")
	analysesCmd.Flags().Int("limit", 20, "maximum number of analyses to list")
}

// --- dictionary ---

var dictionaryCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "Inspect risk dictionaries",
}

var dictionaryCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Validate a risk dictionary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := risk.Load(args[0])
		if err != nil {
			return err
		}

		printStatus("Exact entries", "%d", len(dict.Exact))
		printStatus("Synonyms", "%d", len(dict.Synonyms))
		printSuccess("Dictionary %s is valid", args[0])
		return nil
	},
}

var dictionaryLookupCmd = &cobra.Command{
	Use:   "lookup <ingredient>",
	Short: "Show the risk tags an ingredient resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dictionary")

		dict := risk.Default()
		if path != "" {
			var err error
			dict, err = risk.Load(path)
			if err != nil {
				return err
			}
		}

		tags := risk.NewResolver(dict).Lookup(args[0])
		if len(tags) == 0 {
			fmt.Println("no risk tags")
			return nil
		}
		for _, tag := range tags {
			fmt.Println(tag)
		}
		return nil
	},
}

func init() {
	dictionaryLookupCmd.Flags().String("dictionary", "", "risk dictionary file (default: built-in)")
	dictionaryCmd.AddCommand(dictionaryCheckCmd)
	dictionaryCmd.AddCommand(dictionaryLookupCmd)
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

		keys := config.ShowAll(cfg)
		for _, k := range keys {
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
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
