package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/moodon/internal/profile"
)

var (
	prefsOutput string
	prefsFile   string
	prefsGender string
	prefsBirth  string
	prefsMBTI   string
	prefsStyles []string
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or set style preferences",
	Long: `Show or set the answers of the preference survey.

Examples:
  moodon prefs
  moodon prefs show --output json
  moodon prefs set --mbti INFP --styles 빈티지,내추럴
  moodon prefs set --file prefs.yaml`,
	RunE: runPrefsShow,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored preferences",
	RunE:  runPrefsShow,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update preferences",
	RunE:  runPrefsSet,
}

func init() {
	prefsCmd.PersistentFlags().StringVarP(&prefsOutput, "output", "o", "yaml", "output format: yaml or json")

	prefsSetCmd.Flags().StringVarP(&prefsFile, "file", "f", "", "YAML file with preferences")
	prefsSetCmd.Flags().StringVar(&prefsGender, "gender", "", "gender (male, female, other)")
	prefsSetCmd.Flags().StringVar(&prefsBirth, "birthdate", "", "birth date (YYYY-MM-DD)")
	prefsSetCmd.Flags().StringVar(&prefsMBTI, "mbti", "", "MBTI type")
	prefsSetCmd.Flags().StringSliceVar(&prefsStyles, "styles", nil, "preferred styles (max 3)")

	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	return printPrefs(profile.LoadPreferences(context.Background(), app.Store))
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	p := profile.LoadPreferences(ctx, app.Store)

	if prefsFile != "" {
		data, err := os.ReadFile(prefsFile)
		if err != nil {
			return fmt.Errorf("read preferences file: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parse preferences file: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("gender") {
		p.Gender = prefsGender
	}
	if flags.Changed("birthdate") {
		p.Birthdate = prefsBirth
	}
	if flags.Changed("mbti") {
		p.MBTI = prefsMBTI
	}
	if flags.Changed("styles") {
		p.Styles = prefsStyles
	}

	saved, err := profile.SavePreferences(ctx, app.Store, p)
	if err != nil {
		return err
	}
	return printPrefs(saved)
}

func printPrefs(p profile.Preferences) error {
	var (
		out []byte
		err error
	)
	switch prefsOutput {
	case "json":
		out, err = json.MarshalIndent(p, "", "  ")
		out = append(out, '\n')
	case "yaml", "":
		out, err = yaml.Marshal(p)
	default:
		return fmt.Errorf("unknown output format %q", prefsOutput)
	}
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
