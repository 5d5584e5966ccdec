package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/client"
)

var (
	sessionsShowState bool

	stateCategory string
	stateSpace    string
	stateMode     string
	statePriceMin int64
	statePriceMax int64
	stateMoods    []string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
	Long: `List, show, create, delete and reset chat sessions.

Examples:
  moodon sessions
  moodon sessions show 12
  moodon sessions show 12 --state
  moodon sessions new
  moodon sessions delete 12
  moodon sessions reset 12
  moodon sessions state 12 --category 조명 --price-max 50000`,
	RunE: runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the messages of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a chat session",
	RunE:  runSessionsNew,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset <session-id>",
	Short: "Clear the recommendation context of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsReset,
}

var sessionsStateCmd = &cobra.Command{
	Use:   "state <session-id>",
	Short: "Adjust the recommendation context of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsState,
}

func init() {
	sessionsStateCmd.Flags().StringVar(&stateCategory, "category", "", "product category")
	sessionsStateCmd.Flags().StringVar(&stateSpace, "space", "", "room or space")
	sessionsStateCmd.Flags().StringVar(&stateMode, "mode", "", "recommendation mode")
	sessionsStateCmd.Flags().Int64Var(&statePriceMin, "price-min", 0, "minimum price in won")
	sessionsStateCmd.Flags().Int64Var(&statePriceMax, "price-max", 0, "maximum price in won")
	sessionsStateCmd.Flags().StringSliceVar(&stateMoods, "moods", nil, "target moods")

	sessionsShowCmd.Flags().BoolVar(&sessionsShowState, "state", false, "also show the raw recommendation state")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsResetCmd)
	sessionsCmd.AddCommand(sessionsStateCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	if !app.Auth.RequireLogin() {
		return nil
	}
	ctx := context.Background()
	app.Sync.On(chat.EventAlert, printAlert)
	app.Sync.LoadSessions(ctx)

	sessions := app.Sync.Snapshot().Sessions
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		marker := ""
		if app.Pending.Count(s.ID) > 0 {
			marker = " [pending]"
		}
		fmt.Printf("- #%d %s%s\n", s.ID, s.Title, marker)
		if verbose {
			if s.LastMessagePreview != "" {
				fmt.Printf("  %s\n", s.LastMessagePreview)
			}
			if !s.LastMessageAt.IsZero() {
				fmt.Printf("  Last message: %s\n", s.LastMessageAt.Local().Format("2006-01-02 15:04"))
			}
		}
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	id, err := chat.ParseSessionID(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := app.Sync.LoadSessionDetail(ctx, id); err != nil {
		return userError(err)
	}
	sess, ok := app.Sync.Snapshot().Active()
	if !ok {
		return fmt.Errorf("session %d not found", id)
	}
	printSession(sess)

	if sessionsShowState {
		state, err := app.Client.GetSessionState(ctx, id)
		if err != nil {
			return userError(err)
		}
		fmt.Println("\nState:")
		printKV("Category", state.Category)
		printKV("Space", state.Space)
		printKV("Mode", state.Mode)
		if state.PriceMin != nil || state.PriceMax != nil {
			fmt.Printf("  %-10s %s\n", "Budget", sess.State.Budget)
		}
		if len(state.TargetMoods) > 0 {
			fmt.Printf("  %-10s %s\n", "Moods", strings.Join(state.TargetMoods, ", "))
		}
		if len(state.StyleKeywords) > 0 {
			fmt.Printf("  %-10s %s\n", "Styles", strings.Join(state.StyleKeywords, ", "))
		}
	}
	return nil
}

func runSessionsNew(cmd *cobra.Command, args []string) error {
	id, err := app.Sync.CreateSession(context.Background())
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Created session #%d\n", id)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	id, err := chat.ParseSessionID(args[0])
	if err != nil {
		return err
	}
	if err := app.Sync.DeleteSession(context.Background(), id); err != nil {
		return userError(err)
	}
	fmt.Printf("Deleted session #%d\n", id)
	return nil
}

func runSessionsReset(cmd *cobra.Command, args []string) error {
	id, err := chat.ParseSessionID(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := app.Sync.LoadSessionDetail(ctx, id); err != nil {
		return userError(err)
	}
	if err := app.Sync.ResetContext(ctx); err != nil {
		return userError(err)
	}
	fmt.Printf("Reset the recommendation context of session #%d\n", id)
	return nil
}

func runSessionsState(cmd *cobra.Command, args []string) error {
	id, err := chat.ParseSessionID(args[0])
	if err != nil {
		return err
	}

	var patch client.SessionState
	flags := cmd.Flags()
	if flags.Changed("category") {
		patch.Category = &stateCategory
	}
	if flags.Changed("space") {
		patch.Space = &stateSpace
	}
	if flags.Changed("mode") {
		patch.Mode = &stateMode
	}
	if flags.Changed("price-min") {
		patch.PriceMin = &statePriceMin
	}
	if flags.Changed("price-max") {
		patch.PriceMax = &statePriceMax
	}
	if flags.Changed("moods") {
		patch.TargetMoods = stateMoods
	}
	if !flags.Changed("category") && !flags.Changed("space") && !flags.Changed("mode") &&
		!flags.Changed("price-min") && !flags.Changed("price-max") && !flags.Changed("moods") {
		return fmt.Errorf("nothing to update, see --help for the available flags")
	}

	ctx := context.Background()
	if _, err := app.Client.PatchSessionState(ctx, id, patch); err != nil {
		return userError(err)
	}
	if err := app.Sync.LoadSessionDetail(ctx, id); err != nil {
		return userError(err)
	}
	if sess, ok := app.Sync.Snapshot().Active(); ok {
		fmt.Printf("#%d %s\n  %s\n", sess.ID, sess.Title, stateLine(sess.State))
	}
	return nil
}

// printSession renders a session transcript.
func printSession(s chat.Session) {
	fmt.Printf("#%d %s\n", s.ID, s.Title)
	if s.State.Budget != "" || len(s.State.Mood) > 0 || s.State.Category != "" {
		fmt.Printf("  %s\n", stateLine(s.State))
	}
	fmt.Println()
	for _, m := range s.Messages {
		fmt.Println(formatMessage(m))
		for _, p := range m.RecommendedProducts {
			fmt.Printf("    • %s\n", formatProduct(p))
		}
	}
}

func printKV(label string, v *string) {
	if v != nil && *v != "" {
		fmt.Printf("  %-10s %s\n", label, *v)
	}
}
