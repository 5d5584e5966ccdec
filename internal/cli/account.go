package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/moodon/internal/auth"
)

var (
	loginEmail    string
	loginPassword string

	signupBirth  string
	signupGender string
	signupMBTI   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to MOOD ON",
	Long: `Log in with email and password. The password is prompted without echo
when not given.

Examples:
  moodon login --email user@example.com`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear local user state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app.Auth.Logout(context.Background())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the login session with the server",
	RunE:  runStatus,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account with email verification",
	Long: `Create an account. A verification code is emailed, then the account is
completed with a password that satisfies the password policy:
  - 6 to 16 characters
  - at least two of letters, digits and special characters (!?~@#$%&^)
  - no character repeated three times in a row
  - no three sequential digits or letters (123, cba)
  - no keyboard runs (qwer, asdf, zxcv)

Examples:
  moodon signup --email user@example.com --mbti INFP --gender female`,
	RunE: runSignup,
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change or reset the password",
}

var passwordChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the password of the logged-in account",
	RunE:  runPasswordChange,
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a forgotten password by email code",
	RunE:  runPasswordReset,
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the account",
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the account",
	RunE:  runAccountDelete,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted if empty)")

	signupCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	signupCmd.Flags().StringVar(&signupBirth, "birth-date", "", "birth date (YYYY-MM-DD)")
	signupCmd.Flags().StringVar(&signupGender, "gender", "", "gender (male, female, other)")
	signupCmd.Flags().StringVar(&signupMBTI, "mbti", "", "MBTI type")

	passwordResetCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")

	passwordCmd.AddCommand(passwordChangeCmd)
	passwordCmd.AddCommand(passwordResetCmd)
	accountCmd.AddCommand(accountDeleteCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	email, err := valueOrPrompt(loginEmail, "이메일: ", false)
	if err != nil {
		return err
	}
	password, err := valueOrPrompt(loginPassword, "비밀번호: ", true)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("비밀번호를 입력해 주세요.")
	}

	if err := app.Auth.Login(ctx, auth.Credentials{Email: email, Password: password}); err != nil {
		return userError(err)
	}
	fmt.Printf("%s 계정으로 로그인했습니다.\n", app.Auth.Email())

	if err := app.Sync.Resume(ctx); err != nil {
		logger.Warn("failed to resume pending messages", "error", err)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if app.Auth.SyncSession(ctx) {
		fmt.Printf("Logged in as %s\n", app.Auth.Email())
	} else {
		fmt.Println("Not logged in.")
	}
	if ids := app.Pending.SessionIDs(); len(ids) > 0 {
		fmt.Printf("Pending messages in sessions: %v\n", ids)
	}
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	flow := app.Auth.Signup(app.Codes)

	email, err := valueOrPrompt(loginEmail, "이메일: ", false)
	if err != nil {
		return err
	}
	if err := verifyByCode(ctx, flow, email); err != nil {
		return err
	}

	password, confirm, err := promptNewPassword()
	if err != nil {
		return err
	}
	profile := auth.SignupProfile{BirthDate: signupBirth, Gender: signupGender, MBTI: signupMBTI}
	if err := flow.CompleteSignup(ctx, email, password, confirm, profile); err != nil {
		return userError(err)
	}
	fmt.Printf("가입이 완료되었습니다. %s 계정으로 로그인했습니다.\n", email)
	return nil
}

func runPasswordChange(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if !app.Auth.RequireLogin() {
		return auth.ErrLoginRequired
	}

	old, err := promptPassword("현재 비밀번호: ")
	if err != nil {
		return err
	}
	password, confirm, err := promptNewPassword()
	if err != nil {
		return err
	}
	if err := app.Auth.ChangePassword(ctx, old, password, confirm); err != nil {
		return userError(err)
	}
	fmt.Println("비밀번호가 변경되었습니다.")
	return nil
}

func runPasswordReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	flow := app.Auth.PasswordReset(app.Codes)

	email, err := valueOrPrompt(loginEmail, "이메일: ", false)
	if err != nil {
		return err
	}
	if err := verifyByCode(ctx, flow, email); err != nil {
		return err
	}
	password, confirm, err := promptNewPassword()
	if err != nil {
		return err
	}
	if err := flow.CompleteReset(ctx, email, password, confirm); err != nil {
		return userError(err)
	}
	fmt.Println("비밀번호가 재설정되었습니다. 새 비밀번호로 로그인해 주세요.")
	return nil
}

func runAccountDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if !app.Auth.RequireLogin() {
		return auth.ErrLoginRequired
	}
	password, err := promptPassword("비밀번호 확인: ")
	if err != nil {
		return err
	}
	if err := app.Auth.DeleteAccount(ctx, password); err != nil {
		return userError(err)
	}
	fmt.Println("계정이 삭제되었습니다.")
	return nil
}

// verifyByCode sends a code and prompts until it is verified or expires.
func verifyByCode(ctx context.Context, flow *auth.CodeFlow, email string) error {
	if err := flow.SendCode(ctx, email); err != nil {
		return userError(err)
	}
	for {
		left, err := flow.Remaining(ctx, email)
		if err != nil {
			return err
		}
		code, err := promptLine(fmt.Sprintf("인증 번호 (%s 남음): ", left.Round(time.Second)))
		if err != nil {
			return err
		}
		err = flow.Verify(ctx, email, code)
		if err == nil {
			return nil
		}
		if errors.Is(err, auth.ErrCodeExpired) {
			return err
		}
		fmt.Println(userError(err))
	}
}

func promptNewPassword() (string, string, error) {
	password, err := promptPassword("새 비밀번호: ")
	if err != nil {
		return "", "", err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return "", "", err
	}
	confirm, err := promptPassword("새 비밀번호 확인: ")
	if err != nil {
		return "", "", err
	}
	return password, confirm, nil
}
