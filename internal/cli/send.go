package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/moodon/internal/chat"
)

var (
	sendSession   string
	sendImage     string
	sendImageType string
	sendMore      bool
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send a message and print the assistant's reply",
	Long: `Send a message to a chat session. Without --session a new session is
created. An image (JPEG or PNG, up to 10MB) can be attached as a photo of the
current room or as a style reference.

Examples:
  moodon send "빈티지 스타일 소파 추천해줘"
  moodon send --session 12 "조금 더 저렴한 걸로"
  moodon send --session 12 --more "비슷한 걸로 더 보여줘"
  moodon send --image room.jpg --image-type current "이 방에 어울리는 조명"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

var rateCmd = &cobra.Command{
	Use:   "rate <message-id> <1-5>",
	Short: "Rate an assistant reply",
	Args:  cobra.ExactArgs(2),
	RunE:  runRate,
}

func init() {
	sendCmd.Flags().StringVarP(&sendSession, "session", "s", "", "session id (default: new session)")
	sendCmd.Flags().StringVar(&sendImage, "image", "", "image file to attach")
	sendCmd.Flags().StringVar(&sendImageType, "image-type", string(chat.ImageCurrent), "image role: current or reference")
	sendCmd.Flags().BoolVar(&sendMore, "more", false, "ask for more recommendations like the last ones")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app.Sync.On(chat.EventAlert, printAlert)

	in := chat.SendInput{MoreLikeThis: sendMore}
	if len(args) > 0 {
		in.Text = args[0]
	}
	if sendImage != "" {
		att, err := readAttachment(sendImage)
		if err != nil {
			return err
		}
		in.Image = att
		in.ImageType = chat.ImageType(sendImageType)
	}

	if sendSession != "" {
		id, err := chat.ParseSessionID(sendSession)
		if err != nil {
			return err
		}
		if err := app.Sync.LoadSessionDetail(ctx, id); err != nil {
			return userError(err)
		}
	}

	if err := app.Sync.SendMessage(ctx, in); err != nil {
		// alerts were already printed
		return fmt.Errorf("message not sent")
	}

	sess, ok := app.Sync.Snapshot().Active()
	if !ok {
		return nil
	}
	fmt.Printf("#%d %s\n\n", sess.ID, sess.Title)
	if n := len(sess.Messages); n > 0 {
		last := sess.Messages[n-1]
		fmt.Println(formatMessage(last))
		for _, p := range last.RecommendedProducts {
			fmt.Printf("    • %s\n", formatProduct(p))
		}
	}
	return nil
}

func runRate(cmd *cobra.Command, args []string) error {
	var score int
	if _, err := fmt.Sscanf(args[1], "%d", &score); err != nil {
		return fmt.Errorf("invalid score %q", args[1])
	}
	if err := app.Sync.RateMessage(context.Background(), args[0], score); err != nil {
		return userError(err)
	}
	fmt.Printf("Rated message #%s with %d/5\n", args[0], score)
	return nil
}

// readAttachment loads an image file, sniffing its content type.
func readAttachment(path string) (*chat.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if info.Size() > chat.MaxImageBytes {
		return nil, chat.ErrImageTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &chat.Attachment{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func printAlert(ev chat.Event) {
	fmt.Fprintln(os.Stderr, ev.Text)
}
