package chat

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Limits enforced before anything reaches the network.
const (
	MaxTextLength = 200
	MaxImageBytes = 10 * 1024 * 1024
)

// Sentinel errors. Validation errors carry the text shown to the user.
var (
	ErrTextTooLong      = errors.New("질문은 200자 이하로 입력해 주세요.")
	ErrEmptyMessage     = errors.New("텍스트 또는 이미지를 입력해야 합니다.")
	ErrImageTooLarge    = errors.New("이미지 용량은 10MB 이하여야 합니다.")
	ErrImageType        = errors.New("JPG 또는 PNG 이미지만 업로드할 수 있습니다.")
	ErrInvalidImageType = errors.New("이미지 종류는 current 또는 reference 여야 합니다.")
	ErrInvalidSessionID = errors.New("잘못된 세션 ID입니다.")

	ErrSendInFlight    = errors.New("send already in progress")
	ErrLoginRequired   = errors.New("login required")
	ErrNoActiveSession = errors.New("no active session")
)

// Attachment is an image sent with a message.
type Attachment struct {
	Filename    string
	ContentType string // detected from Data when empty
	Data        []byte
}

// SendInput is a message to send.
type SendInput struct {
	Text         string
	Image        *Attachment
	ImageType    ImageType
	MoreLikeThis bool
}

// Validate checks the input against the local limits.
func (in *SendInput) Validate() error {
	in.Text = strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(in.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	if in.Text == "" && in.Image == nil {
		return ErrEmptyMessage
	}
	if in.Image == nil {
		return nil
	}

	if len(in.Image.Data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	ct := in.Image.ContentType
	if ct == "" {
		ct = http.DetectContentType(in.Image.Data)
		in.Image.ContentType = ct
	}
	switch strings.ToLower(ct) {
	case "image/jpeg", "image/jpg", "image/png":
	default:
		return ErrImageType
	}
	switch in.ImageType {
	case "", ImageCurrent, ImageReference:
	default:
		return ErrInvalidImageType
	}
	return nil
}
