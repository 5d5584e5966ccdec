package cli

import (
	"errors"
	"net/url"

	"github.com/raphaelgruber/moodon/internal/client"
)

// userError turns an error into the message shown to the user: the server
// message for API errors, a generic message for transport failures and the
// error itself for local validation.
func userError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		logger.Error("request failed", "error", err)
		return errors.New(client.GenericErrorMessage)
	}
	return err
}
