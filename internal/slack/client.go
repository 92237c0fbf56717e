// Package slack delivers direct messages through the Slack Web API.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"

	"github.com/prnudge/prnudge/internal/log"
)

// Messenger sends a direct message to a single Slack user.
type Messenger interface {
	SendDM(ctx context.Context, userID, text string) error
}

// Client wraps the Slack Web API client.
type Client struct {
	api *slackapi.Client
}

var _ Messenger = (*Client)(nil)

func NewClient(token string) *Client {
	return &Client{api: slackapi.New(token)}
}

// SendDM opens (or reuses) the DM conversation with userID and posts
// text into it as mrkdwn.
func (c *Client) SendDM(ctx context.Context, userID, text string) error {
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slackapi.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return fmt.Errorf("opening conversation with %s: %w", userID, err)
	}
	log.Trace("opened conversation", "user", userID, "channel", channel.ID)

	_, _, err = c.api.PostMessageContext(ctx, channel.ID,
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("posting message to %s: %w", userID, err)
	}
	return nil
}
