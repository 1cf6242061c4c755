package notify

import (
	"github.com/slack-go/slack"
)

// SlackSender delivers notifications through the Slack Web API. The team id
// is part of the stored delivery target but posting only needs token and
// channel.
type SlackSender struct{}

// Send posts one message to the channel using the subscription's token.
func (SlackSender) Send(token, channelID, teamID, message string) error {
	client := slack.New(token)
	_, _, err := client.PostMessage(channelID, slack.MsgOptionText(message, false))
	return err
}
