package notify

import (
	"context"
	"strings"

	"github.com/slack-go/slack"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// Ensure SlackNotifier implements domain.Notifier
var _ domain.Notifier = (*SlackNotifier)(nil)

// SlackOptions contains options for creating a SlackNotifier
type SlackOptions struct {
	Token   string
	Channel string
	Header  string
	APIURL  string
	Logger  *utils.Logger
}

// SlackNotifier posts change messages through the Slack Web API
type SlackNotifier struct {
	client  *slack.Client
	channel string
	header  string
	logger  *utils.Logger
}

// NewSlackNotifier creates a new SlackNotifier
func NewSlackNotifier(opts SlackOptions) *SlackNotifier {
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.Header == "" {
		opts.Header = DefaultHeader
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}

	var clientOpts []slack.Option
	if opts.APIURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(strings.TrimRight(opts.APIURL, "/")+"/"))
	}

	return &SlackNotifier{
		client:  slack.New(opts.Token, clientOpts...),
		channel: opts.Channel,
		header:  opts.Header,
		logger:  opts.Logger.WithComponent("notify"),
	}
}

// Notify posts one message for a changed version
func (n *SlackNotifier) Notify(ctx context.Context, note domain.Notification) error {
	channel, ts, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(FallbackText(note), false),
		slack.MsgOptionBlocks(n.blocks(note)...),
	)
	if err != nil {
		return &domain.NotificationError{Version: note.Version, Err: err}
	}

	n.logger.Info().
		Str("version", note.Version.String()).
		Str("channel", channel).
		Str("ts", ts).
		Msg("Change notification posted")
	return nil
}

func (n *SlackNotifier) blocks(note domain.Notification) []slack.Block {
	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, n.header, false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, SectionText(note), false, false), nil, nil),
	}
}
