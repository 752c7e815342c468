package notify

import (
	"context"
	"fmt"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackNotifier posts the report summary to a channel
type SlackNotifier struct {
	client    *slack.Client
	channelID string
	logger    *zap.Logger
}

var _ port.Notifier = (*SlackNotifier)(nil)

// NewSlackNotifier creates a new SlackNotifier. options are passed to the
// Slack client.
func NewSlackNotifier(token, channelID string, logger *zap.Logger, options ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:    slack.New(token, options...),
		channelID: channelID,
		logger:    logger,
	}
}

func (n *SlackNotifier) Notify(ctx context.Context, report *entity.ApprovalReport) error {
	text := fmt.Sprintf("*%s*\n```%s```", Subject(report), Body(report))
	_, ts, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		n.logger.Error("Failed to post report to Slack",
			zap.String("channel_id", n.channelID),
			zap.Error(err))
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}

	n.logger.Info("Report posted to Slack",
		zap.String("run_id", report.RunID),
		zap.String("channel_id", n.channelID),
		zap.String("ts", ts))
	return nil
}
