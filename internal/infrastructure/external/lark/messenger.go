// Package lark posts auto-approval reports to a Lark user.
package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/external/notify"
	"go.uber.org/zap"
)

// MessageSender sends a raw IM message
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Notifier sends the report summary as a text message to one recipient,
// addressed by email
type Notifier struct {
	sender       MessageSender
	receiveEmail string
	logger       *zap.Logger
}

var _ port.Notifier = (*Notifier)(nil)

// NewNotifier creates a new Lark report notifier
func NewNotifier(sender MessageSender, receiveEmail string, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender:       sender,
		receiveEmail: receiveEmail,
		logger:       logger,
	}
}

func (n *Notifier) Notify(ctx context.Context, report *entity.ApprovalReport) error {
	if n.receiveEmail == "" {
		return fmt.Errorf("lark receive email cannot be empty")
	}

	content, err := json.Marshal(map[string]string{
		"text": notify.Subject(report) + "\n\n" + notify.Body(report),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	messageID, err := n.sender.SendMessage(ctx, "email", n.receiveEmail, "text", string(content))
	if err != nil {
		return fmt.Errorf("failed to send lark message: %w", err)
	}

	n.logger.Info("Report sent to Lark",
		zap.String("run_id", report.RunID),
		zap.String("message_id", messageID))
	return nil
}
