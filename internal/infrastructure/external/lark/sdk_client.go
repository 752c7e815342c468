package lark

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
	// Attempts bounds sends of one message. Defaults to 3.
	Attempts int
}

// SDKClient sends IM messages through the Lark SDK
type SDKClient struct {
	client   *lark.Client
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewSDKClient creates a new Lark SDK client
func NewSDKClient(cfg Config, logger *zap.Logger) *SDKClient {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	return &SDKClient{
		client: lark.NewClient(cfg.AppID, cfg.AppSecret,
			lark.WithLogLevel(larkcore.LogLevelWarn),
			lark.WithEnableTokenCache(true),
			lark.WithReqTimeout(15*time.Second),
		),
		attempts: attempts,
		backoff:  time.Second,
		logger:   logger,
	}
}

// SendMessage sends a message and returns its id. Transport failures are
// retried with the same request uuid so Lark delivers the message once.
func (c *SDKClient) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Uuid(uuid.NewString()).
			Build()).
		Build()

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		resp, err := c.client.Im.Message.Create(ctx, req)
		if err != nil {
			lastErr = err
			c.logger.Warn("Lark send failed",
				zap.String("receive_id", receiveID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
			continue
		}

		if !resp.Success() {
			c.logger.Error("Lark API returned failure",
				zap.String("receive_id", receiveID),
				zap.Int("code", resp.Code),
				zap.String("msg", resp.Msg),
				zap.String("request_id", resp.RequestId()))
			return "", fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
		}

		if resp.Data != nil && resp.Data.MessageId != nil {
			return *resp.Data.MessageId, nil
		}
		return "", nil
	}
	return "", fmt.Errorf("failed to send message after %d attempts: %w", c.attempts, lastErr)
}
