package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	receiveIDType string
	receiveID     string
	msgType       string
	content       string
	err           error
}

func (f *fakeSender) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	f.receiveIDType, f.receiveID, f.msgType, f.content = receiveIDType, receiveID, msgType, content
	if f.err != nil {
		return "", f.err
	}
	return "om_1", nil
}

func TestNotifier_Notify(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "ops@example.com", zap.NewNop())
	report := &entity.ApprovalReport{RunID: "run-1", Now: time.Now(), DryRun: true, Eligible: 3}

	require.NoError(t, n.Notify(context.Background(), report))
	assert.Equal(t, "email", sender.receiveIDType)
	assert.Equal(t, "ops@example.com", sender.receiveID)
	assert.Equal(t, "text", sender.msgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(sender.content), &content))
	assert.Contains(t, content["text"], "preview: 3 entries")

	sender.err = errors.New("code=99991663")
	assert.ErrorContains(t, n.Notify(context.Background(), report), "99991663")

	assert.Error(t, NewNotifier(sender, "", zap.NewNop()).Notify(context.Background(), report))
}
