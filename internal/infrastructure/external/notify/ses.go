package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// RawEmailSender is the slice of the SES client the notifier uses
type RawEmailSender interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// Attachment is a file carried by an email
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Email is a plain-text message with attachments
type Email struct {
	From        string
	To          []string
	Subject     string
	Text        string
	Attachments []Attachment
}

// EmailNotifier sends the report summary with the workbook attached
type EmailNotifier struct {
	client   RawEmailSender
	renderer port.ReportRenderer
	from     string
	to       []string
	logger   *zap.Logger
}

var _ port.Notifier = (*EmailNotifier)(nil)

// NewSESNotifier creates an EmailNotifier on the default AWS credential chain
func NewSESNotifier(ctx context.Context, region, from string, to []string, renderer port.ReportRenderer, logger *zap.Logger) (*EmailNotifier, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewEmailNotifier(ses.NewFromConfig(cfg), from, to, renderer, logger), nil
}

// NewEmailNotifier creates an EmailNotifier on an existing client. renderer
// may be nil to send without an attachment.
func NewEmailNotifier(client RawEmailSender, from string, to []string, renderer port.ReportRenderer, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		client:   client,
		renderer: renderer,
		from:     from,
		to:       to,
		logger:   logger,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, report *entity.ApprovalReport) error {
	email := &Email{
		From:    n.from,
		To:      n.to,
		Subject: Subject(report),
		Text:    Body(report),
	}
	if n.renderer != nil {
		content, err := n.renderer.Render(report)
		if err != nil {
			return fmt.Errorf("failed to render report attachment: %w", err)
		}
		email.Attachments = append(email.Attachments, Attachment{
			Filename:    fmt.Sprintf("auto-approval-%s.xlsx", report.Now.Format("20060102")),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		})
	}

	raw, err := BuildRawEmail(email)
	if err != nil {
		return err
	}

	out, err := n.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: raw},
	})
	if err != nil {
		n.logger.Error("Failed to send report email", zap.Strings("to", n.to), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	messageID := ""
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	n.logger.Info("Report email sent",
		zap.String("run_id", report.RunID),
		zap.String("message_id", messageID),
		zap.Strings("to", n.to))
	return nil
}

// BuildRawEmail renders a multipart/mixed MIME message
func BuildRawEmail(email *Email) ([]byte, error) {
	if email.From == "" || len(email.To) == 0 {
		return nil, fmt.Errorf("email needs a sender and at least one recipient")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", email.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", email.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", writer.Boundary())

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(email.Text)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	for _, att := range email.Attachments {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", fmt.Sprintf("%s; name=\"%s\"", att.ContentType, att.Filename))
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", att.Filename))
		h.Set("Content-Transfer-Encoding", "base64")

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Content)
		// 76 character lines
		for i := 0; i < len(encoded); i += 76 {
			end := i + 76
			if end > len(encoded) {
				end = len(encoded)
			}
			if _, err := part.Write([]byte(encoded[i:end] + "\r\n")); err != nil {
				return nil, err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
