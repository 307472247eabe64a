// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"account-opening/internal/common/aws"
	"account-opening/internal/common/config"
	"account-opening/internal/common/logger"
	"account-opening/internal/models"
)

// StatusChange carries everything needed to notify an applicant about a
// lifecycle transition on their application.
type StatusChange struct {
	ApplicationID string
	Email         string
	Phone         string
	From          models.ApplicationStatus
	To            models.ApplicationStatus
	Notes         string
}

// Notifier delivers applicant-facing notifications. Delivery failures are
// reported but never block the triggering operation.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change StatusChange) error
}

// statusSubjects maps notified statuses to email subjects. Statuses absent
// from the map are not applicant-visible and produce no notification.
var statusSubjects = map[models.ApplicationStatus]string{
	models.StatusSubmitted:   "Your application has been received",
	models.StatusUnderReview: "Your application is under review",
	models.StatusApproved:    "Your application has been approved",
	models.StatusRejected:    "An update on your application",
	models.StatusCompleted:   "Your account is ready",
}

// ==========================
// AWS Notifier
// ==========================

// AWSNotifier sends email through SES and SMS through SNS, gated by the
// notification config flags.
type AWSNotifier struct {
	ses    *aws.SESClient
	sns    *aws.SNSClient
	config config.NotificationConfig
	logger logger.Logger
}

func NewAWSNotifier(sesClient *aws.SESClient, snsClient *aws.SNSClient, cfg config.NotificationConfig, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		ses:    sesClient,
		sns:    snsClient,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

func (n *AWSNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	subject, ok := statusSubjects[change.To]
	if !ok {
		return nil
	}

	body := fmt.Sprintf(
		"Your application %s has moved from %s to %s.",
		change.ApplicationID, change.From, change.To,
	)
	if change.Notes != "" {
		body += "\n\n" + change.Notes
	}

	if n.config.Email.Enabled && change.Email != "" {
		if err := n.sendEmail(ctx, change.Email, subject, body); err != nil {
			n.logger.Warn("status email delivery failed", map[string]interface{}{
				"error":         err,
				"applicationId": change.ApplicationID,
			})
			return err
		}
	}

	if n.config.SMS.Enabled && change.Phone != "" {
		if err := n.sendSMS(ctx, change.Phone, body); err != nil {
			n.logger.Warn("status SMS delivery failed", map[string]interface{}{
				"error":         err,
				"applicationId": change.ApplicationID,
			})
			return err
		}
	}

	return nil
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(n.config.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, phone, message string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: awssdk.String(phone),
		Message:     awssdk.String(message),
	})
	return err
}

// ==========================
// No-op Notifier
// ==========================

// NoOpNotifier is used when notifications are disabled or in tests.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier { return &NoOpNotifier{} }

func (n *NoOpNotifier) NotifyStatusChange(_ context.Context, _ StatusChange) error { return nil }
