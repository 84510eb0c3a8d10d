// internal/workers/communication/escalate-session/handler.go

// Package escalatesession hands a failing conversation over to a human.
// The support desk gets an email with the session's recent turns so the
// operator does not start blind. The handoff must not depend on the
// session still being alive: an expired or missing context degrades to a
// shorter email, never to a dropped escalation.
package escalatesession

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/conversation"
	"sahayak-workers/internal/models"
)

const TaskType = "escalate-session"

// Emailer is the slice of the SES client this worker needs.
type Emailer interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config  *Config
	emailer Emailer
	tracker *conversation.Tracker
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, emailer Emailer, tracker *conversation.Tracker, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		emailer: emailer,
		tracker: tracker,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewValidationError("variables", "must be valid JSON"))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return nil
	}

	if err := completeJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

// Execute is exported for tests; Handle wraps it with job plumbing.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.SessionID == "" {
		return nil, apperrors.NewValidationError("sessionId", "must be a non-empty string")
	}
	if input.CitizenID == "" {
		return nil, apperrors.NewValidationError("citizenId", "must be a non-empty string")
	}

	// Best effort: the session may already be gone.
	var snapshot *models.ConversationContext
	if c, err := h.tracker.GetContext(ctx, input.SessionID); err == nil {
		snapshot = c
	} else {
		h.logger.Warn("escalating without a context snapshot", map[string]interface{}{
			"sessionId": input.SessionID,
			"error":     err.Error(),
		})
	}

	subject := fmt.Sprintf("Sahayak escalation: session %s", input.SessionID)
	body := composeBody(input, snapshot)

	result, err := h.emailer.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{h.config.SupportEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	if err != nil {
		h.logger.Error("escalation email failed", map[string]interface{}{
			"sessionId": input.SessionID,
			"error":     err.Error(),
		})
		return nil, apperrors.NewEscalationNotifyFailedError(err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	metrics.EscalationsNotified.Inc()
	h.logger.Info("session escalated to support desk", map[string]interface{}{
		"sessionId": input.SessionID,
		"citizenId": input.CitizenID,
		"messageId": messageID,
	})

	return &Output{Notified: true, MessageID: messageID}, nil
}

func composeBody(input *Input, snapshot *models.ConversationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s needs a human.\n\n", input.SessionID)
	fmt.Fprintf(&b, "Citizen: %s\n", input.CitizenID)
	if input.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", input.Reason)
	}

	if snapshot == nil {
		b.WriteString("\nNo live session context was available.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Language: %s\n", snapshot.Language)
	fmt.Fprintf(&b, "Failure streak: %d\n", snapshot.FailureStreak)
	if snapshot.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", snapshot.Topic)
	}

	if len(snapshot.Turns) > 0 {
		b.WriteString("\nRecent turns:\n")
		for _, turn := range snapshot.Turns {
			fmt.Fprintf(&b, "- [%s] citizen: %q -> %s\n",
				turn.Timestamp.Format(time.RFC3339), turn.Input, turn.ResponseSummary)
		}
	}
	return b.String()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}
