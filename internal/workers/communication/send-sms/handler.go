// internal/workers/communication/send-sms/handler.go

// Package sendsms delivers an opportunity's contact details to the
// citizen's phone after they accept the SMS offer. Delivery goes through
// SNS; a failed publish is retryable so the process can try again before
// apologizing.
package sendsms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/common/validation"
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/opportunity"
)

const TaskType = "send-sms-details"

const senderIDAttribute = "AWS.SNS.SMS.SenderID"

// Publisher is the slice of the SNS client this worker needs.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	publisher Publisher
	source    opportunity.Source
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, publisher Publisher, source opportunity.Source, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		publisher: publisher,
		source:    source,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if !validation.ValidatePhone(input.Phone) {
		return nil, apperrors.NewValidationError("phone", "must be a valid phone number")
	}

	opp := input.Opportunity
	if opp == nil {
		if input.OpportunityID == "" {
			return nil, apperrors.NewValidationError("opportunityId", "must identify the opportunity")
		}
		fetched, err := h.source.GetByID(ctx, input.OpportunityID)
		if err != nil {
			return nil, err
		}
		opp = fetched
	}

	if !opp.HasContact() {
		return nil, apperrors.NewValidationError("opportunity", "has no contact details to send")
	}

	message := composeMessage(opp, input.Language)

	publishInput := &sns.PublishInput{
		PhoneNumber: aws.String(input.Phone),
		Message:     aws.String(message),
	}
	if h.config.SenderID != "" {
		publishInput.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			senderIDAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(h.config.SenderID),
			},
		}
	}

	result, err := h.publisher.Publish(ctx, publishInput)
	if err != nil {
		h.logger.Error("SMS publish failed", map[string]interface{}{
			"citizenId":     input.CitizenID,
			"opportunityId": opp.ID,
			"error":         err.Error(),
		})
		return nil, apperrors.NewSmsDispatchFailedError(err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	metrics.SMSSent.Inc()
	h.logger.Info("SMS sent", map[string]interface{}{
		"citizenId":     input.CitizenID,
		"opportunityId": opp.ID,
		"messageId":     messageID,
	})

	return &Output{Sent: true, MessageID: messageID}, nil
}

// composeMessage renders the contact details as one SMS body. Fields the
// catalog does not have are left out, never invented.
func composeMessage(opp *models.Opportunity, language string) string {
	name, _ := opp.Name.In(language)

	var lines []string
	if language == models.LanguageHindi {
		lines = append(lines, fmt.Sprintf("सहायक: %s की जानकारी", name))
		if opp.ApplyURL != "" {
			lines = append(lines, "आवेदन: "+opp.ApplyURL)
		}
		if opp.Website != "" {
			lines = append(lines, "वेबसाइट: "+opp.Website)
		}
		if opp.Phone != "" {
			lines = append(lines, "फ़ोन: "+opp.Phone)
		}
	} else {
		lines = append(lines, fmt.Sprintf("Sahayak: details for %s", name))
		if opp.ApplyURL != "" {
			lines = append(lines, "Apply: "+opp.ApplyURL)
		}
		if opp.Website != "" {
			lines = append(lines, "Website: "+opp.Website)
		}
		if opp.Phone != "" {
			lines = append(lines, "Phone: "+opp.Phone)
		}
	}
	return strings.Join(lines, "\n")
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
