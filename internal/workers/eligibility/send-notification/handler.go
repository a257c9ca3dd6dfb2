// internal/workers/eligibility/send-notification/handler.go
package sendnotification

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-eligibility/internal/common/errors"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/common/metrics"
	"loan-eligibility/internal/common/validation"
	"loan-eligibility/internal/eligibility"
	"loan-eligibility/internal/presenter"
)

const (
	TaskType = "eligibility.notification.send"

	ChannelSMS   = "sms"
	ChannelEmail = "email"

	defaultSubject = "Your loan eligibility result"
)

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["accountNumber", "fullName", "verdict"],
	"properties": {
		"accountNumber": {"type": "string"},
		"fullName": {"type": "string"},
		"verdict": {"type": "string", "enum": ["Approved", "Denied"]},
		"phoneNumber": {"type": "string"},
		"email": {"type": "string"}
	}
}`)

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

type Handler struct {
	config *Config
	sms    SMSSender
	email  EmailSender
	errors *errors.ErrorHandler
	logger logger.Logger
}

// NewHandler wires the senders. Either may be nil to disable that channel.
func NewHandler(config *Config, sms SMSSender, email EmailSender, log logger.Logger) *Handler {
	if config.EmailSubject == "" {
		config.EmailSubject = defaultSubject
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: config, sms: sms, email: email, errors: errors.NewErrorHandler(l), logger: l}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := inputSchema.Decode([]byte(job.Variables), &input); err != nil {
		stdErr := errors.NewInvalidInputError(err.Error())
		timer.Done(string(stdErr.Code))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		stdErr := errors.FromEligibility(err)
		timer.Done(string(stdErr.Code))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	timer.Done("")
	h.completeJob(ctx, client, job, output)
}

// Execute sends the verdict message on every channel the applicant gave a
// contact for. Having no contact is not an error. The job only fails, and is
// retried, when no channel delivered; once one has, failures on the others
// are reported in failedChannels so a retry never repeats a delivered message.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	message := presenter.VerdictMessage(input.FullName, input.AccountNumber, eligibility.Verdict(input.Verdict))
	out := &Output{Channels: []string{}, MessageIDs: []string{}, FailedChannels: []string{}, Message: message}

	var firstErr error
	send := func(channel string, fn func() (string, error)) {
		id, err := fn()
		if err != nil {
			h.logger.Warn("notification send failed", map[string]interface{}{
				"channel":       channel,
				"accountNumber": input.AccountNumber,
				"error":         err,
			})
			out.FailedChannels = append(out.FailedChannels, channel)
			if firstErr == nil {
				firstErr = errors.NewNotificationSendFailedError(channel, err)
			}
			return
		}
		out.Channels = append(out.Channels, channel)
		out.MessageIDs = append(out.MessageIDs, id)
	}

	if input.PhoneNumber != "" && h.sms != nil {
		send(ChannelSMS, func() (string, error) { return h.sms.SendSMS(ctx, input.PhoneNumber, message) })
	}
	if input.Email != "" && h.email != nil {
		send(ChannelEmail, func() (string, error) {
			return h.email.SendText(ctx, input.Email, h.config.EmailSubject, message)
		})
	}

	out.NotificationSent = len(out.Channels) > 0
	if !out.NotificationSent {
		if firstErr != nil {
			return nil, firstErr
		}
		h.logger.Info("no notification channel available", map[string]interface{}{
			"accountNumber": input.AccountNumber,
		})
	}
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":   job.Key,
		"channels": output.Channels,
	})
}
