// internal/workers/eligibility/evaluate/handler.go
package evaluate

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-eligibility/internal/common/errors"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/common/metrics"
	"loan-eligibility/internal/common/validation"
	"loan-eligibility/internal/eligibility"
	"loan-eligibility/internal/model"
	"loan-eligibility/internal/presenter"
)

const TaskType = "eligibility.evaluate"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["sessionId", "applicant"],
	"properties": {
		"sessionId": {"type": "string", "minLength": 1},
		"applicant": {"type": "object"},
		"fieldOrderVersion": {"type": "string"}
	}
}`)

// Handler runs the whole validate, assemble and predict pipeline in one job.
type Handler struct {
	config   *Config
	sessions *model.SessionStore
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, sessions *model.SessionStore, log logger.Logger) *Handler {
	if config.FieldOrders == nil {
		config.FieldOrders = eligibility.BuiltinFieldOrders()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: config, sessions: sessions, errors: errors.NewErrorHandler(l), logger: l}
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
		stdErr := presenter.Failure(err)
		metrics.EligibilityRejections.WithLabelValues(string(eligibility.KindOf(err))).Inc()
		timer.Done(string(stdErr.Code))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	timer.Done("")
	h.completeJob(ctx, client, job, output)
}

// Execute evaluates the applicant against the session's model. The field
// order is the one the model declares; a requested version must resolve and
// is rejected by Predict unless it is that same order.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	handle, err := h.sessions.Get(ctx, input.SessionID)
	if err != nil {
		if eligibility.KindOf(err) == eligibility.KindModelLoadError {
			return nil, err
		}
		return nil, errors.NewSessionStoreFailedError(err)
	}

	var provider eligibility.Provider
	var meta model.Metadata
	order := eligibility.FieldOrderV1
	if handle != nil {
		provider = handle
		meta = handle.Metadata()
		order = handle.FieldOrder()
	}
	if input.FieldOrderVersion != "" && handle != nil {
		order, err = h.config.FieldOrders.Get(input.FieldOrderVersion)
		if err != nil {
			return nil, errors.NewUnknownFieldOrderError(input.FieldOrderVersion)
		}
	}

	evaluation, err := eligibility.Evaluate(ctx, input.Applicant, provider, order, h.config.VerdictRule)
	if err != nil {
		h.logger.Warn("evaluation failed", map[string]interface{}{
			"sessionId": input.SessionID,
			"kind":      string(eligibility.KindOf(err)),
			"error":     err,
		})
		return nil, err
	}

	verdict := evaluation.Verdict()
	metrics.EligibilityVerdicts.WithLabelValues(string(verdict), evaluation.FieldOrderVersion).Inc()

	profile := evaluation.Profile
	return &Output{
		Verdict:           string(verdict),
		Approved:          verdict == eligibility.VerdictApproved,
		Message:           presenter.VerdictMessage(profile.FullName, profile.AccountNumber, verdict),
		AccountNumber:     profile.AccountNumber,
		FullName:          profile.FullName,
		Profile:           profile,
		Features:          evaluation.Features.Values(),
		FieldOrderVersion: evaluation.FieldOrderVersion,
		RawOutput:         evaluation.Result.RawOutput,
		VerdictRule:       evaluation.Result.Rule,
		ModelName:         meta.Name,
		ModelVersion:      meta.Version,
		ModelChecksum:     meta.Checksum,
	}, nil
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
		"jobKey": job.Key,
	})
}
