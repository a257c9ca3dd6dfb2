// internal/workers/eligibility/predict-verdict/handler.go
package predictverdict

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

const TaskType = "eligibility.verdict.predict"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["sessionId", "features", "fieldOrderVersion"],
	"properties": {
		"sessionId": {"type": "string", "minLength": 1},
		"features": {"type": "array", "items": {"type": "number"}},
		"fieldOrderVersion": {"type": "string", "minLength": 1}
	}
}`)

type Handler struct {
	config   *Config
	sessions *model.SessionStore
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, sessions *model.SessionStore, log logger.Logger) *Handler {
	if config.VerdictRule == nil {
		config.VerdictRule = eligibility.LenientVerdictRule{}
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
	if handle != nil {
		provider = handle
		meta = handle.Metadata()
	}

	vector := eligibility.NewFeatureVector(input.FieldOrderVersion, input.Features)
	result, err := eligibility.Predict(ctx, vector, provider, h.config.VerdictRule)
	if err != nil {
		return nil, err
	}

	metrics.EligibilityVerdicts.WithLabelValues(string(result.Verdict), input.FieldOrderVersion).Inc()
	h.logger.Info("verdict produced", map[string]interface{}{
		"sessionId": input.SessionID,
		"verdict":   string(result.Verdict),
		"model":     meta.Name,
	})

	return &Output{
		Verdict:       string(result.Verdict),
		Approved:      result.Verdict == eligibility.VerdictApproved,
		RawOutput:     result.RawOutput,
		VerdictRule:   result.Rule,
		ModelName:     meta.Name,
		ModelVersion:  meta.Version,
		ModelChecksum: meta.Checksum,
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
