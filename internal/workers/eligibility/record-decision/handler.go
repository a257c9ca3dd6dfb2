// internal/workers/eligibility/record-decision/handler.go
package recorddecision

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-eligibility/internal/common/errors"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/common/metrics"
	"loan-eligibility/internal/common/validation"
	"loan-eligibility/internal/decision"
)

const TaskType = "eligibility.decision.record"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["sessionId", "verdict", "fieldOrderVersion", "features", "rawOutput"],
	"properties": {
		"sessionId": {"type": "string", "minLength": 1},
		"accountNumber": {"type": "string"},
		"fullName": {"type": "string"},
		"verdict": {"type": "string", "enum": ["Approved", "Denied"]},
		"verdictRule": {"type": "string"},
		"fieldOrderVersion": {"type": "string", "minLength": 1},
		"features": {"type": "array", "items": {"type": "number"}},
		"rawOutput": {"type": "array", "items": {"type": "number"}}
	}
}`)

type Handler struct {
	config   *Config
	recorder *decision.Recorder
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, recorder *decision.Recorder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: config, recorder: recorder, errors: errors.NewErrorHandler(l), logger: l}
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

	output, err := h.Execute(ctx, &input, job.ProcessInstanceKey)
	if err != nil {
		stdErr := errors.FromEligibility(err)
		timer.Done(string(stdErr.Code))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	timer.Done("")
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input, processInstanceKey int64) (*Output, error) {
	rec, indexed, err := h.recorder.Save(ctx, decision.Record{
		SessionID:          input.SessionID,
		AccountNumber:      input.AccountNumber,
		FullName:           input.FullName,
		Verdict:            input.Verdict,
		VerdictRule:        input.VerdictRule,
		FieldOrderVersion:  input.FieldOrderVersion,
		Features:           input.Features,
		RawOutput:          input.RawOutput,
		ModelName:          input.ModelName,
		ModelVersion:       input.ModelVersion,
		ModelChecksum:      input.ModelChecksum,
		ProcessInstanceKey: processInstanceKey,
	})
	if err != nil {
		return nil, err
	}
	return &Output{DecisionID: rec.ID, RecordedAt: rec.CreatedAt, Indexed: indexed}, nil
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
		"jobKey":     job.Key,
		"decisionId": output.DecisionID,
	})
}
