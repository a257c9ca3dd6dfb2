// internal/workers/eligibility/assemble-features/handler.go
package assemblefeatures

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

const TaskType = "eligibility.features.assemble"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["profile"],
	"properties": {
		"profile": {"type": "object"},
		"fieldOrderVersion": {"type": "string"}
	}
}`)

type Handler struct {
	config *Config
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.FieldOrders == nil {
		config.FieldOrders = eligibility.BuiltinFieldOrders()
	}
	if config.DefaultFieldOrderVersion == "" {
		config.DefaultFieldOrderVersion = eligibility.FieldOrderV1.Version()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: config, errors: errors.NewErrorHandler(l), logger: l}
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
		var stdErr *errors.StandardError
		if eligibility.KindOf(err) != eligibility.KindUnknown {
			stdErr = presenter.Failure(err)
		} else {
			stdErr = errors.NewInvalidInputError(err.Error())
		}
		timer.Done(string(stdErr.Code))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		stdErr := presenter.Failure(err)
		timer.Done(string(stdErr.Code))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	timer.Done("")
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	version := input.FieldOrderVersion
	if version == "" {
		version = h.config.DefaultFieldOrderVersion
	}
	order, err := h.config.FieldOrders.Get(version)
	if err != nil {
		return nil, errors.NewUnknownFieldOrderError(version)
	}

	vector, err := eligibility.Assemble(input.Profile, order)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, order.Len())
	for _, f := range order.Fields() {
		names = append(names, string(f))
	}

	h.logger.Debug("feature vector assembled", map[string]interface{}{
		"fieldOrderVersion": version,
		"featureCount":      vector.Len(),
	})

	return &Output{
		Features:          vector.Values(),
		FeatureNames:      names,
		FieldOrderVersion: vector.Version(),
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
