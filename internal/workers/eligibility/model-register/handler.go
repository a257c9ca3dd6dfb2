// internal/workers/eligibility/model-register/handler.go
package modelregister

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
)

const TaskType = "eligibility.model.register"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["sessionId", "modelKey"],
	"properties": {
		"sessionId": {"type": "string", "minLength": 1},
		"modelSource": {"type": "string", "enum": ["file", "minio"]},
		"modelKey": {"type": "string", "minLength": 1}
	}
}`)

// Handler fetches an artifact and binds it to a session.
type Handler struct {
	config   *Config
	loader   *model.Loader
	sessions *model.SessionStore
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, loader *model.Loader, sessions *model.SessionStore, log logger.Logger) *Handler {
	if config.DefaultSource == "" {
		config.DefaultSource = model.SourceFile
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		loader:   loader,
		sessions: sessions,
		errors:   errors.NewErrorHandler(l),
		logger:   l,
	}
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

// Execute loads the artifact and stores it for the session. The previous
// model of the session is replaced only when the new one is valid.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	source := input.Source
	if source == "" {
		source = h.config.DefaultSource
	}

	_, data, err := h.loader.Load(ctx, source, input.Key)
	if err != nil {
		return nil, err
	}

	handle, err := h.sessions.Put(ctx, input.SessionID, data)
	if err != nil {
		if eligibility.KindOf(err) == eligibility.KindModelLoadError {
			return nil, err
		}
		return nil, errors.NewSessionStoreFailedError(err)
	}

	meta := handle.Metadata()
	h.logger.Info("model registered", map[string]interface{}{
		"sessionId": input.SessionID,
		"model":     meta.Name,
		"version":   meta.Version,
		"checksum":  meta.Checksum,
	})

	return &Output{
		ModelLoaded:          true,
		ModelName:            meta.Name,
		ModelVersion:         meta.Version,
		ModelKind:            string(meta.Kind),
		ModelChecksum:        meta.Checksum,
		FieldOrderVersion:    meta.FieldOrderVersion,
		ExpectedFeatureCount: meta.ExpectedFeatureCount,
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
