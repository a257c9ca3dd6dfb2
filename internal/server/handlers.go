package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"loan-eligibility/internal/common/errors"
	"loan-eligibility/internal/decision"
	"loan-eligibility/internal/eligibility"
	"loan-eligibility/internal/model"
	"loan-eligibility/internal/presenter"
	"loan-eligibility/internal/workers/eligibility/evaluate"
)

var formFields = []eligibility.Field{
	eligibility.FieldAccountNumber,
	eligibility.FieldFullName,
	eligibility.FieldGender,
	eligibility.FieldMaritalStatus,
	eligibility.FieldDependents,
	eligibility.FieldEducation,
	eligibility.FieldEmploymentStatus,
	eligibility.FieldSelfEmployed,
	eligibility.FieldPropertyArea,
	eligibility.FieldCreditScoreBand,
	eligibility.FieldLoanHistory,
	eligibility.FieldMonthlyIncome,
	eligibility.FieldCoApplicantMonthlyIncome,
	eligibility.FieldLoanAmount,
	eligibility.FieldLoanDurationMonths,
}

type evaluationRequest struct {
	Applicant         eligibility.RawInputs `json:"applicant"`
	FieldOrderVersion string                `json:"fieldOrderVersion"`
}

type errorResponse struct {
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

func (s *Server) form(c *gin.Context) {
	fields := make([]gin.H, 0, len(formFields))
	for _, f := range formFields {
		entry := gin.H{"name": string(f), "label": presenter.Label(f)}
		if opts := eligibility.Options(f); opts != nil {
			entry["options"] = opts
		}
		fields = append(fields, entry)
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

func (s *Server) fieldOrders(c *gin.Context) {
	orders := make([]gin.H, 0, len(s.deps.FieldOrders))
	for _, v := range s.deps.FieldOrders.Versions() {
		order := s.deps.FieldOrders[v]
		orders = append(orders, gin.H{"version": v, "fields": order.Fields()})
	}
	c.JSON(http.StatusOK, gin.H{"fieldOrders": orders})
}

func (s *Server) uploadModel(c *gin.Context) {
	sessionID := c.Param("sessionId")
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
				Error:   string(errors.ErrCodeInvalidInput),
				Message: "The model file is too large.",
			})
			return
		}
		s.fail(c, errors.NewInvalidInputError(err.Error()))
		return
	}
	if len(body) == 0 {
		s.fail(c, errors.NewInvalidInputError("model artifact body is empty"))
		return
	}

	handle, err := s.deps.Sessions.Put(c.Request.Context(), sessionID, body)
	if err != nil {
		if eligibility.KindOf(err) != eligibility.KindModelLoadError {
			err = errors.NewSessionStoreFailedError(err)
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "model": handle.Metadata()})
}

func (s *Server) getModel(c *gin.Context) {
	handle, err := s.deps.Sessions.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		s.fail(c, errors.NewSessionStoreFailedError(err))
		return
	}
	if handle == nil {
		c.JSON(http.StatusNotFound, errorResponse{
			Error:   string(errors.ErrCodeNoModelLoaded),
			Message: presenter.Message(eligibility.ErrNoModelLoaded),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": c.Param("sessionId"), "model": handle.Metadata()})
}

func (s *Server) deleteModel(c *gin.Context) {
	if err := s.deps.Sessions.Delete(c.Request.Context(), c.Param("sessionId")); err != nil {
		s.fail(c, errors.NewSessionStoreFailedError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) evaluate(c *gin.Context) {
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewInvalidInputError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	if s.deps.Obs != nil {
		var span trace.Span
		ctx, span = s.deps.Obs.StartSpan(ctx, "eligibility.evaluate", attribute.String("session_id", c.Param("sessionId")))
		defer span.End()
	}

	out, err := s.deps.Evaluator.Execute(ctx, &evaluate.Input{
		SessionID:         c.Param("sessionId"),
		Applicant:         req.Applicant,
		FieldOrderVersion: req.FieldOrderVersion,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if s.deps.Obs != nil {
		s.deps.Obs.RecordVerdict(ctx, out.Verdict, out.FieldOrderVersion)
	}

	resp := gin.H{
		"verdict":           out.Verdict,
		"approved":          out.Approved,
		"message":           out.Message,
		"fieldOrderVersion": out.FieldOrderVersion,
		"verdictRule":       out.VerdictRule,
		"model": model.Metadata{
			Name:     out.ModelName,
			Version:  out.ModelVersion,
			Checksum: out.ModelChecksum,
		},
	}
	if s.deps.Recorder != nil {
		resp["decisionId"] = s.record(ctx, c.Param("sessionId"), out)
	}
	c.JSON(http.StatusOK, resp)
}

// record stores the decision. A storage failure does not undo a verdict
// already computed; it is logged and the id is left empty.
func (s *Server) record(ctx context.Context, sessionID string, out *evaluate.Output) string {
	rec, _, err := s.deps.Recorder.Save(ctx, decision.Record{
		SessionID:         sessionID,
		AccountNumber:     out.AccountNumber,
		FullName:          out.FullName,
		Verdict:           out.Verdict,
		VerdictRule:       out.VerdictRule,
		FieldOrderVersion: out.FieldOrderVersion,
		Features:          out.Features,
		RawOutput:         out.RawOutput,
		ModelName:         out.ModelName,
		ModelVersion:      out.ModelVersion,
		ModelChecksum:     out.ModelChecksum,
	})
	if err != nil {
		s.logger.Error("failed to record decision", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
		return ""
	}
	return rec.ID
}

func (s *Server) fail(c *gin.Context, err error) {
	stdErr := presenter.Failure(err)
	msg := stdErr.Message
	if eligibility.KindOf(err) != eligibility.KindUnknown {
		msg = presenter.Message(err)
	}
	resp := errorResponse{Error: string(stdErr.Code), Message: msg}
	if fe, ok := stdErr.Metadata["fieldErrors"].(map[string]string); ok {
		resp.FieldErrors = fe
	}
	c.JSON(statusFor(stdErr.Code), resp)
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeUnknownFieldOrder:
		return http.StatusBadRequest
	case errors.ErrCodeValidationFailed, errors.ErrCodeIncompleteProfile, errors.ErrCodeModelLoadFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNoModelLoaded, errors.ErrCodeFeatureArityMismatch, errors.ErrCodeFieldOrderMismatch:
		return http.StatusConflict
	case errors.ErrCodeProviderInvocation, errors.ErrCodeUnexpectedOutputValue:
		return http.StatusBadGateway
	case errors.ErrCodeModelLoadTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeSessionStoreFailed, errors.ErrCodeDatabaseConnection, errors.ErrCodeDatabaseInsertFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
