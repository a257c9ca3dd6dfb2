package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loan-eligibility/internal/common/config"
	commonhttp "loan-eligibility/internal/common/http"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/decision"
	"loan-eligibility/internal/eligibility"
	"loan-eligibility/internal/model"
	"loan-eligibility/internal/workers/eligibility/evaluate"
)

const creditArtifact = `{
	"kind": "logistic_regression",
	"name": "loan-approval",
	"version": "2024.1",
	"fieldOrderVersion": "v1",
	"expectedFeatureCount": 11,
	"logistic": {"weights": [0,0,0,0,0,0,0,0,0,4,0], "intercept": -2}
}`

const applicantJSON = `{"applicant": {
	"accountNumber": "ACC-1001",
	"fullName": "Alex Doe",
	"gender": "Male",
	"maritalStatus": "Yes",
	"dependents": "No",
	"education": "Graduate",
	"employmentStatus": "Job",
	"propertyArea": "Urban",
	"creditScoreBand": "High",
	"monthlyIncome": 5000,
	"coApplicantMonthlyIncome": 0,
	"loanAmount": 100000,
	"loanDurationMonths": "360 months"
}}`

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Save(ctx context.Context, rec decision.Record) (decision.Record, bool, error) {
	args := m.Called(rec)
	return args.Get(0).(decision.Record), args.Bool(1), args.Error(2)
}

func newTestServer(t *testing.T, deps Deps) (*Server, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	builder := model.NewBuilder(eligibility.BuiltinFieldOrders(), commonhttp.NewClient(time.Second))
	deps.Sessions = model.NewSessionStore(rdb, builder, time.Hour, log)
	deps.Evaluator = evaluate.NewHandler(&evaluate.Config{Timeout: time.Second, FieldOrders: deps.FieldOrders}, deps.Sessions, log)
	deps.Logger = log

	return New(config.ServerConfig{Address: ":0", MaxBodyBytes: 1 << 16}, deps), mr
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ==========================
// Health Tests
// ==========================

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t, Deps{Checkers: []Checker{
		{Name: "redis", Ping: func(ctx context.Context) error { return nil }},
		{Name: "postgres", Ping: func(ctx context.Context) error { return stderrors.New("connection refused") }},
	}})

	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["redis"])
	assert.Equal(t, "connection refused", checks["postgres"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	w := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// ==========================
// Session Model Tests
// ==========================

func TestUploadGetDeleteModel(t *testing.T) {
	s, _ := newTestServer(t, Deps{})

	w := do(s, http.MethodPut, "/v1/sessions/s-1/model", creditArtifact)
	require.Equal(t, http.StatusOK, w.Code)
	modelInfo := decode(t, w)["model"].(map[string]interface{})
	assert.Equal(t, "loan-approval", modelInfo["name"])
	assert.Equal(t, "v1", modelInfo["fieldOrderVersion"])

	w = do(s, http.MethodGet, "/v1/sessions/s-1/model", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodDelete, "/v1/sessions/s-1/model", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(s, http.MethodGet, "/v1/sessions/s-1/model", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadModel_Rejected(t *testing.T) {
	s, _ := newTestServer(t, Deps{})

	w := do(s, http.MethodPut, "/v1/sessions/s-1/model", `{"kind":"svm"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "MODEL_LOAD_FAILED", decode(t, w)["error"])

	w = do(s, http.MethodPut, "/v1/sessions/s-1/model", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPut, "/v1/sessions/s-1/model", strings.Repeat(" ", 1<<17))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

// ==========================
// Evaluation Tests
// ==========================

func TestEvaluate_Approved(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("Save", mock.MatchedBy(func(r decision.Record) bool {
		return r.SessionID == "s-1" && r.Verdict == "Approved" && len(r.Features) == 11
	})).Return(decision.Record{ID: "d-1"}, true, nil)

	s, _ := newTestServer(t, Deps{Recorder: rec})
	require.Equal(t, http.StatusOK, do(s, http.MethodPut, "/v1/sessions/s-1/model", creditArtifact).Code)

	w := do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", applicantJSON)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Approved", body["verdict"])
	assert.Equal(t, true, body["approved"])
	assert.Equal(t, "Hello: Alex Doe || Account Number: ACC-1001 || Congratulations!! You will get the loan from the bank.", body["message"])
	assert.Equal(t, "d-1", body["decisionId"])
	rec.AssertExpectations(t)
}

func TestEvaluate_RecorderFailureStillServesVerdict(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("Save", mock.Anything).Return(decision.Record{}, false, stderrors.New("db down"))

	s, _ := newTestServer(t, Deps{Recorder: rec})
	require.Equal(t, http.StatusOK, do(s, http.MethodPut, "/v1/sessions/s-1/model", creditArtifact).Code)

	w := do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", applicantJSON)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode(t, w)["decisionId"])
}

func TestEvaluate_NoModelLoaded(t *testing.T) {
	s, _ := newTestServer(t, Deps{})

	w := do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", `{"applicant": {"gender": "robot"}}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "NO_MODEL_LOADED", body["error"])
	assert.Equal(t, "Please upload a trained model file before making predictions.", body["message"])
}

func TestEvaluate_ValidationErrors(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	require.Equal(t, http.StatusOK, do(s, http.MethodPut, "/v1/sessions/s-1/model", creditArtifact).Code)

	payload := strings.Replace(applicantJSON, `"loanAmount": 100000`, `"loanAmount": -5`, 1)
	w := do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode(t, w)
	assert.Equal(t, "VALIDATION_FAILED", body["error"])
	fieldErrors := body["fieldErrors"].(map[string]interface{})
	assert.Contains(t, fieldErrors, "loanAmount")
}

func TestEvaluate_FieldOrderErrors(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	require.Equal(t, http.StatusOK, do(s, http.MethodPut, "/v1/sessions/s-1/model", creditArtifact).Code)

	payload := strings.Replace(applicantJSON, `{"applicant"`, `{"fieldOrderVersion": "v9", "applicant"`, 1)
	w := do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload = strings.Replace(applicantJSON, `{"applicant"`, `{"fieldOrderVersion": "v2", "applicant"`, 1)
	w = do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "FEATURE_ARITY_MISMATCH", decode(t, w)["error"])
}

func TestEvaluate_ReorderedFieldOrderConflicts(t *testing.T) {
	fields := eligibility.FieldOrderV1.Fields()
	fields[9], fields[10] = fields[10], fields[9]
	swapped, err := eligibility.NewFieldOrder("v1-swapped", fields)
	require.NoError(t, err)
	orders := eligibility.BuiltinFieldOrders()
	orders[swapped.Version()] = swapped

	s, _ := newTestServer(t, Deps{FieldOrders: orders})
	require.Equal(t, http.StatusOK, do(s, http.MethodPut, "/v1/sessions/s-1/model", creditArtifact).Code)

	payload := strings.Replace(applicantJSON, `{"applicant"`, `{"fieldOrderVersion": "v1-swapped", "applicant"`, 1)
	w := do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "FIELD_ORDER_MISMATCH", decode(t, w)["error"])
}

func TestEvaluate_MalformedBody(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	w := do(s, http.MethodPost, "/v1/sessions/s-1/evaluations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==========================
// Form Tests
// ==========================

func TestFormAndFieldOrders(t *testing.T) {
	s, _ := newTestServer(t, Deps{})

	w := do(s, http.MethodGet, "/v1/form", "")
	require.Equal(t, http.StatusOK, w.Code)
	fields := decode(t, w)["fields"].([]interface{})
	assert.Len(t, fields, len(formFields))

	w = do(s, http.MethodGet, "/v1/field-orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	orders := decode(t, w)["fieldOrders"].([]interface{})
	assert.Len(t, orders, len(eligibility.BuiltinFieldOrders()))
}
