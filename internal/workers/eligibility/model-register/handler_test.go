// internal/workers/eligibility/model-register/handler_test.go
package modelregister

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/internal/common/errors"
	commonhttp "loan-eligibility/internal/common/http"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/eligibility"
	"loan-eligibility/internal/model"
)

// ==========================
// Test Helper Functions
// ==========================

const sampleArtifact = `{
	"kind": "logistic_regression",
	"name": "loan-approval",
	"version": "2024.1",
	"fieldOrderVersion": "v1",
	"expectedFeatureCount": 11,
	"logistic": {"weights": [0,0,0,0,0,0,0,0,0,4,0], "intercept": -2}
}`

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

type fixture struct {
	handler *Handler
	mr      *miniredis.Miniredis
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &testLogger{t: t}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loan.json"), []byte(sampleArtifact), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"kind":`), 0o600))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	builder := model.NewBuilder(eligibility.BuiltinFieldOrders(), commonhttp.NewClient(time.Second))
	loader := model.NewLoader(builder, time.Second, log)
	loader.Register(model.SourceFile, model.NewFileSource(dir))
	sessions := model.NewSessionStore(rdb, builder, time.Hour, log)

	return &fixture{
		handler: NewHandler(&Config{Timeout: 5 * time.Second}, loader, sessions, log),
		mr:      mr,
		dir:     dir,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RegistersModel(t *testing.T) {
	f := newFixture(t)

	output, err := f.handler.Execute(context.Background(), &Input{SessionID: "s-1", Key: "loan.json"})
	require.NoError(t, err)

	assert.True(t, output.ModelLoaded)
	assert.Equal(t, "loan-approval", output.ModelName)
	assert.Equal(t, "logistic_regression", output.ModelKind)
	assert.Equal(t, "v1", output.FieldOrderVersion)
	assert.Equal(t, 11, output.ExpectedFeatureCount)
	assert.Len(t, output.ModelChecksum, 64)
	assert.True(t, f.mr.Exists("eligibility:model:s-1"))
}

func TestHandler_Execute_InvalidArtifactKeepsPreviousModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.handler.Execute(ctx, &Input{SessionID: "s-2", Key: "loan.json"})
	require.NoError(t, err)

	_, err = f.handler.Execute(ctx, &Input{SessionID: "s-2", Key: "broken.json"})
	require.Error(t, err)
	assert.Equal(t, eligibility.KindModelLoadError, eligibility.KindOf(err))
	assert.Equal(t, errors.ErrCodeModelLoadFailed, errors.FromEligibility(err).Code)

	stored, err := f.mr.Get("eligibility:model:s-2")
	require.NoError(t, err)
	assert.JSONEq(t, sampleArtifact, stored)
}

func TestHandler_Execute_MissingArtifactAndSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Execute(context.Background(), &Input{SessionID: "s-3", Key: "nope.json"})
	assert.Equal(t, eligibility.KindModelLoadError, eligibility.KindOf(err))

	_, err = f.handler.Execute(context.Background(), &Input{SessionID: "s-3", Source: "minio", Key: "loan.json"})
	assert.Equal(t, eligibility.KindModelLoadError, eligibility.KindOf(err))
}

func TestHandler_Execute_SessionStoreDown(t *testing.T) {
	f := newFixture(t)
	f.mr.Close()

	_, err := f.handler.Execute(context.Background(), &Input{SessionID: "s-4", Key: "loan.json"})
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeSessionStoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestInputSchema(t *testing.T) {
	var input Input
	assert.NoError(t, inputSchema.Decode([]byte(`{"sessionId":"s","modelKey":"k","extra":1}`), &input))
	assert.Error(t, inputSchema.Decode([]byte(`{"sessionId":"s"}`), &input))
	assert.Error(t, inputSchema.Decode([]byte(`{"sessionId":"s","modelKey":"k","modelSource":"ftp"}`), &input))
}
