// Package decision persists eligibility verdicts and indexes them for search.
package decision

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"loan-eligibility/internal/common/database"
	"loan-eligibility/internal/common/errors"
	"loan-eligibility/internal/common/logger"
)

// Record is one verdict as stored in eligibility_decisions.
type Record struct {
	ID                 string    `json:"decisionId"`
	SessionID          string    `json:"sessionId"`
	AccountNumber      string    `json:"accountNumber"`
	FullName           string    `json:"fullName"`
	Verdict            string    `json:"verdict"`
	VerdictRule        string    `json:"verdictRule"`
	FieldOrderVersion  string    `json:"fieldOrderVersion"`
	Features           []float64 `json:"features"`
	RawOutput          []float64 `json:"rawOutput"`
	ModelName          string    `json:"modelName,omitempty"`
	ModelVersion       string    `json:"modelVersion,omitempty"`
	ModelChecksum      string    `json:"modelChecksum,omitempty"`
	ProcessInstanceKey int64     `json:"processInstanceKey,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Indexer stores a document in the search index.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

type Recorder struct {
	pg      *database.PostgresClient
	indexer Indexer
	index   string
	logger  logger.Logger
}

// NewRecorder returns a recorder. indexer may be nil to skip search indexing.
func NewRecorder(pg *database.PostgresClient, indexer Indexer, index string, log logger.Logger) *Recorder {
	return &Recorder{pg: pg, indexer: indexer, index: index, logger: log}
}

// Save writes rec and its audit entry in one transaction, then indexes it.
// Index failures are logged and reported through indexed, never returned.
func (r *Recorder) Save(ctx context.Context, rec Record) (saved Record, indexed bool, err error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Features == nil {
		rec.Features = []float64{}
	}
	if rec.RawOutput == nil {
		rec.RawOutput = []float64{}
	}

	features, _ := json.Marshal(rec.Features)
	rawOutput, _ := json.Marshal(rec.RawOutput)
	auditDetails, _ := json.Marshal(map[string]interface{}{
		"sessionId":         rec.SessionID,
		"verdict":           rec.Verdict,
		"fieldOrderVersion": rec.FieldOrderVersion,
		"modelChecksum":     rec.ModelChecksum,
	})

	var instanceKey sql.NullInt64
	if rec.ProcessInstanceKey != 0 {
		instanceKey = sql.NullInt64{Int64: rec.ProcessInstanceKey, Valid: true}
	}

	err = r.pg.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO eligibility_decisions (
				id, session_id, account_number, full_name, verdict, verdict_rule,
				field_order_version, features, raw_output, model_name, model_version,
				model_checksum, process_instance_key, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			rec.ID, rec.SessionID, rec.AccountNumber, rec.FullName, rec.Verdict, rec.VerdictRule,
			rec.FieldOrderVersion, features, rawOutput, rec.ModelName, rec.ModelVersion,
			rec.ModelChecksum, instanceKey, rec.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (entity_type, entity_id, action, details, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			"eligibility_decision", rec.ID, "decision_recorded", auditDetails, rec.CreatedAt,
		)
		return err
	})
	if err != nil {
		return Record{}, false, errors.NewDatabaseInsertFailedError(err)
	}

	r.logger.Info("eligibility decision recorded", map[string]interface{}{
		"decisionId": rec.ID,
		"sessionId":  rec.SessionID,
		"verdict":    rec.Verdict,
	})

	if r.indexer == nil {
		return rec, false, nil
	}
	if err := r.indexer.IndexDocument(ctx, r.index, rec.ID, rec); err != nil {
		r.logger.Warn("decision search indexing failed", map[string]interface{}{
			"decisionId": rec.ID,
			"index":      r.index,
			"error":      errors.NewSearchIndexFailedError(r.index, err).Details,
		})
		return rec, false, nil
	}
	return rec, true, nil
}
