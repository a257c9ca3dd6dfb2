// internal/workers/eligibility/evaluate/config.go
package evaluate

import (
	"time"

	"loan-eligibility/internal/eligibility"
)

type Config struct {
	Timeout     time.Duration
	FieldOrders eligibility.FieldOrders
	VerdictRule eligibility.VerdictRule
}
