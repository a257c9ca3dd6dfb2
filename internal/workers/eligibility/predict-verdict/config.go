// internal/workers/eligibility/predict-verdict/config.go
package predictverdict

import (
	"time"

	"loan-eligibility/internal/eligibility"
)

type Config struct {
	Timeout     time.Duration
	VerdictRule eligibility.VerdictRule
}
