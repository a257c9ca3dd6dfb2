// internal/workers/eligibility/assemble-features/config.go
package assemblefeatures

import (
	"time"

	"loan-eligibility/internal/eligibility"
)

type Config struct {
	Timeout                  time.Duration
	FieldOrders              eligibility.FieldOrders
	DefaultFieldOrderVersion string
}
