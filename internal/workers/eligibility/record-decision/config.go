// internal/workers/eligibility/record-decision/config.go
package recorddecision

import "time"

type Config struct {
	Timeout time.Duration
}
