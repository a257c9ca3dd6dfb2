// internal/workers/eligibility/model-register/config.go
package modelregister

import "time"

type Config struct {
	Timeout       time.Duration
	DefaultSource string
}
