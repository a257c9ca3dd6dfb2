// internal/workers/eligibility/validate-profile/config.go
package validateprofile

import "time"

type Config struct {
	Timeout time.Duration
}
