// internal/workers/eligibility/send-notification/config.go
package sendnotification

import "time"

type Config struct {
	Timeout      time.Duration
	EmailSubject string
}
