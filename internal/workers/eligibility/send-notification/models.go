// internal/workers/eligibility/send-notification/models.go
package sendnotification

type Input struct {
	AccountNumber string `json:"accountNumber"`
	FullName      string `json:"fullName"`
	Verdict       string `json:"verdict"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Email         string `json:"email,omitempty"`
}

type Output struct {
	NotificationSent bool     `json:"notificationSent"`
	Channels         []string `json:"channels"`
	MessageIDs       []string `json:"messageIds"`
	FailedChannels   []string `json:"failedChannels"`
	Message          string   `json:"notificationMessage"`
}
