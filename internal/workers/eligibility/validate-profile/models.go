// internal/workers/eligibility/validate-profile/models.go
package validateprofile

import "loan-eligibility/internal/eligibility"

type Input struct {
	Applicant eligibility.RawInputs `json:"applicant"`
}

type Output struct {
	Profile       eligibility.ApplicantProfile `json:"profile"`
	AccountNumber string                       `json:"accountNumber"`
	FullName      string                       `json:"fullName"`
	ProfileValid  bool                         `json:"profileValid"`
}
