package admission

import "errors"

var (
	ErrAdmissionNotFound = errors.New("admission not found")
	ErrAlreadyAdmitted   = errors.New("patient already has an active admission")
	ErrNoActiveAdmission = errors.New("patient has no active admission")
)
