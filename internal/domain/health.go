package domain

// StatusOK is the only status the liveness endpoint ever reports.
const StatusOK = "ok"

// HealthStatus is the liveness payload. It always marshals to a single
// "status" key.
type HealthStatus struct {
	Status string `json:"status"`
}

// NewHealthStatus returns a fresh payload reporting StatusOK.
func NewHealthStatus() HealthStatus {
	return HealthStatus{Status: StatusOK}
}
