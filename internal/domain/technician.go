package domain

// Technician is an operator credential from the read-only employee list.
// The secret may be a bcrypt hash or a plaintext authcode; verification
// handles both. Technicians are never persisted by the core and attach to
// tickets only as the closed_by attribution.
type Technician struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}
