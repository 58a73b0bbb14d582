package auth

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LoadCredentials reads the technician credential list. The list is
// read-only process-wide state, loaded once at startup and never
// written by the service.
func LoadCredentials(path string) ([]domain.Technician, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}
	var technicians []domain.Technician
	if err := json.Unmarshal(data, &technicians); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return technicians, nil
}
