package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DeviceIDKey is the reserved state key holding this device's learner ID.
const DeviceIDKey = "device-id"

// DeviceID returns the learner ID stored for this device, minting and
// saving a new UUID on first use.
func DeviceID(ctx context.Context, repo StateRepo) (string, error) {
	raw, err := repo.Load(ctx, DeviceIDKey)
	if err != nil {
		return "", fmt.Errorf("load device id: %w", err)
	}
	if id := strings.TrimSpace(string(raw)); id != "" {
		return id, nil
	}

	id := uuid.NewString()
	if err := repo.Save(ctx, DeviceIDKey, []byte(id)); err != nil {
		return "", fmt.Errorf("save device id: %w", err)
	}
	return id, nil
}
