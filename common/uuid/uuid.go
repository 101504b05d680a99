// Package uuid mints the correlation IDs VcapRequestID stamps onto
// requests lacking one already.
package uuid

import . "github.com/nu7hatch/gouuid"

// GenerateUUID returns a random v4 UUID string.
func GenerateUUID() (string, error) {
	guid, err := NewV4()
	if err != nil {
		return "", err
	}
	return guid.String(), nil
}
