package testutil

import (
	"os"
	"testing"
)

// RequireLiveAPI skips the test unless MERAKI_API_KEY is set, and
// returns the key. Live tests hit the real dashboard and are only run
// when a key is deliberately provided.
func RequireLiveAPI(t *testing.T) string {
	t.Helper()
	key := os.Getenv("MERAKI_API_KEY")
	if key == "" {
		t.Skip("Skipping test: requires MERAKI_API_KEY environment")
	}
	return key
}
