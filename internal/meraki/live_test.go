package meraki_test

import (
	"context"
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/testutil"
)

// TestLiveOrganizations smoke-tests the client against the real
// dashboard. Runs only with MERAKI_API_KEY set.
func TestLiveOrganizations(t *testing.T) {
	key := testutil.RequireLiveAPI(t)

	client := meraki.New(meraki.WithAPIKey(key))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	orgs, err := client.Organizations(ctx)
	if err != nil {
		t.Fatalf("Organizations failed: %v", err)
	}
	if len(orgs) == 0 {
		t.Fatal("expected at least one organization for the provided key")
	}
	for _, org := range orgs {
		if org.ID == "" {
			t.Errorf("organization %q has no ID", org.Name)
		}
	}
}
