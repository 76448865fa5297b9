package web

import (
	"context"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/metrics"
)

// EstateSource walks every organization the daemon's API key can see
// and produces the inventory overview the metrics collector caches.
// Per-org failures are logged and skipped so one broken org does not
// blank the whole estate.
type EstateSource struct {
	client *meraki.Client
	log    *logging.Logger
}

// NewEstateSource creates an overview source on the given client.
func NewEstateSource(client *meraki.Client) *EstateSource {
	return &EstateSource{
		client: client,
		log:    logging.Default().WithComponent("estate"),
	}
}

// FetchOverview implements metrics.OverviewSource.
func (e *EstateSource) FetchOverview(ctx context.Context) (*metrics.Overview, error) {
	orgs, err := e.client.Organizations(ctx)
	if err != nil {
		return nil, err
	}

	ov := &metrics.Overview{
		Organizations:   len(orgs),
		DevicesByStatus: make(map[string]int),
		DevicesByModel:  make(map[string]int),
		CollectedAt:     clock.Now(),
	}

	for _, org := range orgs {
		nets, err := e.client.Networks(ctx, org.ID)
		if err != nil {
			e.log.Warn("skipping organization networks", "organization", org.Name, "error", err)
		} else {
			ov.Networks += len(nets)
		}

		statuses, err := e.client.OrganizationDeviceStatuses(ctx, org.ID)
		if err != nil {
			e.log.Warn("skipping organization devices", "organization", org.Name, "error", err)
			continue
		}
		ov.Devices += len(statuses)
		for _, st := range statuses {
			if st.Status != "" {
				ov.DevicesByStatus[st.Status]++
			}
			if st.Model != "" {
				ov.DevicesByModel[st.Model]++
			}
		}
	}
	return ov, nil
}
