package meraki

import (
	"context"
	"encoding/json"
	"fmt"
)

// Organizations lists every organization the API key can see.
func (c *Client) Organizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := c.get(ctx, "/organizations", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// OrganizationByName resolves an organization by exact name. The
// dashboard has no server-side name filter, so this walks the full
// list and returns the first match.
func (c *Client) OrganizationByName(ctx context.Context, name string) (*Organization, error) {
	orgs, err := c.Organizations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orgs {
		if orgs[i].Name == name {
			return &orgs[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "Organization", Name: name}
}

// OrganizationSummary returns the organization summary document as the
// dashboard sent it. The shape varies by license mix, so callers render
// it as JSON rather than picking fields.
func (c *Client) OrganizationSummary(ctx context.Context, orgID string) (json.RawMessage, error) {
	return c.Raw(ctx, fmt.Sprintf("/organizations/%s/summary", orgID), nil)
}

// OrganizationDeviceStatuses returns the connectivity records for every
// device in an organization in one call. Cheaper than polling each
// device when a surface only needs online/offline counts.
func (c *Client) OrganizationDeviceStatuses(ctx context.Context, orgID string) ([]DeviceStatus, error) {
	var statuses []DeviceStatus
	path := fmt.Sprintf("/organizations/%s/devices/statuses", orgID)
	if err := c.get(ctx, path, nil, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// Networks lists the networks in an organization.
func (c *Client) Networks(ctx context.Context, orgID string) ([]Network, error) {
	var nets []Network
	if err := c.get(ctx, fmt.Sprintf("/organizations/%s/networks", orgID), nil, &nets); err != nil {
		return nil, err
	}
	return nets, nil
}

// NetworkByName resolves a network by exact name within org.
func (c *Client) NetworkByName(ctx context.Context, org *Organization, name string) (*Network, error) {
	nets, err := c.Networks(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	for i := range nets {
		if nets[i].Name == name {
			return &nets[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "Network", Name: name, Org: org.Name}
}
