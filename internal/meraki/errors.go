package meraki

import (
	"errors"
	"fmt"
)

// APIError reports a non-2xx response from the dashboard after the
// rate-limit retry has been spent.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsAPIError extracts an *APIError from err, if there is one.
func IsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// NotFoundError reports a name that matched nothing during resolution.
// Resolution is exact match on the dashboard-reported name.
type NotFoundError struct {
	Kind string // what was being resolved, e.g. "Organization"
	Name string
	Org  string // set when the search was scoped to one organization
}

func (e *NotFoundError) Error() string {
	if e.Org != "" {
		return fmt.Sprintf("%s '%s' not found in organization '%s'", e.Kind, e.Name, e.Org)
	}
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

// IsNotFound reports whether err is a name resolution miss.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
