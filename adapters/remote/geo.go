package remote

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/plancart/ports"
)

// DefaultGeoURL is the public ipapi endpoint.
const DefaultGeoURL = "https://ipapi.co"

// CountryLocator resolves client IPs with ipapi.
//
// API Contract:
//
//	GET /{ip}/json/   (or /json/ for the caller's own address)
//	Response: {"country_code": "DE", ...}
type CountryLocator struct {
	client *Client
}

// NewCountryLocator creates an ipapi-backed locator. An empty baseURL uses
// DefaultGeoURL.
func NewCountryLocator(baseURL string, timeout time.Duration) *CountryLocator {
	if baseURL == "" {
		baseURL = DefaultGeoURL
	}
	return &CountryLocator{
		client: NewClient(ClientConfig{BaseURL: baseURL, Timeout: timeout}),
	}
}

// Country returns the upper-case country code of ip. Private and loopback
// addresses are looked up as the server's own address.
func (l *CountryLocator) Country(ctx context.Context, ip string) (string, error) {
	path := "/json/"
	if addr := net.ParseIP(ip); addr != nil && !addr.IsLoopback() && !addr.IsPrivate() {
		path = "/" + addr.String() + "/json/"
	}

	var resp struct {
		CountryCode string `json:"country_code"`
		Error       bool   `json:"error"`
		Reason      string `json:"reason"`
	}
	if err := l.client.Request(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return "", fmt.Errorf("locate %s: %w", ip, err)
	}
	if resp.Error {
		return "", fmt.Errorf("locate %s: %s", ip, resp.Reason)
	}
	if len(resp.CountryCode) != 2 {
		return "", fmt.Errorf("locate %s: unexpected country code %q", ip, resp.CountryCode)
	}

	return strings.ToUpper(resp.CountryCode), nil
}

// Ensure interface compliance.
var _ ports.CountryLocator = (*CountryLocator)(nil)
