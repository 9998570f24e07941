package olza

import "time"

// Upstream endpoint names, relative to the configured API URL.
const (
	EndpointCountries = "countries"
	EndpointConfig    = "config"
	EndpointFind      = "find"
)

// CountryEntry is one country parsed from the /countries response.
type CountryEntry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Timeouts bounds each upstream call. Find is long because /find returns the
// full pickup point list for a provider.
type Timeouts struct {
	Countries time.Duration
	Config    time.Duration
	Find      time.Duration
}

// DefaultTimeouts mirrors the configuration defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Countries: 60 * time.Second,
		Config:    60 * time.Second,
		Find:      300 * time.Second,
	}
}

// Response is a raw upstream reply. Non-2xx replies are not errors at this level.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
