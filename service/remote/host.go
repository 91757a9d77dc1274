package remote

import "github.com/viant/afs/url"

// Host identifies where rendered pipelines run. The zero value targets the
// local machine; any other host name is reached over SSH with credentials
// resolved through the secret service.
type Host struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Credentials string `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// Init fills in defaults.
func (h *Host) Init() {
	if h.URL == "" {
		h.URL = "bash://localhost/"
	}
}

// Local reports whether the host resolves to the local machine.
func (h *Host) Local() bool {
	return url.Host(h.URL) == "localhost"
}
