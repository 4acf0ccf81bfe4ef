package config

// Config is the top-level configuration parsed from the YAML config file.
type Config struct {
	API   APIConfig   `yaml:"api"   json:"api"`
	Proxy ProxyConfig `yaml:"proxy" json:"proxy"`
}

// APIConfig configures how the frontend reaches the backend API.
type APIConfig struct {
	// BaseURL overrides the resolved API base URL. When set it wins over
	// every runtime-context default.
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`
}

// ProxyConfig configures the development proxy.
type ProxyConfig struct {
	// PathPrefix is the request path prefix forwarded to the backend.
	PathPrefix string `yaml:"pathPrefix" json:"pathPrefix"`

	// Target is the backend origin the proxy forwards to.
	Target string `yaml:"target" json:"target"`

	// CookieDomain rewrites the Domain attribute of upstream cookies.
	// Empty strips the attribute.
	CookieDomain string `yaml:"cookieDomain" json:"cookieDomain"`
}
