// Package config loads leapchunk configuration from file, environment and
// CLI flags.
package config

// Defaults applied before any other configuration source.
const (
	DefaultMaxTokens   = 2000
	DefaultDialect     = "auto"
	DefaultPort        = 8080
	DefaultCatalogPath = ".leapchunk/catalog.db"
)

// ConfigFileName is the primary config file name.
const ConfigFileName = "leapchunk.yaml"

// ConfigFileNameAlt is the alternate config file name.
const ConfigFileNameAlt = "leapchunk.yml"

// Config is the resolved configuration for the CLI and server.
type Config struct {
	// MaxTokens is the per-chunk token budget.
	MaxTokens int `koanf:"max_tokens" yaml:"max_tokens"`
	// Dialect is the SQL dialect tag (auto, generic, postgres, tsql).
	Dialect string `koanf:"dialect" yaml:"dialect"`
	// Workers bounds the batch worker pool; zero picks a CPU-based size.
	Workers int `koanf:"workers" yaml:"workers"`
	// Port is the HTTP service port.
	Port int `koanf:"port" yaml:"port"`
	// CatalogPath locates the SQLite chunk catalog.
	CatalogPath string `koanf:"catalog_path" yaml:"catalog_path"`
	// Verbose enables debug-level logging.
	Verbose bool `koanf:"verbose" yaml:"verbose"`
}
