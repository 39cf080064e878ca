package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/eliminyro/stevedore/internal/core/daemoncfg"
	"github.com/eliminyro/stevedore/internal/core/domain"
	"github.com/eliminyro/stevedore/internal/shell/cfssl"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all tool configuration.
type Config struct {
	Docker DockerConfig `mapstructure:"docker"`
	Log    LogConfig    `mapstructure:"log"`
	Setup  SetupConfig  `mapstructure:"setup"`
	Deploy DeployConfig `mapstructure:"deploy"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetupConfig holds host preparation configuration.
type SetupConfig struct {
	ServerName string          `mapstructure:"server_name"`
	TLSPort    int             `mapstructure:"tls_port"`
	CertsDir   string          `mapstructure:"certs_dir"`
	CAURL      string          `mapstructure:"ca_url"`
	CSR        CSRConfig       `mapstructure:"csr"`
	Extra      map[string]any  `mapstructure:"daemon_options"`
	Networks   []NetworkConfig `mapstructure:"networks"`
}

// CSRConfig holds certificate subject fields submitted to the CA.
type CSRConfig struct {
	Hosts        string `mapstructure:"hosts"` // comma-separated SANs
	Country      string `mapstructure:"country"`
	State        string `mapstructure:"state"`
	Locality     string `mapstructure:"locality"`
	Organization string `mapstructure:"organization"`
	Unit         string `mapstructure:"unit"`
	KeyAlgo      string `mapstructure:"key_algo"`
	KeySize      int    `mapstructure:"key_size"`
}

// NetworkConfig declares one container network to provision.
type NetworkConfig struct {
	Name    string            `mapstructure:"name"`
	Driver  string            `mapstructure:"driver"`
	Subnet  string            `mapstructure:"subnet"`
	Gateway string            `mapstructure:"gateway"`
	IPRange string            `mapstructure:"ip_range"`
	Options map[string]string `mapstructure:"options"`
}

// DeployConfig holds application rollout configuration.
type DeployConfig struct {
	// Namespace is the YAML file of "{app}_{suffix}" variables.
	Namespace string `mapstructure:"namespace"`

	// SourceRoot holds per-application files/ and templates/ directories.
	SourceRoot string `mapstructure:"source_root"`

	// Owner and Group receive ownership of materialized host paths.
	// Empty leaves ownership with the invoking user.
	Owner string `mapstructure:"owner"`
	Group string `mapstructure:"group"`

	// Vars are "{app}_{suffix}" variables overlaid onto the namespace
	// file; values here win over the file's.
	Vars map[string]any `mapstructure:"vars"`
}

// CSRRequest converts the configured subject fields into a CA request.
func (c SetupConfig) CSRRequest() cfssl.CSRRequest {
	req := cfssl.CSRRequest{
		CN:  c.ServerName,
		Key: cfssl.KeySpec{Algo: c.CSR.KeyAlgo, Size: c.CSR.KeySize},
	}
	for _, h := range strings.Split(c.CSR.Hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			req.Hosts = append(req.Hosts, h)
		}
	}
	name := cfssl.CSRName{
		C:  c.CSR.Country,
		ST: c.CSR.State,
		L:  c.CSR.Locality,
		O:  c.CSR.Organization,
		OU: c.CSR.Unit,
	}
	if name != (cfssl.CSRName{}) {
		req.Names = []cfssl.CSRName{name}
	}
	return req
}

// DomainNetworks converts the declared networks into domain records.
func (c SetupConfig) DomainNetworks() []domain.Network {
	networks := make([]domain.Network, 0, len(c.Networks))
	for _, n := range c.Networks {
		nw := domain.Network{
			Name:    n.Name,
			Driver:  n.Driver,
			Options: n.Options,
		}
		if n.Subnet != "" || n.Gateway != "" || n.IPRange != "" {
			nw.IPAM = &domain.IPAMConfig{
				Subnet:  n.Subnet,
				Gateway: n.Gateway,
				IPRange: n.IPRange,
			}
		}
		networks = append(networks, nw)
	}
	return networks
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("docker.host", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("setup.tls_port", daemoncfg.DefaultTLSPort)
	v.SetDefault("setup.certs_dir", daemoncfg.DefaultCertsDir)
	v.SetDefault("setup.csr.key_algo", "ecdsa")
	v.SetDefault("setup.csr.key_size", 256)
	v.SetDefault("deploy.namespace", "./apps.yml")
	v.SetDefault("deploy.source_root", "./apps")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("STEVEDORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
