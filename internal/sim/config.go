package sim

import (
	"flag"
	"os"

	"gopkg.in/yaml.v3"

	commoncfg "github.com/solport/solport/core/config"
)

// Config holds configuration for the surface simulator.
type Config struct {
	Addr          string `yaml:"addr"`
	MetricsAddr   string `yaml:"metrics_addr"`
	Cluster       string `yaml:"cluster"`
	LogLevel      string `yaml:"log_level"`
	RejectConnect bool   `yaml:"reject_connect"`
	ConfigFile    string `yaml:"-"`
}

// BindFlags seeds the config from the environment and registers flags.
func (c *Config) BindFlags() {
	c.ConfigFile = commoncfg.GetEnv("CONFIG_FILE", "")
	c.Addr = commoncfg.GetEnv("ADDR", ":9642")
	c.MetricsAddr = commoncfg.GetEnv("METRICS_ADDR", "")
	c.Cluster = commoncfg.GetEnv("CLUSTER", "devnet")
	c.LogLevel = commoncfg.GetEnv("LOG_LEVEL", "info")

	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "path to yaml config file")
	flag.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	flag.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "metrics listen address (empty serves /metrics on the main listener)")
	flag.StringVar(&c.Cluster, "cluster", c.Cluster, "cluster this surface claims to serve")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	flag.BoolVar(&c.RejectConnect, "reject-connect", c.RejectConnect, "reject every connect attempt (for host testing)")
}

// LoadFile overlays values from a yaml file onto the config.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}
