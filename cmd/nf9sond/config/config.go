package config

import (
	"strconv"

	"github.com/pkg/errors"
)

// DatabaseConfig is the [Database] section: the sink type and its
// backend-specific settings.
type DatabaseConfig struct {
	Type string // embedded-sql, client-server-sql, delimited-text

	SQLitePath string // embedded-sql

	ClickHouseAddress  string // client-server-sql
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseDatabase string

	CSVPath string // delimited-text
}

// GeneralConfig is the [General] section.
type GeneralConfig struct {
	VerboseLog    bool   // log=1 toggles debug-level logging
	MetricsListen string // host:port for the optional /metrics server; empty disables it
}

// ProbeConfig is one [Sonda<i>] section.
type ProbeConfig struct {
	Name          string
	Version       string
	FilterAddress string // listen_address in the ini file
	Port          int

	SNMPCommunity string // enables §4.8 enrichment for this probe when non-empty
	SNMPVersion   int    // 1, 2 (default), or 3
}

// Config is the collector's full parsed configuration.
type Config struct {
	Database DatabaseConfig
	General  GeneralConfig
	Probes   []ProbeConfig
}

// Load parses path and validates it, matching spec.md §6's rule: every
// probe must have a non-empty name and non-zero port, else loading
// fails.
func Load(path string) (*Config, error) {
	doc, err := parseINI(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Type:               doc.get("Database", "type", ""),
			SQLitePath:         doc.get("Database", "sqlite_path", ""),
			ClickHouseAddress:  doc.get("Database", "clickhouse_address", "localhost:9000"),
			ClickHouseUser:     doc.get("Database", "clickhouse_user", ""),
			ClickHousePassword: doc.get("Database", "clickhouse_password", ""),
			ClickHouseDatabase: doc.get("Database", "clickhouse_database", "flows"),
			CSVPath:            doc.get("Database", "csv_path", ""),
		},
		General: GeneralConfig{
			VerboseLog:    doc.getInt("General", "log", 0) == 1,
			MetricsListen: doc.get("General", "metrics_listen", ""),
		},
	}

	count := doc.getInt("SondeCount", "count", 0)
	for i := 1; i <= count; i++ {
		section := "Sonda" + strconv.Itoa(i)
		probe := ProbeConfig{
			Name:          doc.get(section, "name", ""),
			Version:       doc.get(section, "version", ""),
			FilterAddress: doc.get(section, "listen_address", ""),
			Port:          doc.getInt(section, "port", 0),
			SNMPCommunity: doc.get(section, "snmp_community", ""),
			SNMPVersion:   doc.getInt(section, "snmp_version", 2),
		}

		if probe.Name == "" || probe.Port == 0 {
			return nil, errors.Errorf("config: missing name or port in [%s]", section)
		}

		cfg.Probes = append(cfg.Probes, probe)
	}

	return cfg, nil
}
