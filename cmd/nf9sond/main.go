// Command nf9sond is a NetFlow v9 collector: it binds one UDP socket
// per configured probe, decodes exporter datagrams, and persists
// FlowRecords to a pluggable sink. Grounded on the teacher's
// cmd/flowhouse/main.go for CLI/logging wiring, and on
// original_source/netflow_collector.cpp's main() for the flag surface
// and startup sequencing this collector replaces the C++ original
// with.
package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"nf9sond/cmd/nf9sond/config"
	"nf9sond/pkg/diagnostics"
	"nf9sond/pkg/intfmapper"
	"nf9sond/pkg/metrics"
	decoder "nf9sond/pkg/packet/netflow9"
	"nf9sond/pkg/servers/netflow9"
	"nf9sond/pkg/sink"
	"nf9sond/pkg/sink/clickhousesink"
	"nf9sond/pkg/sink/sqlitesink"
	"nf9sond/pkg/sink/textsink"

	bnet "github.com/bio-routing/bio-rd/net"
)

const version = "1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	configPath := "nf_sond.ini"
	display := false
	checkDBOnly := false
	diagPath := ""

	for _, arg := range args {
		switch {
		case arg == "-v" || arg == "--version":
			printVersion()
			return 0
		case arg == "-h" || arg == "--help":
			printHelp()
			return 0
		case arg == "-d" || arg == "--display":
			display = true
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--checkdb":
			checkDBOnly = true
		case strings.HasPrefix(arg, "--diag="):
			diagPath = strings.TrimPrefix(arg, "--diag=")
		default:
			fmt.Fprintf(os.Stderr, "Unknown argument: %s\n", arg)
			printHelp()
			return 1
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		return 1
	}

	if cfg.General.VerboseLog {
		log.SetLevel(log.DebugLevel)
	}

	if checkDBOnly {
		return checkDB(cfg)
	}

	dumper, err := diagnostics.OpenOptional(diagPath)
	if err != nil {
		log.WithError(err).Error("failed to open diagnostic file")
		return 1
	}
	defer dumper.Close()

	if cfg.General.MetricsListen != "" {
		metrics.Serve(cfg.General.MetricsListen)
		log.WithField("address", cfg.General.MetricsListen).Info("serving metrics")
	}

	runtimes := make([]*netflow9.Runtime, 0, len(cfg.Probes))
	for _, probeCfg := range cfg.Probes {
		s, err := buildSink(cfg.Database)
		if err != nil {
			log.WithError(err).WithField("probe", probeCfg.Name).Error("failed to build sink")
			return 1
		}

		var resolver decoder.InterfaceResolver
		if probeCfg.SNMPCommunity != "" {
			r := intfmapper.NewResolver()
			addr, err := bnet.IPFromString(probeCfg.FilterAddress)
			if err != nil {
				log.WithError(err).WithField("probe", probeCfg.Name).Warning("cannot parse address for interface-name enrichment, disabling it")
			} else {
				r.Watch(probeCfg.FilterAddress, addr, intfmapper.SNMPConfig{
					Community: probeCfg.SNMPCommunity,
					Version:   probeCfg.SNMPVersion,
				}, 0)
				resolver = r
			}
		}

		rt, err := netflow9.New(netflow9.Config{
			Name:       probeCfg.Name,
			FilterAddr: probeCfg.FilterAddress,
			Port:       probeCfg.Port,
			Display:    display,
		}, s, resolver, dumper)
		if err != nil {
			log.WithError(err).WithField("probe", probeCfg.Name).Error("failed to start probe")
			return 1
		}

		runtimes = append(runtimes, rt)
		log.WithField("probe", probeCfg.Name).WithField("port", probeCfg.Port).Info("probe started")
	}

	select {}
}

// checkDB implements --checkdb: open, ensure schema, health check, and
// exit 0/1 without starting any probe.
func checkDB(cfg *config.Config) int {
	s, err := buildSink(cfg.Database)
	if err != nil {
		log.WithError(err).Error("failed to build sink")
		return 1
	}
	defer s.Close()

	if err := s.Open(); err != nil {
		log.WithError(err).Error("database check failed: open")
		return 1
	}
	if err := s.HealthCheck(); err != nil {
		log.WithError(err).Error("database check failed: health check")
		return 1
	}

	fmt.Println("Database check completed successfully.")
	return 0
}

func buildSink(cfg config.DatabaseConfig) (sink.Sink, error) {
	switch cfg.Type {
	case "embedded-sql":
		return sqlitesink.New(sqlitesink.Config{Path: cfg.SQLitePath}), nil
	case "client-server-sql":
		return clickhousesink.New(clickhousesink.Config{
			Address:  cfg.ClickHouseAddress,
			User:     cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
			Database: cfg.ClickHouseDatabase,
		}), nil
	case "delimited-text":
		return textsink.New(textsink.Config{Path: cfg.CSVPath}), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %q", cfg.Type)
	}
}

func printVersion() {
	fmt.Printf("nf9sond version %s\n", version)
}

func printHelp() {
	fmt.Println("Usage: nf9sond [options]")
	fmt.Println("Options:")
	fmt.Println("  -h, --help        Show this help message")
	fmt.Println("  -v, --version     Show version information")
	fmt.Println("  -d, --display     Display incoming packets and their acceptance status")
	fmt.Println("  --config=PATH     Path to configuration file (default: nf_sond.ini)")
	fmt.Println("  --checkdb         Check database connection and initialize schema")
	fmt.Println("  --diag=PATH       Append raw hex dumps of every received datagram to PATH")
}
