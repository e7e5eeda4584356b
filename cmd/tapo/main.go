// Command tapo controls and queries devices on the local network.
//
// Usage:
//
//	tapo [global flags] <command> [flags] [args]
//
// Commands:
//
//	discover [target]        Scan for devices (default: broadcast)
//	info <addr>              Show device information
//	on <addr>                Turn a device on
//	off <addr>               Turn a device off
//	energy <addr>            Show energy data of a plug
//	power <addr>             Show power data of a plug
//	children <addr>          List the children of a hub
//	shell                    Start an interactive shell
//
// Credentials come from the configuration file or from the TAPO_USERNAME
// and TAPO_PASSWORD environment variables.
//
// Examples:
//
//	# Find devices on the local network
//	tapo discover
//
//	# Hourly energy of today, exported when influxdb.enabled is set
//	tapo -config tapo.yaml energy -interval hourly 192.168.1.20
//
//	# Capture the protocol exchange for tapo-log
//	tapo -protocol-log capture.cbor info 192.168.1.20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tapo-protocol/tapo-go/internal/config"
)

const usage = `tapo - local device client

Usage:
  tapo [global flags] <command> [flags] [args]

Commands:
`

func printUsage() {
	fmt.Fprint(os.Stderr, usage)
	printCommands(os.Stderr)
	fmt.Fprintln(os.Stderr, "\nGlobal flags:")
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	protocolLog := flag.String("protocol-log", "", "Write a protocol capture to this file")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		return 2
	}
	name, args := flag.Arg(0), flag.Args()[1:]
	if name == "help" {
		printUsage()
		return 0
	}

	var cmd *command
	if name != "shell" {
		var ok bool
		if cmd, ok = lookup(name); !ok {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
			printUsage()
			return 2
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *protocolLog != "" {
		cfg.Logging.ProtocolLog = *protocolLog
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	a, err := newApp(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == nil {
		err = runShell(ctx, a)
	} else {
		err = cmd.run(ctx, a, args, os.Stdout)
	}
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}
