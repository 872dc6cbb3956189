// Command cec-console is an interactive console for a CEC bus, in the
// spirit of cec-client. It opens the adapter, prints incoming traffic
// on demand and accepts commands at a prompt.
//
// Usage:
//
//	cec-console [flags]
//
// Flags:
//
//	-config string  YAML configuration file
//	-port string    Adapter serial port (overrides config)
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cec-project/cec-go/internal/cliconfig"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.String("port", "", "adapter serial port (overrides config)")
	flag.Parse()

	cfg := cliconfig.Default()
	if *configPath != "" {
		var err error
		cfg, err = cliconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cec-console: load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *port != "" {
		cfg.Port = *port
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: cfg.SlogLevel()})))

	console, err := newConsole(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cec-console: %v\n", err)
		os.Exit(1)
	}
	defer console.close()

	console.run()
}
