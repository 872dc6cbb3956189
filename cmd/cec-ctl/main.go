// Command cec-ctl sends one-shot commands to devices on a CEC bus.
//
// Usage:
//
//	cec-ctl [flags] <command> [args]
//
// Commands:
//
//	adapters            List detected adapters
//	scan                Poll all addresses and print what answers
//	on <addr>           Power on a device (15 = everything)
//	standby <addr>      Put a device in standby (15 = everything)
//	source              Claim active source for this adapter
//	inactive            Cede active source back to the TV
//	volume up|down|mute|unmute|togglemute
//	                    Control the audio system
//	audio on|off        System audio mode (amp takes over output)
//	key <addr> <code>   Send a key press/release pair (code in hex)
//	power <addr>        Query a device's power status
//	vendor <addr>       Query a device's vendor ID
//	name <addr>         Query a device's OSD name
//	version <addr>      Query a device's CEC version
//	monitor             Print bus traffic until interrupted
//
// Flags:
//
//	-config string   YAML configuration file
//	-port string     Adapter serial port (overrides config)
//	-osd string      OSD name to announce (overrides config)
//	-timeout duration  Query timeout (default 5s)
//
// Examples:
//
//	# Put the TV in standby
//	cec-ctl standby 0
//
//	# Ask the audio system who made it
//	cec-ctl vendor 5
//
//	# Watch the bus with a capture file configured in cec.yaml
//	cec-ctl -config cec.yaml monitor
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cec-project/cec-go/internal/cliconfig"
	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/connection"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.String("port", "", "adapter serial port (overrides config)")
	osdName := flag.String("osd", "", "OSD name to announce (overrides config)")
	timeout := flag.Duration("timeout", 5*time.Second, "query timeout")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := cliconfig.Default()
	if *configPath != "" {
		var err error
		cfg, err = cliconfig.Load(*configPath)
		if err != nil {
			fatal("load config: %v", err)
		}
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *osdName != "" {
		cfg.DeviceName = *osdName
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: cfg.SlogLevel()})))

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	// adapters needs no connection.
	if cmd == "adapters" {
		runAdapters()
		return
	}

	b, cleanup, err := cfg.Builder()
	if err != nil {
		fatal("%v", err)
	}
	defer cleanup()
	b.QueryTimeout(*timeout)

	var monitorPrint func(cec.Frame)
	if cmd == "monitor" {
		monitorPrint = func(f cec.Frame) {
			fmt.Printf("%s  %s -> %s", f, f.Initiator, f.Destination)
			if f.OpcodeSet {
				fmt.Printf("  %s", f.Opcode)
			}
			fmt.Println()
		}
		b.Handlers(connection.Handlers{Command: func(f cec.Frame) { monitorPrint(f) }})
	}

	built, err := b.Build()
	if err != nil {
		fatal("%v", err)
	}

	conn, err := connection.Open(built)
	if err != nil {
		fatal("open: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, conn, cmd, args); err != nil {
		fatal("%s: %v", cmd, err)
	}
}

func run(ctx context.Context, conn *connection.Connection, cmd string, args []string) error {
	switch cmd {
	case "scan":
		return runScan(conn)

	case "on":
		target, err := parseTarget(args, 0)
		if err != nil {
			return err
		}
		return conn.PowerOn(target)

	case "standby":
		target, err := parseTarget(args, 0)
		if err != nil {
			return err
		}
		return conn.Standby(target)

	case "source":
		return conn.SetActiveSource()

	case "inactive":
		return conn.SetInactiveSource()

	case "volume":
		if len(args) != 1 {
			return fmt.Errorf("usage: volume up|down|mute|unmute|togglemute")
		}
		switch args[0] {
		case "up":
			return conn.VolumeUp()
		case "down":
			return conn.VolumeDown()
		case "mute":
			return conn.MuteAudio()
		case "unmute":
			return conn.UnmuteAudio()
		case "togglemute":
			return conn.ToggleMute()
		default:
			return fmt.Errorf("unknown volume action %q", args[0])
		}

	case "audio":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: audio on|off")
		}
		return conn.SetSystemAudioMode(args[0] == "on")

	case "key":
		target, err := parseTarget(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return fmt.Errorf("usage: key <addr> <code>")
		}
		code, err := strconv.ParseUint(args[1], 16, 8)
		if err != nil {
			return fmt.Errorf("key code %q: %w", args[1], err)
		}
		if err := conn.SendKeypress(target, cec.UserControlCode(code)); err != nil {
			return err
		}
		return conn.SendKeyRelease(target)

	case "power":
		target, err := parseTarget(args, 0)
		if err != nil {
			return err
		}
		if err := ensureObserved(conn, target); err != nil {
			return err
		}
		status, err := conn.PowerStatus(ctx, target)
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil

	case "vendor":
		target, err := parseTarget(args, 0)
		if err != nil {
			return err
		}
		if err := ensureObserved(conn, target); err != nil {
			return err
		}
		vendor, err := conn.VendorID(ctx, target)
		if err != nil {
			return err
		}
		fmt.Println(vendor)
		return nil

	case "name":
		target, err := parseTarget(args, 0)
		if err != nil {
			return err
		}
		if err := ensureObserved(conn, target); err != nil {
			return err
		}
		name, err := conn.OSDName(ctx, target)
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil

	case "version":
		target, err := parseTarget(args, 0)
		if err != nil {
			return err
		}
		if err := ensureObserved(conn, target); err != nil {
			return err
		}
		v, err := conn.Version(ctx, target)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil

	case "monitor":
		fmt.Fprintln(os.Stderr, "monitoring bus, ^C to stop")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if n := conn.DroppedEvents(); n > 0 {
			fmt.Fprintf(os.Stderr, "dropped %d events\n", n)
		}
		return nil

	default:
		return fmt.Errorf("unknown command")
	}
}

// ensureObserved polls the target so a fresh connection's model knows
// it before a query is attempted.
func ensureObserved(conn *connection.Connection, target cec.LogicalAddress) error {
	present, err := conn.Poll(target)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("no device at address %d", target)
	}
	return nil
}

func runAdapters() {
	adapters, err := connection.Adapters()
	if err != nil {
		fatal("find adapters: %v", err)
	}
	if len(adapters) == 0 {
		fmt.Println("no adapters found")
		return
	}
	for _, a := range adapters {
		fmt.Printf("%s\t%s\n", a.Comm, a.Path)
	}
}

func runScan(conn *connection.Connection) error {
	fmt.Println("scanning bus...")
	for addr := cec.AddressTV; addr < cec.AddressBroadcast; addr++ {
		present, err := conn.Poll(addr)
		if err != nil {
			return err
		}
		if !present {
			continue
		}

		line := fmt.Sprintf("%2d  %-20s", addr, addr)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if name, err := conn.OSDName(ctx, addr); err == nil && name != "" {
			line += "  " + name
		}
		if vendor, err := conn.VendorID(ctx, addr); err == nil && vendor != cec.VendorUnknown {
			line += "  (" + vendor.String() + ")"
		}
		cancel()
		fmt.Println(line)
	}
	return nil
}

func parseTarget(args []string, i int) (cec.LogicalAddress, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing target address")
	}
	n, err := strconv.ParseInt(args[i], 10, 8)
	if err != nil || n < 0 || n > 15 {
		return 0, fmt.Errorf("target %q: want 0-15", args[i])
	}
	return cec.LogicalAddress(n), nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "cec-ctl: "+format+"\n", args...)
	os.Exit(1)
}
