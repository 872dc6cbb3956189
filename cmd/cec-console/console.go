package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/cec-project/cec-go/internal/cliconfig"
	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/connection"
)

// console wraps a connection and a readline loop.
type console struct {
	conn    *connection.Connection
	rl      *readline.Instance
	cleanup func()

	// traffic controls whether incoming frames are echoed.
	traffic atomic.Bool
}

func newConsole(cfg cliconfig.Config) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cec> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &console{rl: rl}

	b, cleanup, err := cfg.Builder()
	if err != nil {
		rl.Close()
		return nil, err
	}
	c.cleanup = cleanup

	b.Handlers(connection.Handlers{
		Command: func(f cec.Frame) {
			if c.traffic.Load() {
				fmt.Fprintf(rl.Stdout(), "<< %s  %s -> %s", f, f.Initiator, f.Destination)
				if f.OpcodeSet {
					fmt.Fprintf(rl.Stdout(), "  %s", f.Opcode)
				}
				fmt.Fprintln(rl.Stdout())
			}
		},
		KeyPress: func(code cec.UserControlCode, duration time.Duration) {
			if c.traffic.Load() {
				fmt.Fprintf(rl.Stdout(), "<< key %s (held %v)\n", code, duration)
			}
		},
		Disconnected: func(reason string) {
			fmt.Fprintf(rl.Stdout(), "adapter lost: %s\n", reason)
		},
	})

	built, err := b.Build()
	if err != nil {
		cleanup()
		rl.Close()
		return nil, err
	}

	conn, err := connection.Open(built)
	if err != nil {
		cleanup()
		rl.Close()
		return nil, err
	}
	c.conn = conn

	return c, nil
}

func (c *console) close() {
	c.conn.Close()
	c.cleanup()
	c.rl.Close()
}

// run is the interactive command loop. It returns on quit or EOF.
func (c *console) run() {
	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "scan", "s":
			c.cmdScan()

		case "devices", "d":
			c.cmdDevices()

		case "on":
			c.cmdSimple(args, c.conn.PowerOn)

		case "standby", "off":
			c.cmdSimple(args, c.conn.Standby)

		case "source", "as":
			c.report(c.conn.SetActiveSource())

		case "inactive", "is":
			c.report(c.conn.SetInactiveSource())

		case "volup", "+":
			c.report(c.conn.VolumeUp())

		case "voldown", "-":
			c.report(c.conn.VolumeDown())

		case "mute", "m":
			c.report(c.conn.ToggleMute())

		case "audio":
			c.cmdAudio(args)

		case "key", "k":
			c.cmdKey(args)

		case "power", "pow":
			c.cmdQuery(args, func(ctx context.Context, target cec.LogicalAddress) (string, error) {
				s, err := c.conn.PowerStatus(ctx, target)
				return s.String(), err
			})

		case "vendor", "ven":
			c.cmdQuery(args, func(ctx context.Context, target cec.LogicalAddress) (string, error) {
				v, err := c.conn.VendorID(ctx, target)
				return v.String(), err
			})

		case "name", "osd":
			c.cmdQuery(args, c.conn.OSDName)

		case "version", "ver":
			c.cmdQuery(args, func(ctx context.Context, target cec.LogicalAddress) (string, error) {
				v, err := c.conn.Version(ctx, target)
				return v.String(), err
			})

		case "poll", "p":
			c.cmdPoll(args)

		case "tx":
			c.cmdTx(args)

		case "traffic", "t":
			on := !c.traffic.Load()
			c.traffic.Store(on)
			fmt.Fprintf(c.rl.Stdout(), "traffic echo %v\n", on)

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
CEC Console Commands:
  Bus:
    scan               - Poll all addresses, query what answers
    devices            - Show the devices observed so far
    traffic            - Toggle echoing of incoming frames
    tx <hex:..>        - Transmit raw blocks, e.g. tx 40:36

  Control:
    on <addr>          - Power on a device (15 = everything)
    standby <addr>     - Put a device in standby (15 = everything)
    source             - Claim active source
    inactive           - Cede active source back to the TV
    volup / voldown    - Audio system volume
    mute               - Toggle audio system mute
    audio on|off       - System audio mode (amp takes over output)
    key <addr> <hex>   - Send a key press/release pair

  Queries:
    power <addr>       - Power status
    vendor <addr>      - Vendor ID
    name <addr>        - OSD name
    version <addr>     - CEC version
    poll <addr>        - Is anything at this address?

  General:
    status             - Connection state and own addresses
    help               - Show this help
    quit               - Exit`)
}

func (c *console) report(err error) {
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "ok")
}

func (c *console) parseTarget(args []string) (cec.LogicalAddress, bool) {
	if len(args) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "missing target address (0-15)")
		return 0, false
	}
	n, err := strconv.ParseInt(args[0], 10, 8)
	if err != nil || n < 0 || n > 15 {
		fmt.Fprintf(c.rl.Stdout(), "bad target %q: want 0-15\n", args[0])
		return 0, false
	}
	return cec.LogicalAddress(n), true
}

func (c *console) cmdSimple(args []string, fn func(cec.LogicalAddress) error) {
	target, ok := c.parseTarget(args)
	if !ok {
		return
	}
	c.report(fn(target))
}

func (c *console) cmdAudio(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(c.rl.Stdout(), "usage: audio on|off")
		return
	}
	c.report(c.conn.SetSystemAudioMode(args[0] == "on"))
}

func (c *console) cmdKey(args []string) {
	target, ok := c.parseTarget(args)
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "usage: key <addr> <hex code>")
		return
	}
	code, err := strconv.ParseUint(args[1], 16, 8)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "bad key code %q\n", args[1])
		return
	}
	if err := c.conn.SendKeypress(target, cec.UserControlCode(code)); err != nil {
		c.report(err)
		return
	}
	c.report(c.conn.SendKeyRelease(target))
}

func (c *console) cmdQuery(args []string, fn func(context.Context, cec.LogicalAddress) (string, error)) {
	target, ok := c.parseTarget(args)
	if !ok {
		return
	}
	// Queries require an observed target; poll on their behalf.
	if _, known := c.conn.Device(target); !known {
		present, err := c.conn.Poll(target)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "error: %v\n", err)
			return
		}
		if !present {
			fmt.Fprintf(c.rl.Stdout(), "nothing at %s\n", target)
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := fn(ctx, target)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), result)
}

func (c *console) cmdPoll(args []string) {
	target, ok := c.parseTarget(args)
	if !ok {
		return
	}
	present, err := c.conn.Poll(target)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "error: %v\n", err)
		return
	}
	if present {
		fmt.Fprintf(c.rl.Stdout(), "%s answered\n", target)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "nothing at %s\n", target)
	}
}

func (c *console) cmdTx(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: tx <hex:hex:...>")
		return
	}
	blocks := strings.Split(args[0], ":")
	data := make([]byte, 0, len(blocks))
	for _, b := range blocks {
		n, err := strconv.ParseUint(b, 16, 8)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "bad block %q\n", b)
			return
		}
		data = append(data, byte(n))
	}
	f, err := cec.UnmarshalFrame(data)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "error: %v\n", err)
		return
	}
	c.report(c.conn.Transmit(f))
}

func (c *console) cmdScan() {
	fmt.Fprintln(c.rl.Stdout(), "scanning bus...")
	for addr := cec.AddressTV; addr < cec.AddressBroadcast; addr++ {
		present, err := c.conn.Poll(addr)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "error: %v\n", err)
			return
		}
		if !present {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		line := fmt.Sprintf("%2d  %-20s", int8(addr), addr)
		if name, err := c.conn.OSDName(ctx, addr); err == nil && name != "" {
			line += "  " + name
		}
		if vendor, err := c.conn.VendorID(ctx, addr); err == nil && vendor != cec.VendorUnknown {
			line += "  (" + vendor.String() + ")"
		}
		cancel()
		fmt.Fprintln(c.rl.Stdout(), line)
	}
}

func (c *console) cmdDevices() {
	devices := c.conn.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "no devices observed yet (try scan or traffic)")
		return
	}
	for _, d := range devices {
		line := fmt.Sprintf("%2d  %-20s  power=%s", int8(d.Address), d.Address, d.PowerStatus)
		if d.OSDName != "" {
			line += "  name=" + d.OSDName
		}
		if d.Vendor != cec.VendorUnknown {
			line += "  vendor=" + d.Vendor.String()
		}
		if d.PhysicalAddress != cec.PhysicalAddressUnknown {
			line += "  at=" + d.PhysicalAddress.String()
		}
		if d.ActiveSource {
			line += "  [active source]"
		}
		fmt.Fprintln(c.rl.Stdout(), line)
	}
}

func (c *console) cmdStatus() {
	fmt.Fprintf(c.rl.Stdout(), "state: %s\n", c.conn.State())
	fmt.Fprintf(c.rl.Stdout(), "own addresses: %v\n", c.conn.Addresses())
	fmt.Fprintf(c.rl.Stdout(), "physical address: %s\n", c.conn.PhysicalAddress())
	if n := c.conn.DroppedEvents(); n > 0 {
		fmt.Fprintf(c.rl.Stdout(), "dropped events: %d\n", n)
	}
}
