package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/zonehub/zonehub-go/internal/hubsim"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

// services lists the services the simulator answers, for mute and status.
var services = []wire.Service{
	wire.ServiceSetZoneProperties,
	wire.ServiceReportZoneProperties,
	wire.ServiceListZones,
	wire.ServiceSystemInfo,
}

// shell drives a simulator from the terminal.
type shell struct {
	hub *hubsim.Hub
	rl  *readline.Instance
	out io.Writer
}

func newShell(h *hubsim.Hub) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hubsim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{hub: h, rl: rl, out: rl.Stdout()}, nil
}

// run reads commands until quit, EOF or ctx is done.
func (s *shell) run(ctx context.Context) {
	defer s.rl.Close()
	stop := context.AfterFunc(ctx, func() { s.rl.Close() })
	defer stop()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return
		}
		if !s.execute(line) {
			return
		}
	}
}

// execute runs one command line and reports whether to keep going.
func (s *shell) execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "zones", "ls":
		s.cmdZones()
	case "on", "off":
		s.cmdSet(args, cmd == "on", -1)
	case "dim":
		s.cmdDim(args)
	case "push":
		s.cmdPush(args)
	case "mute", "unmute":
		s.cmdMute(args, cmd == "mute")
	case "heartbeat", "hb":
		s.report(s.hub.Heartbeat(), "Heartbeat sent")
	case "raw":
		s.report(s.hub.SendRaw([]byte(strings.Join(args, " "))), "Raw bytes sent")
	case "drop":
		s.hub.DropConnections()
		fmt.Fprintln(s.out, "Connections dropped")
	case "refuse":
		s.cmdRefuse(args)
	case "status":
		s.cmdStatus()
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
Hub Simulator Commands:
  Zones:
    zones                 - List zones
    on|off <zone>         - Change a zone locally and push the change
    dim <zone> <level>    - Change a dimmer level and push the change
    push <zone>           - Push the current zone state

  Faults:
    mute <service>        - Stop answering a service
    unmute <service>      - Answer a service again
    heartbeat             - Send a heartbeat byte
    raw <text>            - Send raw bytes to every client
    drop                  - Close every client connection
    refuse on|off         - Refuse new connections

  General:
    status                - Show simulator status
    help                  - Show this help
    quit                  - Exit`)
}

func (s *shell) report(err error, ok string) {
	if err != nil {
		fmt.Fprintf(s.out, "Failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, ok)
}

func (s *shell) cmdZones() {
	zones := s.hub.Zones()
	if len(zones) == 0 {
		fmt.Fprintln(s.out, "No zones")
		return
	}
	for _, z := range zones {
		power := "off"
		if z.Power {
			power = "on"
		}
		if z.Kind == wire.DeviceKindDimmer {
			fmt.Fprintf(s.out, "  %3d  %-16s %-7s %-3s %d%%\n", z.ID, z.Name, z.Kind, power, z.PowerLevel)
		} else {
			fmt.Fprintf(s.out, "  %3d  %-16s %-7s %s\n", z.ID, z.Name, z.Kind, power)
		}
	}
}

// cmdSet changes a zone. A negative level leaves the level alone.
func (s *shell) cmdSet(args []string, on bool, level int) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: on|off <zone>")
		return
	}
	z, ok := s.lookup(args[0])
	if !ok {
		return
	}
	z.Power = on
	if level >= 0 {
		z.PowerLevel = level
	}
	s.hub.AddZone(z)
	s.report(s.hub.Push(z.ID), fmt.Sprintf("Zone %d updated", z.ID))
}

func (s *shell) cmdDim(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: dim <zone> <level>")
		return
	}
	level, err := strconv.Atoi(args[1])
	if err != nil || level < wire.MinPowerLevel || level > wire.MaxPowerLevel {
		fmt.Fprintf(s.out, "Invalid level: %s\n", args[1])
		return
	}
	z, ok := s.lookup(args[0])
	if !ok {
		return
	}
	if z.Kind != wire.DeviceKindDimmer {
		fmt.Fprintf(s.out, "Zone %d is not a dimmer\n", z.ID)
		return
	}
	s.cmdSet(args[:1], level > 0, level)
}

func (s *shell) cmdPush(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: push <zone>")
		return
	}
	z, ok := s.lookup(args[0])
	if !ok {
		return
	}
	s.report(s.hub.Push(z.ID), fmt.Sprintf("Zone %d pushed", z.ID))
}

func (s *shell) cmdMute(args []string, mute bool) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: mute|unmute <service>")
		return
	}
	for _, svc := range services {
		if strings.EqualFold(string(svc), args[0]) {
			s.hub.Mute(svc, mute)
			fmt.Fprintf(s.out, "%s muted: %v\n", svc, mute)
			return
		}
	}
	fmt.Fprintf(s.out, "Unknown service: %s\n", args[0])
}

func (s *shell) cmdRefuse(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(s.out, "Usage: refuse on|off")
		return
	}
	s.hub.Refuse(args[0] == "on")
	fmt.Fprintf(s.out, "Refusing connections: %s\n", args[0])
}

func (s *shell) cmdStatus() {
	fmt.Fprintln(s.out, "\nSimulator Status")
	fmt.Fprintln(s.out, "-------------------------------------------")
	fmt.Fprintf(s.out, "  Address:      %s\n", s.hub.Addr())
	fmt.Fprintf(s.out, "  Connections:  %d open, %d accepted\n", s.hub.ConnectionCount(), s.hub.Accepted())
	fmt.Fprintln(s.out, "  Requests:")
	for _, svc := range services {
		fmt.Fprintf(s.out, "    %-22s %d\n", svc, len(s.hub.Requests(svc)))
	}
	fmt.Fprintln(s.out)
}

func (s *shell) lookup(arg string) (hubsim.Zone, bool) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid zone: %s\n", arg)
		return hubsim.Zone{}, false
	}
	z, ok := s.hub.Zone(id)
	if !ok {
		fmt.Fprintf(s.out, "Zone %d not found\n", id)
	}
	return z, ok
}
