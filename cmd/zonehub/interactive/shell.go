// Package interactive provides the interactive command-line interface
// for the zonehub controller.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/zonehub/zonehub-go/pkg/connection"
	"github.com/zonehub/zonehub-go/pkg/future"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

// QueryTimeout bounds how long a shell command waits for the hub.
const QueryTimeout = 5 * time.Second

// Hub is the subset of the controller the shell drives.
type Hub interface {
	SetOnOff(zoneID int, on bool) error
	SetBrightness(zoneID int, level int) error
	GetState(zoneID int) *future.Future[wire.DeviceState]
	GetZones() *future.Future[[]int]
	GetMACAddress() *future.Future[string]
	State() connection.State
	PendingCount() int
}

// Shell handles interactive mode for zonehub.
type Shell struct {
	hub  Hub
	host string
	rl   *readline.Instance
	out  io.Writer
}

// New creates a readline-backed shell. The terminal is set up first so
// log output can be routed through Stdout before the controller exists;
// Attach the controller before Run.
func New(host string) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "zonehub> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{host: host, rl: rl, out: rl.Stdout()}, nil
}

// Attach sets the controller the shell drives.
func (s *Shell) Attach(h Hub) {
	s.hub = h
}

// NewWithWriter creates a shell without a terminal. Commands are fed
// through Execute.
func NewWithWriter(h Hub, host string, out io.Writer) *Shell {
	return &Shell{hub: h, host: host, out: out}
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Close releases the terminal.
func (s *Shell) Close() error {
	if s.rl == nil {
		return nil
	}
	return s.rl.Close()
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	if s.rl == nil {
		return errors.New("shell has no terminal")
	}
	if s.hub == nil {
		return errors.New("shell has no controller attached")
	}
	defer s.rl.Close()

	// Closing readline unblocks Readline when the controller shuts down.
	stop := context.AfterFunc(ctx, func() { s.rl.Close() })
	defer stop()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}
		if !s.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs one command line. It returns false when the shell should
// exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "on":
		s.cmdPower(args, true)
	case "off":
		s.cmdPower(args, false)
	case "dim", "level":
		s.cmdDim(args)
	case "state", "get":
		s.cmdState(ctx, args)
	case "zones", "ls":
		s.cmdZones(ctx)
	case "mac":
		s.cmdMAC(ctx)
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

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Zonehub Commands:
  Control:
    on <zone>            - Switch a zone on
    off <zone>           - Switch a zone off
    dim <zone> <level>   - Set a dimmer level (1-100)

  Queries:
    state <zone>...      - Show zone state
    zones                - List zone IDs
    mac                  - Show the hub MAC address

  General:
    status               - Show controller status
    help                 - Show this help
    quit                 - Exit`)
}

func (s *Shell) cmdPower(args []string, on bool) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: on|off <zone>")
		return
	}
	zoneID, err := parseZone(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	if err := s.hub.SetOnOff(zoneID, on); err != nil {
		fmt.Fprintf(s.out, "Command failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Sent %s to zone %d\n", onOff(on), zoneID)
}

func (s *Shell) cmdDim(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: dim <zone> <level>")
		return
	}
	zoneID, err := parseZone(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid level: %s\n", args[1])
		return
	}
	if err := s.hub.SetBrightness(zoneID, level); err != nil {
		fmt.Fprintf(s.out, "Command failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Sent level %d to zone %d\n", level, zoneID)
}

func (s *Shell) cmdState(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: state <zone>...")
		return
	}

	// Issue every query before waiting so they travel together.
	type query struct {
		zoneID int
		f      *future.Future[wire.DeviceState]
	}
	queries := make([]query, 0, len(args))
	for _, a := range args {
		zoneID, err := parseZone(a)
		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
		queries = append(queries, query{zoneID, s.hub.GetState(zoneID)})
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	for _, q := range queries {
		state, err := q.f.Wait(ctx)
		if err != nil {
			fmt.Fprintf(s.out, "  zone %d: %v\n", q.zoneID, err)
			continue
		}
		fmt.Fprintf(s.out, "  %s\n", state)
	}
}

func (s *Shell) cmdZones(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	zones, err := s.hub.GetZones().Wait(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Query failed: %v\n", err)
		return
	}
	if len(zones) == 0 {
		fmt.Fprintln(s.out, "No zones configured")
		return
	}
	sorted := append([]int(nil), zones...)
	sort.Ints(sorted)

	ids := make([]string, len(sorted))
	for i, z := range sorted {
		ids[i] = strconv.Itoa(z)
	}
	fmt.Fprintf(s.out, "Zones (%d): %s\n", len(sorted), strings.Join(ids, ", "))
}

func (s *Shell) cmdMAC(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	mac, err := s.hub.GetMACAddress().Wait(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Query failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "MAC address: %s\n", mac)
}

func (s *Shell) cmdStatus() {
	fmt.Fprintln(s.out, "\nController Status")
	fmt.Fprintln(s.out, "-------------------------------------------")
	fmt.Fprintf(s.out, "  Hub:              %s\n", s.host)
	fmt.Fprintf(s.out, "  Connection:       %s\n", s.hub.State())
	fmt.Fprintf(s.out, "  Pending queries:  %d\n", s.hub.PendingCount())
	fmt.Fprintln(s.out)
}

func parseZone(s string) (int, error) {
	zoneID, err := strconv.Atoi(s)
	if err != nil || zoneID < 0 {
		return 0, fmt.Errorf("invalid zone: %s", s)
	}
	return zoneID, nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
