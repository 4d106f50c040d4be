// Package interactive provides the interactive command-line interface
// for the lanremote client.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/lanremote/lanremote-go/pkg/discovery"
	"github.com/lanremote/lanremote-go/pkg/motion"
	"github.com/lanremote/lanremote-go/pkg/pairing"
	"github.com/lanremote/lanremote-go/pkg/session"
	"github.com/lanremote/lanremote-go/pkg/transport"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// DefaultDragDuration is how long "drag" feeds velocity samples when no
// duration is given.
const DefaultDragDuration = 250 * time.Millisecond

// Shell handles interactive mode for lanremote.
type Shell struct {
	sess     *session.Session
	tracker  *motion.Tracker
	interval time.Duration
	out      io.Writer
	rl       *readline.Instance
}

// New creates a shell reading from the terminal.
func New(sess *session.Session, tracker *motion.Tracker, sampleInterval time.Duration) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "remote> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s := newShell(sess, tracker, sampleInterval, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(sess *session.Session, tracker *motion.Tracker, sampleInterval time.Duration, out io.Writer) *Shell {
	if sampleInterval <= 0 {
		sampleInterval = motion.DefaultMinInterval
	}
	s := &Shell{
		sess:     sess,
		tracker:  tracker,
		interval: sampleInterval,
		out:      out,
	}
	sess.OnStateChange(func(oldState, newState session.State) {
		fmt.Fprintf(s.out, "[state] %s -> %s\n", oldState, newState)
	})
	return s
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if s.Execute(ctx, line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns true when the user asked to
// quit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "discover", "d":
		s.cmdDiscover(ctx)

	case "endpoint", "ep":
		s.cmdEndpoint(args)

	case "pair", "code":
		s.cmdPair(args)

	case "connect", "c":
		s.cmdConnect(ctx)

	case "click":
		button := wire.ButtonLeft
		if len(args) > 0 {
			button = strings.ToLower(args[0])
		}
		s.send(ctx, wire.CommandClick, wire.Click{Button: button})

	case "move", "m":
		s.cmdMove(ctx, args)

	case "drag":
		s.cmdDrag(ctx, args)

	case "scroll":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: scroll up|down")
			return false
		}
		s.send(ctx, wire.CommandScroll, wire.Scroll{Direction: strings.ToLower(args[0])})

	case "type", "t":
		// Keep the user's spacing after the command word.
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), parts[0]))
		if text == "" {
			fmt.Fprintln(s.out, "Usage: type <text>")
			return false
		}
		s.send(ctx, wire.CommandTypeText, wire.TypeText{Text: text})

	case "key", "k":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: key <name>")
			return false
		}
		s.send(ctx, wire.CommandKeyPress, wire.KeyPress{Key: args[0]})

	case "media":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: media play_pause|next|previous")
			return false
		}
		s.send(ctx, wire.CommandMedia, wire.Media{Action: strings.ToLower(args[0])})

	case "volume", "vol":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: volume up|down|mute")
			return false
		}
		s.send(ctx, wire.CommandVolume, wire.Volume{Action: strings.ToLower(args[0])})

	case "status", "s":
		s.cmdStatus()

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
lanremote Commands:
  Connection:
    discover             - Find a host on the local network
    endpoint <ip> [port] - Use a host address directly (default port 5000)
    pair <code>          - Enter the pairing code shown by the host
    connect              - Verify the host accepts the pairing code
    status               - Show session status

  Pointer:
    move <dx> <dy>       - Move the pointer by a relative amount
    drag <vx> <vy> [dur] - Feed velocity samples (px/s) for a duration
    click [left|right]   - Click a mouse button
    scroll up|down       - Scroll one step

  Keyboard & Media:
    type <text>          - Type text
    key <name>           - Press a key (enter, esc, tab, backspace, ...)
    media <action>       - play_pause, next, previous
    volume <action>      - up, down, mute

  General:
    help                 - Show this help
    quit                 - Exit`)
}

func (s *Shell) cmdDiscover(ctx context.Context) {
	fmt.Fprintln(s.out, "Searching for hosts...")
	ep, err := s.sess.StartDiscovery(ctx)
	switch {
	case errors.Is(err, discovery.ErrTimeout):
		fmt.Fprintln(s.out, "No host answered. Check that the host is running on this network.")
	case err != nil:
		fmt.Fprintf(s.out, "Discovery failed: %v\n", err)
	default:
		fmt.Fprintf(s.out, "Found %s\n", ep)
	}
}

func (s *Shell) cmdEndpoint(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.out, "Usage: endpoint <ip> [port]")
		return
	}
	port := discovery.DefaultCommandPort
	if len(args) == 2 {
		p, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil || p == 0 {
			fmt.Fprintf(s.out, "Invalid port: %s\n", args[1])
			return
		}
		port = int(p)
	}
	if net.ParseIP(args[0]) == nil {
		fmt.Fprintf(s.out, "Invalid IP address: %s\n", args[0])
		return
	}
	ep := wire.PeerEndpoint{Address: args[0], Port: uint16(port)}
	if err := s.sess.SetEndpoint(ep); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Endpoint set to %s\n", ep.Addr())
}

func (s *Shell) cmdPair(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: pair <code>")
		return
	}
	code, err := pairing.ParseCode(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid code: %v\n", err)
		return
	}
	s.sess.SetPairingCode(code)
	fmt.Fprintf(s.out, "Pairing key %s\n", s.sess.KeyFingerprint())
}

func (s *Shell) cmdConnect(ctx context.Context) {
	err := s.sess.Connect(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Connected")
	case errors.Is(err, transport.ErrAuthRejected):
		fmt.Fprintln(s.out, "Host rejected the pairing code")
	case errors.Is(err, session.ErrNoEndpoint):
		fmt.Fprintln(s.out, "No host yet: run 'discover' or 'endpoint <ip>'")
	default:
		fmt.Fprintf(s.out, "Connect failed: %v\n", err)
	}
}

func (s *Shell) cmdMove(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: move <dx> <dy>")
		return
	}
	dx, errX := strconv.Atoi(args[0])
	dy, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		fmt.Fprintln(s.out, "Offsets must be integers")
		return
	}
	s.send(ctx, wire.CommandMoveRelative, wire.MoveRelative{X: dx, Y: dy})
}

func (s *Shell) cmdDrag(ctx context.Context, args []string) {
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(s.out, "Usage: drag <vx> <vy> [duration]")
		return
	}
	vx, errX := strconv.ParseFloat(args[0], 64)
	vy, errY := strconv.ParseFloat(args[1], 64)
	if errX != nil || errY != nil {
		fmt.Fprintln(s.out, "Velocities must be numbers")
		return
	}
	dur := DefaultDragDuration
	if len(args) == 3 {
		d, err := time.ParseDuration(args[2])
		if err != nil || d <= 0 {
			fmt.Fprintf(s.out, "Invalid duration: %s\n", args[2])
			return
		}
		dur = d
	}
	if s.sess.State() != session.StateConnected {
		fmt.Fprintln(s.out, "Not connected")
		return
	}

	s.tracker.Reset()
	defer s.tracker.Reset()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(dur)
	defer deadline.Stop()

	sent, total := 0, wire.MoveRelative{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			fmt.Fprintf(s.out, "Sent %d moves (%d, %d)\n", sent, total.X, total.Y)
			return
		case <-ticker.C:
			mv, ok := s.tracker.Sample(vx, vy)
			if !ok {
				continue
			}
			if _, err := s.sess.Send(ctx, session.NewIntent(wire.CommandMoveRelative, mv)); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				return
			}
			sent++
			total.X += mv.X
			total.Y += mv.Y
		}
	}
}

// send delivers one command and reports reliable outcomes.
func (s *Shell) send(ctx context.Context, command string, data any) {
	intent := session.NewIntent(command, data)
	resp, err := s.sess.Send(ctx, intent)
	switch {
	case errors.Is(err, session.ErrNotConnected):
		fmt.Fprintln(s.out, "Not connected")
	case errors.Is(err, transport.ErrAuthRejected):
		fmt.Fprintln(s.out, "Host rejected the pairing code; enter it again with 'pair'")
	case err != nil:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	case resp != nil:
		fmt.Fprintf(s.out, "OK (%s)\n", resp.Status)
	}
}

func (s *Shell) cmdStatus() {
	fmt.Fprintf(s.out, "State:    %s\n", s.sess.State())
	if ep, ok := s.sess.Endpoint(); ok {
		fmt.Fprintf(s.out, "Host:     %s\n", ep)
	} else {
		fmt.Fprintln(s.out, "Host:     (none)")
	}
	if fp := s.sess.KeyFingerprint(); fp != "" {
		fmt.Fprintf(s.out, "Key:      %s\n", fp)
	} else {
		fmt.Fprintln(s.out, "Key:      (no pairing code)")
	}
}
