// Package interactive provides the interactive command-line interface
// for mainsail-sync.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/Steam-Park/mainsail/pkg/inspect"
	"github.com/Steam-Park/mainsail/pkg/service"
	"github.com/Steam-Park/mainsail/pkg/state"
)

// DefaultLogLines is the number of gcode log lines shown by "log".
const DefaultLogLines = 20

// Console handles interactive mode for mainsail-sync.
type Console struct {
	engine    *service.Engine
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	rl        *readline.Instance
	out       io.Writer

	// echo prints gcode responses as they arrive.
	echo atomic.Bool
}

// New creates a new interactive console.
func New(engine *service.Engine) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mainsail> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newConsole(engine, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(engine *service.Engine, out io.Writer) *Console {
	c := &Console{
		engine:    engine,
		inspector: inspect.NewInspector(engine.Store()),
		formatter: inspect.NewFormatter(),
		out:       out,
	}
	c.echo.Store(true)
	engine.Store().OnChange(c.handleChange)
	return c
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.execute(ctx, line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// execute runs one command line. It returns false when the console should
// exit.
func (c *Console) execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	cmd, rest, _ := strings.Cut(input, " ")
	cmd = strings.ToLower(cmd)
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "status", "s":
		c.cmdStatus()

	case "objects", "o":
		c.cmdObjects()

	case "get", "g":
		c.cmdGet(rest)

	case "heaters", "temps":
		fmt.Fprint(c.out, c.inspector.FormatHeaters(c.formatter))

	case "gcode", "send":
		c.cmdGcode(ctx, rest)

	case "log":
		c.cmdLog(rest)

	case "commands":
		c.cmdCommands(ctx, rest)

	case "files", "ls":
		c.cmdFiles(rest)

	case "settings":
		c.cmdSettings()

	case "subs":
		c.cmdSubs()

	case "echo":
		c.cmdEcho(rest)

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Mainsail Sync Commands:
  Inspection:
    status             - Show connection status
    objects            - List mirrored objects
    get <path>         - Show an object or attribute (e.g. extruder/temperature)
    heaters            - Show heater and sensor temperatures
    subs               - List subscribed objects
    files [dir]        - List mirrored files (default: gcodes)
    settings           - Show the UI settings blob

  Console:
    gcode <script>     - Send a gcode script
    log [n]            - Show the last n gcode responses
    commands [filter]  - List gcode commands (fetched on first use)
    echo on|off        - Print gcode responses as they arrive

  General:
    help               - Show this help
    quit               - Exit`)
}

func (c *Console) cmdStatus() {
	st := c.engine.Status()

	fmt.Fprintf(c.out, "Connection:   %s\n", st.State)
	if st.Session != "" {
		fmt.Fprintf(c.out, "Session:      %s\n", st.Session)
	}
	klippy := st.KlippyState
	if klippy == "" {
		klippy = "unknown"
	}
	fmt.Fprintf(c.out, "Firmware:     %s (ready: %t)\n", klippy, st.KlippyReady)
	if host, ok := c.engine.Store().Get(state.InfoObject, "hostname"); ok {
		fmt.Fprintf(c.out, "Hostname:     %v\n", host)
	}
	if v, ok := c.engine.Store().Get(state.InfoObject, "version"); ok {
		fmt.Fprintf(c.out, "Version:      %v\n", v)
	}
	fmt.Fprintf(c.out, "Objects:      %d mirrored, %d subscribed\n", st.Objects, st.Subscribed)
	fmt.Fprintf(c.out, "Requests:     %d sent, %d pending, %d failed, %d orphaned\n",
		st.Requests.Sent, st.Pending, st.Requests.Failed, st.Requests.Orphaned)
	if st.LastClose != nil {
		fmt.Fprintf(c.out, "Last close:   %s\n", st.LastClose)
	}
}

func (c *Console) cmdObjects() {
	fmt.Fprint(c.out, c.inspector.FormatObjectList(c.inspector.ListObjects()))
}

func (c *Console) cmdGet(arg string) {
	if arg == "" {
		fmt.Fprintln(c.out, "Usage: get <object>[/attribute]")
		return
	}
	path, err := inspect.ParsePath(arg)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid path: %v\n", err)
		return
	}
	out, err := c.inspector.Inspect(path, c.formatter)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(c.out, out)
}

func (c *Console) cmdGcode(ctx context.Context, script string) {
	if script == "" {
		fmt.Fprintln(c.out, "Usage: gcode <script>")
		return
	}
	if err := c.engine.SendGcode(ctx, script); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

func (c *Console) cmdLog(arg string) {
	n := DefaultLogLines
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v <= 0 {
			fmt.Fprintln(c.out, "Usage: log [n]")
			return
		}
		n = v
	}

	lines := c.engine.Store().GcodeLog()
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "(no gcode responses)")
		return
	}
	for _, line := range lines {
		c.printLine(line)
	}
}

func (c *Console) cmdCommands(ctx context.Context, filter string) {
	help := c.engine.Store().Help()
	if len(help) == 0 {
		if err := c.engine.RequestHelp(ctx); err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(c.out, "Fetching command help, run 'commands' again shortly.")
		return
	}

	names := make([]string, 0, len(help))
	filter = strings.ToUpper(filter)
	for name := range help {
		if filter == "" || strings.Contains(strings.ToUpper(name), filter) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-24s %s\n", name, help[name])
	}
	fmt.Fprintf(c.out, "%d commands\n", len(names))
}

func (c *Console) cmdFiles(dir string) {
	if dir == "" {
		dir = "gcodes"
	}
	entries := c.engine.Store().ListFiles(state.CleanPath(dir))
	if len(entries) == 0 {
		fmt.Fprintf(c.out, "(no files in %s)\n", dir)
		return
	}
	for _, e := range entries {
		if e.Dir {
			fmt.Fprintf(c.out, "  %s/\n", e.Name())
			continue
		}
		modified := ""
		if e.Modified > 0 {
			modified = time.Unix(int64(e.Modified), 0).Format(time.DateTime)
		}
		fmt.Fprintf(c.out, "  %-40s %10d  %s\n", e.Name(), e.Size, modified)
	}
}

func (c *Console) cmdSettings() {
	blob := c.engine.Store().Settings()
	if blob == nil {
		fmt.Fprintln(c.out, "(no settings loaded)")
		return
	}
	fmt.Fprintln(c.out, string(blob))
}

func (c *Console) cmdSubs() {
	subs := c.engine.Subscriptions()
	names := subs.Names()
	if len(names) == 0 {
		fmt.Fprintln(c.out, "(no subscriptions)")
		return
	}
	for _, name := range names {
		fields, _ := subs.Fields(name)
		if len(fields) == 0 {
			fmt.Fprintf(c.out, "  %s\n", name)
			continue
		}
		fmt.Fprintf(c.out, "  %s [%s]\n", name, strings.Join(fields, ", "))
	}
}

func (c *Console) cmdEcho(arg string) {
	switch strings.ToLower(arg) {
	case "on":
		c.echo.Store(true)
	case "off":
		c.echo.Store(false)
	case "":
	default:
		fmt.Fprintln(c.out, "Usage: echo on|off")
		return
	}
	fmt.Fprintf(c.out, "Echo: %t\n", c.echo.Load())
}

// handleChange runs on the engine loop.
func (c *Console) handleChange(change state.Change) {
	if change.Kind != state.ChangeGcodeResponse || !c.echo.Load() {
		return
	}
	lines := c.engine.Store().GcodeLog()
	if len(lines) > 0 {
		c.printLine(lines[len(lines)-1])
	}
}

func (c *Console) printLine(line state.GcodeLine) {
	fmt.Fprintf(c.out, "[%s] %s\n", line.Time.Format("15:04:05"), line.Message)
}
