package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// snapshotExt is appended to save and load names that lack it.
const snapshotExt = ".ane"

const shellHelp = `Commands:
  add_node <template>        create a node ("New number", "Repeat string", "New text")
  del_node <id>              remove a node and its connections
  pos <id> <x> <y>           move a node
  con <from> <to> <slot>     connect from's output to to's input slot (again to disconnect)
  disc <to> <slot>           disconnect an input slot
  set_val <id> <slot> [text] set an input literal (rest of the line, empty if omitted)
  calc_out <id>              evaluate a node and print its value
  ls                         list nodes
  templates                  list templates
  save <name>                save the graph (".ane" is appended if missing)
  load <name>                load a saved graph
  autosave on|off            save to the autosave file after every change
  help                       show this help
  q                          quit`

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit a graph interactively",
		Long: `Read editor commands from stdin, one per line, until "q" or end of
input. Errors are printed and the session continues.`,
		Example: `  # Start an empty session
  nodegraph shell

  # Save to ./auto_save.ane after every change, snapshots in SQLite
  nodegraph shell --autosave --store sqlite --store-path graphs.db

  # Script a session
  printf 'add_node New number\nset_val 1 0 7\ncalc_out 1\n' | nodegraph shell`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ed, err := a.newEditor()
			if err != nil {
				return err
			}
			defer ed.Close()

			sh := &shell{ed: ed, out: a.out, width: a.settings.ValueWidth}
			fmt.Fprintf(a.out, "nodegraph shell (session %s). Type \"help\" for commands.\n", ed.SessionID())
			return sh.loop(cmd.Context(), a.in)
		},
	}
}

// shell dispatches editor commands read line by line.
type shell struct {
	ed    *nodegraph.Editor
	out   io.Writer
	width int
}

// loop executes lines from in until "q" or EOF.
func (s *shell) loop(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := s.exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one command line and reports whether the session should end.
func (s *shell) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch name {
	case "q", "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "add_node":
		err = s.addNode(rest)
	case "del_node":
		err = s.delNode(rest)
	case "pos":
		err = s.pos(rest)
	case "con":
		err = s.con(rest)
	case "disc":
		err = s.disc(rest)
	case "set_val":
		err = s.setVal(rest)
	case "calc_out":
		err = s.calcOut(ctx, rest)
	case "ls":
		s.ls()
	case "templates":
		for _, t := range s.ed.Templates() {
			fmt.Fprintln(s.out, t)
		}
	case "save":
		err = s.save(ctx, rest)
	case "load":
		err = s.load(ctx, rest)
	case "autosave":
		err = s.autosave(rest)
	default:
		fmt.Fprintln(s.out, "Unknown command, please try again.")
	}

	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

func (s *shell) addNode(title string) error {
	if title == "" {
		return errors.New("usage: add_node <template>")
	}
	id, err := s.ed.Create(title)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "created node %d (%s)\n", id, title)
	return nil
}

func (s *shell) delNode(args string) error {
	ids, err := parseInts(args, 1, "del_node <id>")
	if err != nil {
		return err
	}
	id := nodegraph.NodeID(ids[0])
	if err := s.ed.Remove(id); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "removed node %d\n", id)
	return nil
}

func (s *shell) pos(args string) error {
	v, err := parseInts(args, 3, "pos <id> <x> <y>")
	if err != nil {
		return err
	}
	return s.ed.SetPosition(nodegraph.NodeID(v[0]), int(v[1]), int(v[2]))
}

func (s *shell) con(args string) error {
	v, err := parseInts(args, 3, "con <from> <to> <slot>")
	if err != nil {
		return err
	}
	from, to, slot := nodegraph.NodeID(v[0]), nodegraph.NodeID(v[1]), int(v[2])
	action, err := s.ed.Connect(from, to, slot)
	if err != nil {
		return err
	}
	switch action {
	case nodegraph.Disconnected:
		fmt.Fprintf(s.out, "disconnected %d -> %d[%d]\n", from, to, slot)
	default:
		fmt.Fprintf(s.out, "%s %d -> %d[%d]\n", action, from, to, slot)
	}
	return nil
}

func (s *shell) disc(args string) error {
	v, err := parseInts(args, 2, "disc <to> <slot>")
	if err != nil {
		return err
	}
	return s.ed.Disconnect(nodegraph.NodeID(v[0]), int(v[1]))
}

func (s *shell) setVal(args string) error {
	const usage = "usage: set_val <id> <slot> [text]"
	idText, rest, ok := strings.Cut(args, " ")
	if !ok {
		return errors.New(usage)
	}
	// A missing literal sets the empty string.
	slotText, text, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	v, err := parseInts(idText+" "+slotText, 2, "set_val <id> <slot> [text]")
	if err != nil {
		return err
	}
	return s.ed.SetInputValue(nodegraph.NodeID(v[0]), int(v[1]), text)
}

func (s *shell) calcOut(ctx context.Context, args string) error {
	v, err := parseInts(args, 1, "calc_out <id>")
	if err != nil {
		return err
	}
	out, err := s.ed.Evaluate(ctx, nodegraph.NodeID(v[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, out)
	return nil
}

// ls prints every node with its slots. Unconnected slots show their literal
// cut to the configured width.
func (s *shell) ls() {
	nodes := s.ed.Nodes()
	if len(nodes) == 0 {
		fmt.Fprintln(s.out, "(no nodes)")
		return
	}
	for _, n := range nodes {
		fmt.Fprintf(s.out, "[%d] %s at (%d,%d) -> %s", n.ID, n.Title, n.Position.X, n.Position.Y, n.Output.Kind)
		if consumers := n.Output.Consumers(); len(consumers) > 0 {
			fmt.Fprintf(s.out, " feeds %v", consumers)
		}
		fmt.Fprintln(s.out)
		for i, in := range n.Inputs {
			if in.Connected() {
				fmt.Fprintf(s.out, "    %d %s (%s) <- %d\n", i, in.Label, in.Kind, in.Producer)
				continue
			}
			fmt.Fprintf(s.out, "    %d %s (%s) = %s\n", i, in.Label, in.Kind, s.literal(in.Value))
		}
	}
}

// literal renders v for ls, quoting text and cutting it to s.width runes.
func (s *shell) literal(v value.Value) string {
	text := v.String()
	if r := []rune(text); s.width > 0 && len(r) > s.width {
		text = string(r[:s.width]) + "..."
	}
	if v.Kind() == value.Text {
		return strconv.Quote(text)
	}
	return text
}

func (s *shell) save(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("usage: save <name>")
	}
	name = withExt(name)
	if err := s.ed.Persist(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s\n", name)
	return nil
}

func (s *shell) load(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("usage: load <name>")
	}
	name = withExt(name)
	if err := s.ed.Restore(ctx, name); err != nil {
		fmt.Fprintf(s.out, "warning: %v; starting with an empty graph\n", err)
		return nil
	}
	fmt.Fprintf(s.out, "loaded %s (%d nodes)\n", name, len(s.ed.Nodes()))
	return nil
}

func (s *shell) autosave(arg string) error {
	switch arg {
	case "on":
		s.ed.SetAutoPersist(true)
		fmt.Fprintf(s.out, "autosave on (%s)\n", s.ed.AutoPersistName())
	case "off":
		s.ed.SetAutoPersist(false)
		fmt.Fprintln(s.out, "autosave off")
	default:
		return errors.New("usage: autosave on|off")
	}
	return nil
}

func withExt(name string) string {
	if strings.HasSuffix(name, snapshotExt) {
		return name
	}
	return name + snapshotExt
}

// parseInts splits args into exactly n base-10 integers.
func parseInts(args string, n int, usage string) ([]int64, error) {
	fields := strings.Fields(args)
	if len(fields) != n {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	out := make([]int64, n)
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number (usage: %s)", f, usage)
		}
		out[i] = v
	}
	return out, nil
}
