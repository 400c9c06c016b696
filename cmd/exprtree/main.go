// cmd/exprtree/main.go: interactive editor and tool endpoint for exprtree
//
// Usage:
//
//	exprtree                       interactive editor
//	exprtree -e "3*x - 2*y + 5"    print expression and LaTeX, then exit
//	exprtree -tool                 JSON tool calls, one per line on stdin
//	exprtree -spec                 print the tool schema
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/njchilds90/exprtree"
)

const (
	historyFile  = ".exprtree_history"
	prompt       = "expr> "
	maxLineBytes = 1 << 20 // 1 MiB
	banner       = "exprtree editor. Enter an expression to load it, :help for commands, Ctrl+D to exit."
	helpText     = `
Commands:
  <expression>       Load a new expression (clears undo history)
  :tree              Show the tree with node ids, weights and colors
  :del <id>          Delete the subtree with the given id
  :simplify          Apply identity rules
  :optimize          Normalize, then simplify
  :undo              Revert the last edit
  :latex             Print the LaTeX equation
  :json              Print the tree as JSON
  :layout            Print node placement
  :impacts <file>    Load a JSON impact tree
  :importance        Print feature importance
  :help              Show this help
  :quit / :exit      Exit
`
)

func main() {
	cfg := exprtree.DefaultConfig()
	expr := flag.String("e", "", "Expression to load, print and exit")
	flag.StringVar(&cfg.Target, "target", cfg.Target, "Left-hand side of the LaTeX equation")
	flag.IntVar(&cfg.MaxUndo, "max-undo", cfg.MaxUndo, "Undo history capacity (negative disables undo)")
	flag.Float64Var(&cfg.Viewport, "viewport", cfg.Viewport, "Minimum layout width")
	impacts := flag.String("impacts", "", "JSON impact tree file")
	tool := flag.Bool("tool", false, "Serve JSON tool calls on stdin/stdout, one per line")
	spec := flag.Bool("spec", false, "Print the tool schema and exit")
	verbose := flag.Bool("v", false, "Debug logging on stderr")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	switch {
	case *spec:
		fmt.Println(exprtree.ToolSpec())
	case *tool:
		os.Exit(serveTools(os.Stdin, os.Stdout, logger))
	default:
		s := exprtree.NewSession(cfg, logger)
		if *impacts != "" {
			if err := loadImpacts(s, *impacts); err != nil {
				logger.Error("impacts", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
		if *expr != "" {
			os.Exit(runOnce(s, *expr))
		}
		os.Exit(runREPL(s))
	}
}

func loadImpacts(s *exprtree.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.SetImpactTree(data)
}

func runOnce(s *exprtree.Session, expr string) int {
	if err := s.Load(expr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	fmt.Println(s.Expression())
	fmt.Println(s.LaTeX())
	return 0
}

// ---- Tool mode -------------------------------------------------------------

// serveTools answers one ToolRequest per input line with one ToolResponse
// per output line. Malformed lines get an error response; the loop only
// stops at EOF.
func serveTools(in io.Reader, out io.Writer, logger *slog.Logger) int {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)
	ctx := context.Background()

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		_ = enc.Encode(handleLine(ctx, line, logger))
	}
	if err := sc.Err(); err != nil {
		logger.Error("reading requests", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func handleLine(ctx context.Context, line string, logger *slog.Logger) (resp exprtree.ToolResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic in tool call",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			resp = exprtree.ToolResponse{Error: "internal error"}
		}
	}()

	dec := json.NewDecoder(strings.NewReader(line))
	dec.DisallowUnknownFields()
	var req exprtree.ToolRequest
	if err := dec.Decode(&req); err != nil {
		return exprtree.ToolResponse{Error: err.Error()}
	}
	if dec.More() {
		return exprtree.ToolResponse{Error: "invalid JSON: trailing data"}
	}
	logger.Debug("tool call", slog.String("tool", req.Tool))
	return exprtree.HandleToolCall(ctx, req)
}

// ---- REPL ------------------------------------------------------------------

func runREPL(s *exprtree.Session) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil { // Ctrl+D or EOF
			fmt.Println()
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if done := handleCommand(s, line); done {
				break
			}
			continue
		}
		if err := s.Load(line); err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(s.Expression())
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

func handleCommand(s *exprtree.Session, line string) (exit bool) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	if s.Root() == nil {
		switch cmd {
		case ":help", ":quit", ":exit", ":impacts":
		default:
			fmt.Println("no expression loaded")
			return false
		}
	}

	switch cmd {
	case ":help":
		fmt.Print(helpText)

	case ":quit", ":exit":
		return true

	case ":tree":
		printTree(s)

	case ":del", ":delete":
		if len(fields) < 2 {
			fmt.Println("usage: :del <id>")
			return false
		}
		if !s.Delete(fields[1]) {
			fmt.Printf("no node with id %s\n", fields[1])
			return false
		}
		fmt.Println(s.Expression())

	case ":simplify":
		s.Simplify()
		fmt.Println(s.Expression())

	case ":optimize":
		s.Optimize()
		fmt.Println(s.Expression())

	case ":undo":
		if !s.Undo() {
			fmt.Println("nothing to undo")
			return false
		}
		fmt.Println(s.Expression())

	case ":latex":
		fmt.Println(s.LaTeX())

	case ":json":
		out, err := exprtree.ToJSON(s.Root())
		if err != nil {
			fmt.Println(err)
			return false
		}
		fmt.Println(out)

	case ":layout":
		printLayout(s)

	case ":impacts":
		if len(fields) < 2 {
			fmt.Println("usage: :impacts <file>")
			return false
		}
		if err := loadImpacts(s, fields[1]); err != nil {
			fmt.Printf("cannot load %s: %v\n", fields[1], err)
		}

	case ":importance":
		for _, f := range s.FeatureImportance() {
			fmt.Printf("  %-16s %.6f\n", f.Feature, f.Importance)
		}

	default:
		fmt.Println("unknown command. Type :help for help.")
	}
	return false
}

func printTree(s *exprtree.Session) {
	w := s.Weights()
	exprtree.Walk(s.Root(), func(n exprtree.Node, depth int) bool {
		label := n.String()
		if op, ok := n.(*exprtree.Operator); ok {
			label = op.Op.Label()
		}
		fmt.Printf("%s%-6s %-16s weight=%-10s %s\n",
			strings.Repeat("  ", depth), n.ID(), label,
			exprtree.FormatNumber(w.Of(n.ID()), 4), w.Color[n.ID()])
		return true
	})
	if len(w.Collisions) > 0 {
		fmt.Printf("shared impact keys: %s\n", strings.Join(w.Collisions, ", "))
	}
}

func printLayout(s *exprtree.Session) {
	l := s.Layout()
	ids := make([]string, 0, len(l.Boxes))
	for id := range l.Boxes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := l.Boxes[ids[i]], l.Boxes[ids[j]]
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.X < b.X
	})
	fmt.Printf("width %.1f, x in [%.1f, %.1f], depth %d\n",
		l.Width, l.Bounds.MinX, l.Bounds.MaxX, l.Bounds.Depth)
	for _, id := range ids {
		b := l.Boxes[id]
		fmt.Printf("  %-6s depth=%d x=%8.1f y=%8.1f w=%6.1f\n", id, b.Depth, b.X, b.Y, b.W)
	}
}
