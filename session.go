package exprtree

import (
	"log/slog"
)

// ============================================================
// Session: current tree plus undo history
// ============================================================

// Session holds the tree being edited, the impact map it is weighted
// against, and a capped LIFO stack of whole-tree snapshots. Every edit
// (Delete, Simplify, Optimize) pushes the previous tree before replacing
// it; Undo pops it back. When the stack is full the oldest snapshot is
// dropped.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg     Config
	logger  *slog.Logger
	g       *IDGen
	root    Node
	impacts ImpactMap
	history []Node
}

// NewSession creates an empty session.
//
// Inputs:
//   - cfg: zero fields take the values from DefaultConfig.
//   - logger: Logger instance. If nil, uses slog.Default().
func NewSession(cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:    cfg.withDefaults(),
		logger: logger.With(slog.String("component", "session")),
		g:      NewIDGen(),
	}
}

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// Root returns the current tree, nil before the first Load.
func (s *Session) Root() Node { return s.root }

// Load parses expr, sinks coefficients, simplifies, and makes the result the
// current tree. History is cleared. On error the session is unchanged.
func (s *Session) Load(expr string) error {
	g := NewIDGen()
	n, err := Parse(g, expr)
	if err != nil {
		s.logger.Debug("load rejected",
			slog.String("expr", expr),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.reset(g, Simplify(g, Normalize(n)))
	s.logger.Debug("loaded",
		slog.String("expr", expr),
		slog.Int("nodes", Count(s.root)),
	)
	return nil
}

// LoadTree makes root the current tree as is, keeping its ids. History is
// cleared.
func (s *Session) LoadTree(root Node) {
	s.reset(seededIDGen(root), root)
	s.logger.Debug("loaded tree", slog.Int("nodes", Count(root)))
}

func (s *Session) reset(g *IDGen, root Node) {
	s.g = g
	s.root = root
	s.history = nil
	editsTotal.WithLabelValues("load").Inc()
	undoDepth.Set(0)
}

// Delete removes the subtree with the given id. It reports false, and
// leaves the session untouched, when no such node exists.
func (s *Session) Delete(id string) bool {
	n, ok := deleteNode(s.g, s.root, id)
	if !ok {
		s.logger.Debug("delete: no such node", slog.String("id", id))
		return false
	}
	s.apply("delete", n, slog.String("id", id))
	return true
}

// Simplify applies the identity rules to the current tree.
func (s *Session) Simplify() {
	if s.root == nil {
		return
	}
	s.apply("simplify", Simplify(s.g, s.root))
}

// Optimize normalizes and then simplifies the current tree.
func (s *Session) Optimize() {
	if s.root == nil {
		return
	}
	s.apply("optimize", Simplify(s.g, Normalize(s.root)))
}

func (s *Session) apply(kind string, next Node, attrs ...any) {
	s.push(s.root)
	s.root = next
	editsTotal.WithLabelValues(kind).Inc()
	attrs = append(attrs,
		slog.String("op", kind),
		slog.Int("undo_depth", len(s.history)),
		slog.String("expr", ToExpression(next)),
	)
	s.logger.Debug("edit", attrs...)
}

func (s *Session) push(n Node) {
	if s.cfg.MaxUndo < 0 {
		return
	}
	s.history = append(s.history, n)
	if over := len(s.history) - s.cfg.MaxUndo; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
		s.logger.Warn("undo history full, dropped oldest snapshot",
			slog.Int("max_undo", s.cfg.MaxUndo),
		)
	}
	undoDepth.Set(float64(len(s.history)))
}

// Undo restores the tree as it was before the latest edit. It reports false
// when there is nothing to undo.
func (s *Session) Undo() bool {
	if len(s.history) == 0 {
		return false
	}
	last := len(s.history) - 1
	s.root = s.history[last]
	s.history[last] = nil
	s.history = s.history[:last]
	editsTotal.WithLabelValues("undo").Inc()
	undoDepth.Set(float64(len(s.history)))
	s.logger.Debug("undo", slog.Int("undo_depth", len(s.history)))
	return true
}

// UndoDepth is the number of edits Undo can revert.
func (s *Session) UndoDepth() int { return len(s.history) }

// Find returns the node with the given id in the current tree, or nil.
func (s *Session) Find(id string) Node { return Find(s.root, id) }

// SetImpacts replaces the impact map used by Weights.
func (s *Session) SetImpacts(m ImpactMap) {
	s.impacts = m
	s.logger.Debug("impacts set", slog.Int("keys", len(m)))
}

// SetImpactTree decodes a nested JSON impact tree and installs it.
func (s *Session) SetImpactTree(data []byte) error {
	m, dups, err := ParseImpactTree(data)
	if err != nil {
		return err
	}
	if len(dups) > 0 {
		s.logger.Warn("impact tree repeats keys, last value wins",
			slog.Any("keys", dups),
		)
	}
	s.SetImpacts(m)
	return nil
}

// Weights propagates weights over the current tree.
func (s *Session) Weights() *Weights {
	w := ComputeWeights(s.root, s.impacts)
	if len(w.Collisions) > 0 {
		s.logger.Warn("impact keys shared by distinct leaves",
			slog.Any("keys", w.Collisions),
		)
	}
	return w
}

// Layout places the current tree using the session's viewport and metrics.
func (s *Session) Layout() *TreeLayout {
	return Layout(s.root, s.cfg.Viewport, s.cfg.Metrics)
}

// Expression renders the current tree as text.
func (s *Session) Expression() string { return ToExpression(s.root) }

// LaTeX renders the current tree as an equation for the configured target.
func (s *Session) LaTeX() string { return ToLatex(s.root, s.cfg.Target) }

// FeatureImportance summarises the variables of the current tree.
func (s *Session) FeatureImportance() []FeatureImportance {
	return ComputeFeatureImportance(s.root)
}
