package exprtree

// DefaultMaxUndo is the undo capacity used when Config.MaxUndo is zero.
const DefaultMaxUndo = 256

// Config controls a Session.
type Config struct {
	// MaxUndo caps the undo stack. Zero means DefaultMaxUndo; a negative
	// value disables undo.
	MaxUndo int
	// Target is the left-hand side of the LaTeX equation.
	Target string
	// Viewport is the minimum width reported by Layout.
	Viewport float64
	Metrics  Metrics
}

// DefaultConfig returns the configuration used by NewSession(Config{}, ...).
func DefaultConfig() Config {
	return Config{
		MaxUndo:  DefaultMaxUndo,
		Target:   "Y",
		Viewport: 0,
		Metrics:  DefaultMetrics(),
	}
}

func (c Config) withDefaults() Config {
	if c.MaxUndo == 0 {
		c.MaxUndo = DefaultMaxUndo
	}
	if c.Target == "" {
		c.Target = "Y"
	}
	if c.Viewport < 0 {
		c.Viewport = 0
	}
	c.Metrics = c.Metrics.withDefaults()
	return c
}
