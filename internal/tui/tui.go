// Package tui is an interactive terminal host for a collapse engine.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lawnchairsociety/wavetiles/internal/render"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

const helpLine = "space step  enter run  esc pause  r reset  q quit"

var (
	defaultStyle       = tcell.StyleDefault
	openStyle          = tcell.StyleDefault.Foreground(tcell.ColorGray)
	contradictionStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed)
	statusStyle        = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// App draws an engine and steps it from the keyboard. The engine is only
// touched from the goroutine running Run.
type App struct {
	screen   tcell.Screen
	engine   *wfc.Engine
	catalog  *wfc.Catalog
	title    string
	interval time.Duration
	onFinish func(*wfc.Engine)
	onReset  func()
	log      *slog.Logger

	autoRun  bool
	finished bool
}

// Option configures an App.
type Option func(*App)

// WithInterval sets the delay between steps while auto-running.
func WithInterval(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithLogger sets the logger. The terminal is owned by the UI, so it should
// not write to stdout or stderr.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// OnFinish registers fn to run once each time the engine stops.
func OnFinish(fn func(*wfc.Engine)) Option {
	return func(a *App) {
		a.onFinish = fn
	}
}

// OnReset registers fn to run after each reset, before the first step of
// the new run. Hosts use it to reseed the engine's random source.
func OnReset(fn func()) Option {
	return func(a *App) {
		a.onReset = fn
	}
}

// New creates an App. The screen is initialized by Run.
func New(screen tcell.Screen, engine *wfc.Engine, title string, opts ...Option) *App {
	a := &App{
		screen:   screen,
		engine:   engine,
		catalog:  engine.Grid().Catalog(),
		title:    title,
		interval: 16 * time.Millisecond,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AutoRun reports whether the engine is stepping on its own.
func (a *App) AutoRun() bool {
	return a.autoRun
}

// Run initializes the screen and serves key events until quit or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("tui: init screen: %w", err)
	}
	defer a.screen.Fini()

	events := make(chan tcell.Event, 100)
	go func() {
		defer close(events)
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				// Fini was called
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				quit, err := a.HandleKey(ev.Key(), ev.Rune())
				if err != nil {
					return err
				}
				if quit {
					return nil
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
			a.Draw()

		case <-ticker.C:
			if !a.autoRun {
				continue
			}
			if err := a.step(); err != nil {
				return err
			}
			a.Draw()
		}
	}
}

// HandleKey applies one key press. It returns true when the user asked to
// quit.
func (a *App) HandleKey(key tcell.Key, r rune) (quit bool, err error) {
	switch key {
	case tcell.KeyCtrlC:
		return true, nil
	case tcell.KeyEnter:
		a.autoRun = !a.engine.Done()
		return false, nil
	case tcell.KeyEscape:
		a.autoRun = false
		return false, nil
	case tcell.KeyRune:
	default:
		return false, nil
	}

	switch r {
	case 'q', 'Q':
		return true, nil
	case ' ':
		a.autoRun = false
		return false, a.step()
	case 'r', 'R':
		a.autoRun = false
		a.finished = false
		a.log.Debug("Grid reset from terminal")
		if err := a.engine.Reset(); err != nil {
			return false, err
		}
		if a.onReset != nil {
			a.onReset()
		}
		return false, nil
	}
	return false, nil
}

// step advances the engine once and fires the finish hook when it stops.
func (a *App) step() error {
	if err := a.engine.Step(); err != nil {
		return err
	}
	if a.engine.Done() {
		a.autoRun = false
		if !a.finished {
			a.finished = true
			if a.onFinish != nil {
				a.onFinish(a.engine)
			}
		}
	}
	return nil
}

// Status returns the status line text.
func (a *App) Status() string {
	s := a.engine.Snapshot()

	label := "RUNNING"
	switch a.engine.Outcome() {
	case wfc.OutcomeComplete:
		label = "DONE"
	case wfc.OutcomeContradiction:
		label = "CONTRADICTION"
	}
	if a.autoRun {
		label += " (auto)"
	}
	return fmt.Sprintf(" %s  steps %d  collapsed %d/%d  %s ",
		a.title, s.Steps, s.Collapsed, s.Columns*s.Rows, label)
}

// Draw redraws the grid, the status line and the key help.
func (a *App) Draw() {
	a.screen.Clear()
	s := a.engine.Snapshot()

	for _, v := range s.Cells {
		a.screen.SetContent(v.Column, v.Row, render.CellGlyph(v, a.catalog), nil, a.cellStyle(v))
	}

	width, _ := a.screen.Size()
	a.drawLine(s.Rows+1, a.Status(), statusStyle, width)
	a.drawLine(s.Rows+2, helpLine, defaultStyle, width)
	a.screen.Show()
}

func (a *App) cellStyle(v wfc.CellView) tcell.Style {
	switch v.State {
	case wfc.CellCollapsed:
		c := render.BaseColor(a.catalog.Tile(v.Tile).Base)
		bg := tcell.NewRGBColor(int32(c.R*255), int32(c.G*255), int32(c.B*255))
		return tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(bg)
	case wfc.CellContradiction:
		return contradictionStyle
	default:
		return openStyle
	}
}

func (a *App) drawLine(y int, text string, style tcell.Style, width int) {
	x := 0
	for _, r := range text {
		if width > 0 && x >= width {
			return
		}
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
