package gui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/sim"
)

const (
	WindowWidth  = 400
	WindowHeight = 400
	PivotX       = 200
	PivotY       = 100
	BobRadius    = 20
)

var (
	ColBackground = color.RGBA{46, 46, 46, 255}
	ColPendulum   = color.RGBA{255, 0, 0, 255}
	ColText       = color.RGBA{140, 140, 140, 255}
)

// Game is the ebiten shell around a driver. Every Update is one tick of
// 1/TPS seconds; Draw only reads the latest snapshot.
type Game struct {
	driver   *sim.Driver
	scale    float64
	tps      int
	logger   *zap.Logger
	paused   bool
	showInfo bool
	err      error
}

func NewGame(driver *sim.Driver, scale float64, tps int, logger *zap.Logger) *Game {
	if tps <= 0 {
		tps = 60
	}
	if scale <= 0 {
		scale = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Game{driver: driver, scale: scale, tps: tps, logger: logger, showInfo: true}
}

// Err is the fault that closed the window, if any.
func (g *Game) Err() error { return g.err }

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if err := g.driver.Reset(); err != nil {
			g.logger.Warn("reset failed", zap.Error(err))
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		g.showInfo = !g.showInfo
	}
	if g.paused {
		return nil
	}
	return g.step()
}

func (g *Game) togglePause() {
	g.paused = !g.paused
	if !g.paused {
		g.driver.Resume()
	}
}

func (g *Game) step() error {
	err := g.driver.Tick(1 / float64(g.tps))
	if err != nil && g.driver.Policy() == sim.FaultStop {
		g.err = err
		return err
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(ColBackground)
	for _, rod := range Rods(g.driver.Views(), g.scale) {
		drawRod(screen, rod)
	}
	if g.showInfo {
		status := "running"
		if g.paused {
			status = "paused"
		}
		ebitenutil.DebugPrint(screen, fmt.Sprintf("t=%.2fs tick=%d %s", g.driver.Time(), g.driver.Ticks(), status))
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return WindowWidth, WindowHeight
}

// Run opens the window and blocks until it closes. A fault under the stop
// policy is returned; closing the window is not an error.
func Run(g *Game, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(WindowWidth, WindowHeight)
	ebiten.SetTPS(g.tps)
	g.logger.Info("window opened", zap.String("title", title), zap.Int("tps", g.tps))
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return g.err
}
