package engine

import (
	"fmt"
	"math"

	"github.com/meenmo/bermudan/model"
	"github.com/meenmo/bermudan/numerics"
)

// FDSettings size the one-factor finite-difference grid.
type FDSettings struct {
	GridPoints     int
	StepsPerYear   int
	MinSteps       int
	StdDevs        float64
	RannacherSteps int
}

// DefaultFDSettings are the production grid sizes.
func DefaultFDSettings() FDSettings {
	return FDSettings{GridPoints: 101, StepsPerYear: 24, MinSteps: 20, StdDevs: 5, RannacherSteps: 2}
}

// FD1F solves the one-factor pricing PDE backward with Crank–Nicolson on a
// uniform grid in the factor x, with fully implicit steps after the terminal
// payoff and after every exercise to damp the payoff kink.
type FD1F struct {
	Model    model.OneFactor
	Settings FDSettings
}

// NewFD1F binds a one-factor model to the finite-difference engine.
func NewFD1F(m model.OneFactor, s FDSettings) *FD1F {
	return &FD1F{Model: m, Settings: s}
}

func (e *FD1F) Price(s Swaption) (float64, error) {
	if err := validate(s); err != nil {
		return 0, fmt.Errorf("FD1F.Price: %w", err)
	}
	cfg := e.Settings
	if cfg.GridPoints < 3 || cfg.StdDevs <= 0 {
		return 0, fmt.Errorf("FD1F.Price: invalid grid settings %+v", cfg)
	}
	m := e.Model

	horizon := s.LastTime()
	width := cfg.StdDevs * math.Sqrt(m.VarX(0, horizon))
	if !(width > 0) {
		return 0, fmt.Errorf("FD1F.Price: degenerate grid width %v", width)
	}
	x, dx := centredAxis(cfg.GridPoints, width)
	n := len(x)

	mandatory := make([]float64, len(s.Exercises))
	for k, ex := range s.Exercises {
		mandatory[k] = ex.Time
	}
	steps := int(math.Ceil(horizon * float64(cfg.StepsPerYear)))
	if steps < cfg.MinSteps {
		steps = cfg.MinSteps
	}
	grid := timeGrid(mandatory, steps)
	exAt := exerciseIndex(grid, s)

	sign := s.Type.Sign()
	last := len(grid) - 1
	values := make([]float64, n)
	final := newBondFactors(m, sign, s.Exercises[exAt[last]])
	for i := range values {
		values[i] = final.payoff(x[i])
	}

	lower := make([]float64, n)
	diag := make([]float64, n)
	upper := make([]float64, n)
	rhs := make([]float64, n)
	scratch := make([]float64, n)
	l := make([]float64, n)
	c := make([]float64, n)
	u := make([]float64, n)

	damping := cfg.RannacherSteps
	a := m.Reversion()
	for j := last; j > 0; j-- {
		t1, t2 := grid[j-1], grid[j]
		dt := t2 - t1
		sigma := m.Sigma(0.5 * (t1 + t2))
		operator(x, dx, a, sigma, l, c, u)

		theta := 0.5
		if damping > 0 {
			theta = 1
			damping--
		}
		for i := 0; i < n; i++ {
			lv := c[i] * values[i]
			if i > 0 {
				lv += l[i] * values[i-1]
			}
			if i < n-1 {
				lv += u[i] * values[i+1]
			}
			rhs[i] = values[i] + (1-theta)*dt*lv
			lower[i] = -theta * dt * l[i]
			diag[i] = 1 - theta*dt*c[i]
			upper[i] = -theta * dt * u[i]
		}
		numerics.SolveTridiagonal(lower, diag, upper, rhs, values, scratch)

		disc := math.Exp(-m.AlphaIntegral(t1, t2))
		for i := range values {
			values[i] *= disc
		}

		if k, ok := exAt[j-1]; ok {
			f := newBondFactors(m, sign, s.Exercises[k])
			for i := range values {
				values[i] = math.Max(values[i], f.payoff(x[i]))
			}
			damping = cfg.RannacherSteps
		}
	}

	price := values[n/2]
	if !isFinite(price) {
		return 0, fmt.Errorf("FD1F.Price: non-finite price")
	}
	return price, nil
}

// operator fills the tridiagonal coefficients of
// L = ½σ²∂xx - a·x·∂x - x, with one-sided drift and no diffusion at the edges.
func operator(x []float64, dx, a, sigma float64, l, c, u []float64) {
	n := len(x)
	diff := 0.5 * sigma * sigma / (dx * dx)
	for i := 1; i < n-1; i++ {
		drift := -a * x[i] / (2 * dx)
		l[i] = diff - drift
		u[i] = diff + drift
		c[i] = -2*diff - x[i]
	}
	mu0 := -a * x[0] / dx
	l[0], c[0], u[0] = 0, -mu0-x[0], mu0
	muN := -a * x[n-1] / dx
	l[n-1], c[n-1], u[n-1] = -muN, muN-x[n-1], 0
}
