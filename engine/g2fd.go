package engine

import (
	"fmt"
	"math"

	"github.com/meenmo/bermudan/model"
	"github.com/meenmo/bermudan/numerics"
)

// G2FDSettings size the two-factor ADI grid.
type G2FDSettings struct {
	XPoints      int
	YPoints      int
	StepsPerYear int
	MinSteps     int
	StdDevs      float64
	DampingSteps int
}

// DefaultG2FDSettings are the production grid sizes.
func DefaultG2FDSettings() G2FDSettings {
	return G2FDSettings{XPoints: 41, YPoints: 41, StepsPerYear: 24, MinSteps: 20, StdDevs: 5, DampingSteps: 2}
}

// G2FD prices under G2++ with the Douglas ADI scheme. The mixed derivative is
// treated explicitly and each direction implicitly with weight θ = ½, except
// for fully implicit damping steps after the payoff and after exercises.
type G2FD struct {
	Model    *model.G2
	Settings G2FDSettings
}

// NewG2FD binds a G2 model to the ADI engine.
func NewG2FD(m *model.G2, s G2FDSettings) *G2FD {
	return &G2FD{Model: m, Settings: s}
}

func (e *G2FD) Price(s Swaption) (float64, error) {
	if err := validate(s); err != nil {
		return 0, fmt.Errorf("G2FD.Price: %w", err)
	}
	cfg := e.Settings
	if cfg.XPoints < 3 || cfg.YPoints < 3 || !(cfg.StdDevs > 0) {
		return 0, fmt.Errorf("G2FD.Price: invalid grid settings %+v", cfg)
	}
	m := e.Model
	horizon := s.LastTime()

	xs, dx := centredAxis(cfg.XPoints, cfg.StdDevs*math.Sqrt(m.VarX(horizon)))
	ys, dy := centredAxis(cfg.YPoints, cfg.StdDevs*math.Sqrt(m.VarY(horizon)))
	nx, ny := len(xs), len(ys)

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
	last := len(grid) - 1
	sign := s.Type.Sign()

	values := make([]float64, nx*ny)
	applyPayoff := func(k int, replace bool) {
		f := newG2Factors(m, sign, s.Exercises[k])
		for i, x := range xs {
			for j, y := range ys {
				p := f.payoff(x, y)
				if replace || p > values[i*ny+j] {
					values[i*ny+j] = p
				}
			}
		}
	}
	applyPayoff(exAt[last], true)

	// Operators are time-homogeneous apart from the φ discounting.
	lx, cx, ux := make([]float64, nx), make([]float64, nx), make([]float64, nx)
	ly, cy, uy := make([]float64, ny), make([]float64, ny), make([]float64, ny)
	operator(xs, dx, m.A(), m.Sigma(), lx, cx, ux)
	operator(ys, dy, m.B(), m.Eta(), ly, cy, uy)
	mixed := m.Rho() * m.Sigma() * m.Eta() / (4 * dx * dy)

	n := nx * ny
	y0 := make([]float64, n)
	a1 := make([]float64, n)
	a2 := make([]float64, n)
	maxN := nx
	if ny > maxN {
		maxN = ny
	}
	lower, diag, upper := make([]float64, maxN), make([]float64, maxN), make([]float64, maxN)
	rhs, sol, scratch := make([]float64, maxN), make([]float64, maxN), make([]float64, maxN)

	damping := cfg.DampingSteps
	for step := last; step > 0; step-- {
		t1, t2 := grid[step-1], grid[step]
		dt := t2 - t1
		theta := 0.5
		if damping > 0 {
			theta = 1
			damping--
		}

		// A1 (x direction) and A2 (y direction) applied to the current values.
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				idx := i*ny + j
				v := cx[i] * values[idx]
				if i > 0 {
					v += lx[i] * values[idx-ny]
				}
				if i < nx-1 {
					v += ux[i] * values[idx+ny]
				}
				a1[idx] = v
				w := cy[j] * values[idx]
				if j > 0 {
					w += ly[j] * values[idx-1]
				}
				if j < ny-1 {
					w += uy[j] * values[idx+1]
				}
				a2[idx] = w
			}
		}
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				idx := i*ny + j
				a0 := 0.0
				if i > 0 && i < nx-1 && j > 0 && j < ny-1 {
					a0 = mixed * (values[idx+ny+1] - values[idx+ny-1] - values[idx-ny+1] + values[idx-ny-1])
				}
				y0[idx] = values[idx] + dt*(a0+a1[idx]+a2[idx])
			}
		}

		// Implicit sweep in x, one line per y node.
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				idx := i*ny + j
				rhs[i] = y0[idx] - theta*dt*a1[idx]
				lower[i] = -theta * dt * lx[i]
				diag[i] = 1 - theta*dt*cx[i]
				upper[i] = -theta * dt * ux[i]
			}
			numerics.SolveTridiagonal(lower[:nx], diag[:nx], upper[:nx], rhs[:nx], sol[:nx], scratch[:nx])
			for i := 0; i < nx; i++ {
				y0[i*ny+j] = sol[i]
			}
		}
		// Implicit sweep in y, one line per x node.
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				idx := i*ny + j
				rhs[j] = y0[idx] - theta*dt*a2[idx]
				lower[j] = -theta * dt * ly[j]
				diag[j] = 1 - theta*dt*cy[j]
				upper[j] = -theta * dt * uy[j]
			}
			numerics.SolveTridiagonal(lower[:ny], diag[:ny], upper[:ny], rhs[:ny], sol[:ny], scratch[:ny])
			copy(values[i*ny:(i+1)*ny], sol[:ny])
		}

		disc := math.Exp(-m.PhiIntegral(t1, t2))
		for idx := range values {
			values[idx] *= disc
		}

		if k, ok := exAt[step-1]; ok {
			applyPayoff(k, false)
			damping = cfg.DampingSteps
		}
	}

	price := values[(nx/2)*ny+ny/2]
	if !isFinite(price) {
		return 0, fmt.Errorf("G2FD.Price: non-finite price")
	}
	return price, nil
}

// centredAxis is an odd uniform grid on [-width, width] with an exact zero node.
func centredAxis(points int, width float64) ([]float64, float64) {
	if points%2 == 0 {
		points++
	}
	dx := 2 * width / float64(points-1)
	axis := make([]float64, points)
	for i := range axis {
		axis[i] = -width + float64(i)*dx
	}
	axis[points/2] = 0
	return axis, dx
}
