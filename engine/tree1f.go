package engine

import (
	"fmt"
	"math"

	"github.com/meenmo/bermudan/model"
)

// TreeSettings size the trinomial tree.
type TreeSettings struct {
	Steps int
}

// DefaultTreeSettings are the production tree sizes.
func DefaultTreeSettings() TreeSettings { return TreeSettings{Steps: 500} }

// Tree1F prices on a recombining trinomial tree in the factor x. The node
// spacing of each level is √(3·Var[x(t_{i+1}) | x(t_i)]) and the drift
// adjustment of every level is fitted to the discount curve through
// Arrow–Debreu prices.
type Tree1F struct {
	Model    model.OneFactor
	Settings TreeSettings
}

// NewTree1F binds a one-factor model to the tree engine.
func NewTree1F(m model.OneFactor, s TreeSettings) *Tree1F {
	return &Tree1F{Model: m, Settings: s}
}

// treeLevel holds the nodes at one time and their branching to the next level.
type treeLevel struct {
	lo   int
	dx   float64
	next []int
	pu   []float64
	pm   []float64
	pd   []float64
	phi  float64
}

func (l *treeLevel) size() int { return len(l.next) }

func (l *treeLevel) x(j int) float64 { return float64(l.lo+j) * l.dx }

func (e *Tree1F) Price(s Swaption) (float64, error) {
	if err := validate(s); err != nil {
		return 0, fmt.Errorf("Tree1F.Price: %w", err)
	}
	if e.Settings.Steps < 1 {
		return 0, fmt.Errorf("Tree1F.Price: steps must be positive, got %d", e.Settings.Steps)
	}
	m := e.Model
	mandatory := make([]float64, len(s.Exercises))
	for k, ex := range s.Exercises {
		mandatory[k] = ex.Time
	}
	grid := timeGrid(mandatory, e.Settings.Steps)
	exAt := exerciseIndex(grid, s)
	last := len(grid) - 1

	levels, finalLo, finalDx, finalSize, err := e.build(grid)
	if err != nil {
		return 0, fmt.Errorf("Tree1F.Price: %w", err)
	}

	sign := s.Type.Sign()
	f := newBondFactors(m, sign, s.Exercises[exAt[last]])
	values := make([]float64, finalSize)
	for j := range values {
		values[j] = f.payoff(float64(finalLo+j) * finalDx)
	}

	nextLo := finalLo
	for i := last - 1; i >= 0; i-- {
		lv := levels[i]
		dt := grid[i+1] - grid[i]
		prev := make([]float64, lv.size())
		for j := range prev {
			k := lv.next[j] - nextLo
			cont := lv.pu[j]*values[k+1] + lv.pm[j]*values[k] + lv.pd[j]*values[k-1]
			prev[j] = math.Exp(-(lv.x(j)+lv.phi)*dt) * cont
		}
		if k, ok := exAt[i]; ok {
			f := newBondFactors(m, sign, s.Exercises[k])
			for j := range prev {
				prev[j] = math.Max(prev[j], f.payoff(lv.x(j)))
			}
		}
		values = prev
		nextLo = lv.lo
	}

	price := values[0]
	if !isFinite(price) {
		return 0, fmt.Errorf("Tree1F.Price: non-finite price")
	}
	return price, nil
}

// build lays out the tree levels on grid and fits each level's φ so the tree
// reprices the discount curve at every grid time.
func (e *Tree1F) build(grid []float64) ([]*treeLevel, int, float64, int, error) {
	m := e.Model
	a := m.Reversion()
	ts := m.TermStructure()
	last := len(grid) - 1

	levels := make([]*treeLevel, last)
	lo, size, dx := 0, 1, 0.0
	q := []float64{1}
	for i := 0; i < last; i++ {
		dt := grid[i+1] - grid[i]
		v := m.VarX(grid[i], grid[i+1])
		dxNext := math.Sqrt(3 * v)
		if !(dxNext > 0) {
			return nil, 0, 0, 0, fmt.Errorf("zero variance over [%v, %v]", grid[i], grid[i+1])
		}
		lv := &treeLevel{
			lo:   lo,
			dx:   dx,
			next: make([]int, size),
			pu:   make([]float64, size),
			pm:   make([]float64, size),
			pd:   make([]float64, size),
		}
		decay := math.Exp(-a * dt)
		minK, maxK := math.MaxInt, math.MinInt
		for j := 0; j < size; j++ {
			mean := lv.x(j) * decay
			k := int(math.Round(mean / dxNext))
			ek := (mean - float64(k)*dxNext) / dxNext
			lv.next[j] = k
			lv.pu[j] = 1.0/6 + 0.5*(ek*ek+ek)
			lv.pm[j] = 2.0/3 - ek*ek
			lv.pd[j] = 1.0/6 + 0.5*(ek*ek-ek)
			if k < minK {
				minK = k
			}
			if k > maxK {
				maxK = k
			}
		}

		sum := 0.0
		for j := 0; j < size; j++ {
			sum += q[j] * math.Exp(-lv.x(j)*dt)
		}
		p := ts.DiscountT(grid[i+1])
		lv.phi = (math.Log(sum) - math.Log(p)) / dt
		levels[i] = lv

		nextLo, nextSize := minK-1, maxK-minK+3
		qNext := make([]float64, nextSize)
		for j := 0; j < size; j++ {
			d := q[j] * math.Exp(-(lv.x(j)+lv.phi)*dt)
			k := lv.next[j] - nextLo
			qNext[k+1] += d * lv.pu[j]
			qNext[k] += d * lv.pm[j]
			qNext[k-1] += d * lv.pd[j]
		}
		q, lo, size, dx = qNext, nextLo, nextSize, dxNext
	}
	return levels, lo, dx, size, nil
}
