package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LMStatus records why Levenberg–Marquardt stopped.
type LMStatus string

const (
	LMFunctionConvergence  LMStatus = "function tolerance"
	LMGradientConvergence  LMStatus = "gradient tolerance"
	LMParameterConvergence LMStatus = "parameter tolerance"
	LMZeroResidual         LMStatus = "zero residual"
	LMMaxIterations        LMStatus = "max iterations"
)

// LMSettings bounds the optimizer.
type LMSettings struct {
	MaxIterations int
	FunctionTol   float64
	GradientTol   float64
	ParameterTol  float64
	InitialLambda float64
	// JacobianStep is the relative forward-difference step.
	JacobianStep float64
}

// LMResult is the optimizer output.
type LMResult struct {
	X           []float64
	Residuals   []float64
	Cost        float64
	Iterations  int
	Evaluations int
	Status      LMStatus
}

// ResidualFunc writes the m residuals at x into r.
type ResidualFunc func(x, r []float64) error

const (
	zeroCost  = 1e-30
	maxLambda = 1e16
)

// LevenbergMarquardt minimises ½‖r(x)‖² from x0 with a forward-difference Jacobian.
//
// The damped normal equations (JᵀJ + λ·diag(JᵀJ))δ = -Jᵀr are solved by Cholesky.
// A run that exhausts MaxIterations returns the best point found with ErrMaxIterations.
func LevenbergMarquardt(fn ResidualFunc, x0 []float64, m int, s LMSettings) (LMResult, error) {
	n := len(x0)
	if n == 0 || m < n {
		return LMResult{}, fmt.Errorf("LevenbergMarquardt: need 0 < parameters (%d) <= residuals (%d)", n, m)
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, m)
	if err := fn(x, r); err != nil {
		return LMResult{}, fmt.Errorf("LevenbergMarquardt: initial residuals: %w", err)
	}
	res := LMResult{Evaluations: 1}
	cost := 0.5 * floats.Dot(r, r)
	if !isFinite(cost) {
		return LMResult{}, fmt.Errorf("LevenbergMarquardt: non-finite initial cost")
	}

	lambda := s.InitialLambda
	if lambda <= 0 {
		lambda = 1e-3
	}
	jac := mat.NewDense(m, n, nil)
	xt := make([]float64, n)
	rt := make([]float64, m)

	finish := func(status LMStatus) (LMResult, error) {
		res.X, res.Residuals, res.Cost, res.Status = x, r, cost, status
		return res, nil
	}

	for iter := 1; iter <= s.MaxIterations; iter++ {
		res.Iterations = iter
		if cost <= zeroCost {
			return finish(LMZeroResidual)
		}

		for j := 0; j < n; j++ {
			h := s.JacobianStep * math.Max(math.Abs(x[j]), 1)
			copy(xt, x)
			xt[j] += h
			if err := fn(xt, rt); err != nil {
				return LMResult{}, fmt.Errorf("LevenbergMarquardt: jacobian column %d: %w", j, err)
			}
			res.Evaluations++
			for i := 0; i < m; i++ {
				jac.Set(i, j, (rt[i]-r[i])/h)
			}
		}

		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())
		var grad mat.VecDense
		grad.MulVec(jac.T(), mat.NewVecDense(m, r))
		if vecNorm(&grad, math.Inf(1)) <= s.GradientTol {
			return finish(LMGradientConvergence)
		}

		for {
			damped := mat.NewSymDense(n, nil)
			damped.CopySym(&jtj)
			for j := 0; j < n; j++ {
				d := math.Max(jtj.At(j, j), 1e-12)
				damped.SetSym(j, j, jtj.At(j, j)+lambda*d)
			}

			var chol mat.Cholesky
			if !chol.Factorize(damped) {
				lambda *= 10
				if lambda > maxLambda {
					return finish(LMParameterConvergence)
				}
				continue
			}
			var step mat.VecDense
			if err := chol.SolveVecTo(&step, &grad); err != nil {
				lambda *= 10
				if lambda > maxLambda {
					return finish(LMParameterConvergence)
				}
				continue
			}
			for j := 0; j < n; j++ {
				xt[j] = x[j] - step.AtVec(j)
			}
			stepNorm := vecNorm(&step, 2)
			smallStep := stepNorm <= s.ParameterTol*(floats.Norm(x, 2)+s.ParameterTol)

			// A trial point the residual function rejects is treated as uphill.
			trialCost := math.Inf(1)
			if err := fn(xt, rt); err == nil {
				trialCost = 0.5 * floats.Dot(rt, rt)
			}
			res.Evaluations++

			if isFinite(trialCost) && trialCost < cost {
				reduction := cost - trialCost
				previous := cost
				copy(x, xt)
				copy(r, rt)
				cost = trialCost
				lambda = math.Max(lambda/10, 1e-12)
				if reduction <= s.FunctionTol*previous {
					return finish(LMFunctionConvergence)
				}
				if smallStep {
					return finish(LMParameterConvergence)
				}
				break
			}
			if smallStep {
				return finish(LMParameterConvergence)
			}
			lambda *= 10
			if lambda > maxLambda {
				return finish(LMParameterConvergence)
			}
		}
	}

	res.X, res.Residuals, res.Cost, res.Status = x, r, cost, LMMaxIterations
	return res, ErrMaxIterations
}

func vecNorm(v *mat.VecDense, l float64) float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return floats.Norm(data, l)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
