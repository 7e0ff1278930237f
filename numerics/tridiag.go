package numerics

// SolveTridiagonal solves the system with sub-diagonal lower, diagonal diag and
// super-diagonal upper (lower[0] and upper[n-1] are ignored) for rhs, writing the
// solution into x. scratch must have length n. Thomas algorithm; the matrix is
// assumed diagonally dominant, as produced by implicit diffusion steps.
func SolveTridiagonal(lower, diag, upper, rhs, x, scratch []float64) {
	n := len(diag)
	beta := diag[0]
	x[0] = rhs[0] / beta
	for i := 1; i < n; i++ {
		scratch[i] = upper[i-1] / beta
		beta = diag[i] - lower[i]*scratch[i]
		x[i] = (rhs[i] - lower[i]*x[i-1]) / beta
	}
	for i := n - 2; i >= 0; i-- {
		x[i] -= scratch[i+1] * x[i+1]
	}
}
