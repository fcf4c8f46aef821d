package riccati

import "errors"

var (
	// ErrFactorization reports that a stage factorization broke down: a
	// proximal Schur complement was indefinite beyond tolerance or a stage
	// KKT matrix was singular. The outer solver reacts by raising its
	// regularization and calling Backward again.
	ErrFactorization = errors.New("riccati: factorization failed")

	// ErrSingularPivot reports a numerically singular pivot block inside the
	// block-tridiagonal elimination.
	ErrSingularPivot = errors.New("riccati: singular pivot")

	// ErrParameterized rejects problems whose knots already carry parameter
	// dimensions; the solvers own the boundary parameterization.
	ErrParameterized = errors.New("riccati: problem knots must not be parameterized")

	// ErrBadBlockDims rejects empty or nonpositive block dimension lists.
	ErrBadBlockDims = errors.New("riccati: invalid block dimensions")

	// ErrNotReady is the panic value of Forward when no successful Backward
	// preceded it on the same instance.
	ErrNotReady = errors.New("riccati: Forward called before a successful Backward")

	// ErrBufferSize is the panic value of Forward when the trajectory
	// buffers do not match the problem dimensions.
	ErrBufferSize = errors.New("riccati: trajectory buffer size mismatch")
)
