package recommender

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// ALSConfig holds the hyperparameters of the implicit-feedback ALS solver.
type ALSConfig struct {
	Factors        int     `mapstructure:"factors"`
	Regularization float64 `mapstructure:"regularization"`
	Iterations     int     `mapstructure:"iterations"`
	Alpha          float64 `mapstructure:"alpha"`
	// Seed fixes the factor initialization for reproducible runs.
	// Zero means seed from the clock.
	Seed int64 `mapstructure:"seed"`
}

// DefaultALSConfig mirrors the hyperparameters the system was tuned with.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		Factors:        100,
		Regularization: 0.01,
		Iterations:     15,
		Alpha:          40,
	}
}

// ALS factorizes a sparse rating matrix into user and item latent factors
// following Hu, Koren, Volinsky, "Collaborative Filtering for Implicit
// Feedback Datasets" (2008). Preference is binary (observed = 1) and each
// observation carries confidence 1 + alpha*rating.
//
// The solver alternates: with item factors fixed, every user row has an
// independent closed-form solution, and symmetrically for items. Rows
// within one phase are solved in parallel; a phase only starts after the
// previous one has fully finished.
type ALS struct {
	config ALSConfig
	logger *logrus.Logger
}

func NewALS(config ALSConfig, logger *logrus.Logger) *ALS {
	if config.Factors <= 0 {
		config.Factors = DefaultALSConfig().Factors
	}
	if config.Iterations <= 0 {
		config.Iterations = DefaultALSConfig().Iterations
	}
	return &ALS{config: config, logger: logger}
}

// Factorize runs the fixed number of alternating iterations and returns
// user factors U (m×f) and item factors V (n×f). Row counts match the
// encoder sizes of r exactly. The context is checked between iterations;
// on cancellation the partial factors are discarded.
func (a *ALS) Factorize(ctx context.Context, r *RatingMatrix) (*mat.Dense, *mat.Dense, error) {
	m, n := r.NumUsers(), r.NumItems()
	if m == 0 || n == 0 {
		return nil, nil, ErrInsufficientTrainingData
	}

	seed := a.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	f := a.config.Factors
	userFactors := mat.NewDense(m, f, randomNormal(rng, m*f, 0.01))
	itemFactors := mat.NewDense(n, f, randomNormal(rng, n*f, 0.01))

	rt := r.Transpose()

	a.logger.WithFields(logrus.Fields{
		"users":      m,
		"items":      n,
		"observed":   r.NNZ(),
		"factors":    f,
		"iterations": a.config.Iterations,
	}).Info("Starting ALS factorization")

	start := time.Now()
	for iter := 0; iter < a.config.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("als cancelled at iteration %d: %w", iter, err)
		}
		// User phase: V fixed, solve every row of U.
		if err := a.solvePhase(ctx, r, userFactors, itemFactors); err != nil {
			return nil, nil, err
		}
		// Item phase: U fixed, solve every row of V. Must not start
		// before the user phase has completed; solvePhase only returns
		// once all its rows are done.
		if err := a.solvePhase(ctx, rt, itemFactors, userFactors); err != nil {
			return nil, nil, err
		}

		if (iter+1)%5 == 0 {
			a.logger.WithFields(logrus.Fields{
				"iteration": iter + 1,
				"elapsed":   time.Since(start).Round(time.Millisecond),
			}).Debug("ALS iteration complete")
		}
	}

	return userFactors, itemFactors, nil
}

// solvePhase updates every row of X given fixed Y, where cui is the
// rating matrix oriented so that cui.Row(u) lists the observations of row
// u of X. Each row solve is
//
//	x_u = (YᵗY + Σ (c_ui−1) y_i y_iᵗ + λI)⁻¹ · Σ c_ui y_i
//
// exploiting that only observed entries contribute beyond the shared
// YᵗY + λI base. Rows are independent and fan out across the available
// cores.
func (a *ALS) solvePhase(ctx context.Context, cui *RatingMatrix, x, y *mat.Dense) error {
	f := a.config.Factors

	base := mat.NewSymDense(f, nil)
	base.SymOuterK(1, y.T())
	for i := 0; i < f; i++ {
		base.SetSym(i, i, base.At(i, i)+a.config.Regularization)
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	rows := cui.NumUsers()
	for u := 0; u < rows; u++ {
		u := u
		g.Go(func() error {
			cols, ratings := cui.Row(u)
			if len(cols) == 0 {
				// Post-filter input should never produce an empty
				// row; leave the random initialization in place.
				return nil
			}

			A := mat.NewSymDense(f, nil)
			A.CopySym(base)
			b := mat.NewVecDense(f, nil)

			for k, i := range cols {
				confidence := 1 + a.config.Alpha*ratings[k]
				yi := y.RowView(i)
				A.SymRankOne(A, confidence-1, yi)
				b.AddScaledVec(b, confidence, yi)
			}

			var chol mat.Cholesky
			if ok := chol.Factorize(A); !ok {
				return fmt.Errorf("%w: row %d", ErrSingularSystem, u)
			}
			xu := mat.NewVecDense(f, nil)
			if err := chol.SolveVecTo(xu, b); err != nil {
				return fmt.Errorf("%w: row %d: %v", ErrSingularSystem, u, err)
			}
			x.SetRow(u, xu.RawVector().Data)
			return nil
		})
	}

	return g.Wait()
}

func randomNormal(rng *rand.Rand, n int, stddev float64) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.NormFloat64() * stddev
	}
	return data
}
