package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/config"
	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/internal/storage"
	"github.com/explora/recsys/pkg/models"
)

// Retraining coordinator states.
const (
	StateIdle          = "idle"
	StatePreprocessing = "preprocessing"
	StateTraining      = "training"
	StatePublishing    = "publishing"
)

// TrainingService rebuilds the model from the interaction history and
// publishes it. Exactly one run can be active; while it runs, serving
// continues against the previously published snapshot, and any failure
// returns the coordinator to idle with that snapshot untouched.
type TrainingService struct {
	interactions storage.InteractionStore
	modelRef     *recommender.ModelRef
	cache        ResultCache
	aggregator   *recommender.Aggregator
	als          *recommender.ALS
	config       *config.RecommendationConfig
	logger       *logrus.Logger
	metrics      *MetricsCollector

	mu          sync.Mutex
	state       string
	lastMetrics *models.TrainingMetrics

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewTrainingService(
	interactions storage.InteractionStore,
	modelRef *recommender.ModelRef,
	cache ResultCache,
	cfg *config.RecommendationConfig,
	logger *logrus.Logger,
	metrics *MetricsCollector,
) *TrainingService {
	return &TrainingService{
		interactions: interactions,
		modelRef:     modelRef,
		cache:        cache,
		aggregator: recommender.NewAggregator(recommender.AggregatorConfig{
			MinUserInteractions: cfg.Training.MinUserInteractions,
			MinItemInteractions: cfg.Training.MinItemInteractions,
		}, logger),
		als: recommender.NewALS(recommender.ALSConfig{
			Factors:        cfg.ALS.Factors,
			Regularization: cfg.ALS.Regularization,
			Iterations:     cfg.ALS.Iterations,
			Alpha:          cfg.ALS.Alpha,
			Seed:           cfg.ALS.Seed,
		}, logger),
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		state:   StateIdle,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Train runs the full pipeline synchronously: scan, aggregate, factorize,
// publish, flush. A second trigger while a run is active is rejected with
// ErrRetrainInProgress rather than queued.
func (t *TrainingService) Train(ctx context.Context) (*models.TrainingMetrics, error) {
	if !t.transition(StateIdle, StatePreprocessing) {
		return nil, recommender.ErrRetrainInProgress
	}
	return t.execute(ctx)
}

// Trigger kicks off a training run in the background. The in-progress
// check happens synchronously so callers can answer 409 immediately.
func (t *TrainingService) Trigger() error {
	if !t.transition(StateIdle, StatePreprocessing) {
		return recommender.ErrRetrainInProgress
	}
	go func() {
		_, _ = t.execute(context.Background())
	}()
	return nil
}

func (t *TrainingService) execute(ctx context.Context) (*models.TrainingMetrics, error) {
	defer t.setState(StateIdle)

	start := time.Now()
	metrics, err := t.run(ctx, start)
	if err != nil {
		t.metrics.RecordTrainingRun("failed", time.Since(start))
		t.logger.WithError(err).Error("Training run failed; previous model stays active")
		return nil, err
	}

	t.metrics.RecordTrainingRun("completed", time.Since(start))
	t.mu.Lock()
	t.lastMetrics = metrics
	t.mu.Unlock()
	return metrics, nil
}

func (t *TrainingService) run(ctx context.Context, start time.Time) (*models.TrainingMetrics, error) {
	history, err := t.interactions.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan interaction store: %w", err)
	}

	pairs, err := t.aggregator.Aggregate(history)
	if err != nil {
		return nil, err
	}

	trainPairs, holdout := t.split(pairs)
	matrix, err := recommender.BuildMatrix(trainPairs)
	if err != nil {
		return nil, err
	}

	t.setState(StateTraining)
	userFactors, itemFactors, err := t.als.Factorize(ctx, matrix)
	if err != nil {
		return nil, err
	}

	metrics := models.TrainingMetrics{
		TrainedAt:  time.Now().UTC(),
		NumUsers:   matrix.NumUsers(),
		NumItems:   matrix.NumItems(),
		NumRatings: matrix.NNZ(),
	}

	// Hit-rate needs a scoreable snapshot; build a provisional one, then
	// seal the final snapshot with the complete metadata.
	provisional, err := recommender.NewSnapshot(matrix.Users, matrix.Items, userFactors, itemFactors, metrics)
	if err != nil {
		return nil, err
	}
	if len(holdout) > 0 {
		metrics.HitRate = recommender.EvaluateHitRate(provisional, matrix, holdout, t.config.Training.EvalK)
	}
	metrics.TrainDuration = time.Since(start).Seconds()

	snapshot, err := recommender.NewSnapshot(matrix.Users, matrix.Items, userFactors, itemFactors, metrics)
	if err != nil {
		return nil, err
	}

	t.setState(StatePublishing)

	// Persistence is best effort: a disk failure should not discard a
	// healthy in-memory model. The swap below is the real publication.
	if path := t.config.Training.SnapshotPath; path != "" {
		if err := snapshot.Save(path); err != nil {
			t.logger.WithError(err).Warn("Snapshot persistence failed; continuing with in-memory publish")
		}
	}

	// Order matters: swap the snapshot first, then flush. A reader
	// between the two steps recomputes against the new model; the
	// reverse order could re-cache results from the old one.
	t.modelRef.Publish(snapshot)
	if err := t.cache.FlushAll(ctx); err != nil {
		t.logger.WithError(err).Warn("Cache flush after publish failed; stale entries will expire via TTL")
	}

	t.metrics.RecordSnapshot(metrics.NumUsers, metrics.NumItems)
	t.logger.WithFields(logrus.Fields{
		"users":    metrics.NumUsers,
		"items":    metrics.NumItems,
		"ratings":  metrics.NumRatings,
		"hit_rate": metrics.HitRate,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("New model snapshot published")

	return &metrics, nil
}

// split carves off the evaluation holdout. Small datasets train on
// everything; hit-rate is then reported as 0 rather than measured on a
// meaningless handful of pairs.
func (t *TrainingService) split(pairs []recommender.RatedPair) (train, holdout []recommender.RatedPair) {
	frac := t.config.Training.HoldoutFraction
	if frac <= 0 || len(pairs) < t.config.Training.MinPairsForHoldout {
		return pairs, nil
	}

	seed := t.config.ALS.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	shuffled := make([]recommender.RatedPair, len(pairs))
	copy(shuffled, pairs)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(float64(len(shuffled)) * frac)
	return shuffled[cut:], shuffled[:cut]
}

// Status reports the coordinator state and the metadata of the last
// successful run.
func (t *TrainingService) Status() models.TrainingStatusResponse {
	t.mu.Lock()
	defer t.mu.Unlock()

	resp := models.TrainingStatusResponse{State: t.state}
	if t.lastMetrics != nil {
		m := *t.lastMetrics
		resp.Metrics = &m
		resp.LastTrainedAt = &m.TrainedAt
	}

	// A restarted process serves a restored snapshot before any run has
	// completed in this process; report its metadata.
	if resp.Metrics == nil {
		if snapshot := t.modelRef.Active(); snapshot != nil {
			m := snapshot.Metrics()
			resp.Metrics = &m
			resp.LastTrainedAt = &m.TrainedAt
		}
	}
	return resp
}

// Start launches the periodic retraining loop.
func (t *TrainingService) Start() {
	interval := t.config.Training.RetrainInterval
	if interval <= 0 {
		close(t.done)
		return
	}

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := t.Train(context.Background()); err != nil && err != recommender.ErrRetrainInProgress {
					t.logger.WithError(err).Warn("Scheduled retrain failed")
				}
			case <-t.stop:
				return
			}
		}
	}()
}

// Stop halts the schedule; an in-flight run finishes on its own.
func (t *TrainingService) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

func (t *TrainingService) transition(from, to string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != from {
		return false
	}
	t.state = to
	return true
}

func (t *TrainingService) setState(state string) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}
