package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Boost Job Types
// ---------------------------------------------------------------------------

// BoostJobStatus represents the status of a boost rotation job
type BoostJobStatus string

const (
	BoostJobStatusPending BoostJobStatus = "PENDING"
	BoostJobStatusRunning BoostJobStatus = "RUNNING"
	BoostJobStatusSuccess BoostJobStatus = "SUCCESS"
	BoostJobStatusPartial BoostJobStatus = "PARTIAL"
	BoostJobStatusSkipped BoostJobStatus = "SKIPPED"
	BoostJobStatusFailed  BoostJobStatus = "FAILED"
)

// BoostJob represents one boost rotation run for a single shop
type BoostJob struct {
	ID                uuid.UUID
	ShopID            uuid.UUID
	MarketplaceShopID int64
	Status            BoostJobStatus
	Error             string
	StartedAt         *time.Time
	CompletedAt       *time.Time
	RetryCount        int
	MaxRetries        int
	NextRetryAt       *time.Time

	// Rotation results
	SelectedCount int
	AcceptedCount int
	FailedCount   int
	FailedItemIDs []int64
}

// NewBoostJob creates a new boost rotation job for a shop
func NewBoostJob(shopID uuid.UUID, marketplaceShopID int64, maxRetries int) *BoostJob {
	return &BoostJob{
		ID:                uuid.New(),
		ShopID:            shopID,
		MarketplaceShopID: marketplaceShopID,
		Status:            BoostJobStatusPending,
		MaxRetries:        maxRetries,
	}
}

// Start marks the job as running
func (j *BoostJob) Start() {
	now := time.Now()
	j.Status = BoostJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records rotation results and derives the final status
func (j *BoostJob) Complete(selected, accepted, failed int) {
	now := time.Now()
	j.SelectedCount = selected
	j.AcceptedCount = accepted
	j.FailedCount = failed
	j.CompletedAt = &now

	switch {
	case selected == 0:
		j.Status = BoostJobStatusSkipped
	case failed == 0:
		j.Status = BoostJobStatusSuccess
	case accepted > 0:
		j.Status = BoostJobStatusPartial
	default:
		j.Status = BoostJobStatusFailed
	}
}

// Fail marks the job as failed
func (j *BoostJob) Fail(err string) {
	now := time.Now()
	j.Status = BoostJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *BoostJob) ShouldRetry() bool {
	return j.Status == BoostJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *BoostJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = BoostJobStatusPending
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// ---------------------------------------------------------------------------
// BoostExecutor Interface
// ---------------------------------------------------------------------------

// BoostExecutor executes a boost rotation job for a single shop
type BoostExecutor interface {
	Execute(ctx context.Context, job *BoostJob) error
}

// BoostExecutorFunc adapts a function to the BoostExecutor interface
type BoostExecutorFunc func(ctx context.Context, job *BoostJob) error

// Execute implements BoostExecutor
func (f BoostExecutorFunc) Execute(ctx context.Context, job *BoostJob) error {
	return f(ctx, job)
}

// ---------------------------------------------------------------------------
// BoostSchedulerConfig
// ---------------------------------------------------------------------------

// BoostSchedulerConfig holds configuration for the boost rotation scheduler
type BoostSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// MaxConcurrentJobs is the maximum number of shops boosted concurrently
	MaxConcurrentJobs int
	// JobTimeout is the maximum time one shop rotation can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// RotationInterval is how often rotation runs across all shops
	RotationInterval time.Duration
}

// DefaultBoostSchedulerConfig returns default configuration
func DefaultBoostSchedulerConfig() BoostSchedulerConfig {
	return BoostSchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     2,
		RetryDelay:        1 * time.Minute,
		RotationInterval:  4 * time.Hour,
	}
}

// Validate validates the configuration
func (c *BoostSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.RotationInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// BoostScheduler
// ---------------------------------------------------------------------------

// BoostScheduler manages boost rotation jobs across shops
type BoostScheduler struct {
	config   BoostSchedulerConfig
	executor BoostExecutor
	logger   *zap.Logger

	jobs      chan *BoostJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*BoostJob
	maxHistory int
}

// NewBoostScheduler creates a new boost rotation scheduler
func NewBoostScheduler(config BoostSchedulerConfig, executor BoostExecutor, logger *zap.Logger) (*BoostScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &BoostScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		jobs:       make(chan *BoostJob, 100),
		history:    make([]*BoostJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the scheduler
func (s *BoostScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Start worker pool
	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Boost scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Duration("rotation_interval", s.config.RotationInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *BoostScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Close job channel
	close(s.jobs)

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Boost scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Boost scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution
func (s *BoostScheduler) SubmitJob(job *BoostJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Boost job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("shop_id", job.ShopID.String()),
			zap.Int64("marketplace_shop_id", job.MarketplaceShopID),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleShop schedules a boost rotation job for one shop
func (s *BoostScheduler) ScheduleShop(shopID uuid.UUID, marketplaceShopID int64) error {
	job := NewBoostJob(shopID, marketplaceShopID, s.config.RetryAttempts)
	return s.SubmitJob(job)
}

// worker processes jobs from the queue
func (s *BoostScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Boost worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Boost worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Boost job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *BoostScheduler) processJob(ctx context.Context, job *BoostJob, workerID int) {
	// Check if job is ready to run (for retries)
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		// Re-queue the job
		select {
		case s.jobs <- job:
		default:
			s.logger.Warn("Failed to re-queue boost job for retry",
				zap.String("job_id", job.ID.String()),
			)
		}
		return
	}

	job.Start()
	s.logger.Info("Processing boost job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("shop_id", job.ShopID.String()),
		zap.Int64("marketplace_shop_id", job.MarketplaceShopID),
	)

	// Create context with timeout
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	// Execute the job
	err := s.executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Boost job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("shop_id", job.ShopID.String()),
			zap.Error(err),
		)

		// Check if should retry
		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Boost job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			// Re-submit job
			select {
			case s.jobs <- job:
			default:
				s.logger.Warn("Failed to re-queue boost job for retry",
					zap.String("job_id", job.ID.String()),
				)
			}
		}

		s.addToHistory(job)
		return
	}

	s.logger.Info("Boost job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("shop_id", job.ShopID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("selected_count", job.SelectedCount),
		zap.Int("accepted_count", job.AcceptedCount),
		zap.Int("failed_count", job.FailedCount),
	)

	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *BoostScheduler) addToHistory(job *BoostJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*BoostJob{job}, s.history...)

	// Trim if over limit
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history
func (s *BoostScheduler) GetJobHistory(limit int) []*BoostJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*BoostJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByShop returns job history for a specific shop
func (s *BoostScheduler) GetJobHistoryByShop(shopID uuid.UUID, limit int) []*BoostJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*BoostJob, 0, limit)
	for _, job := range s.history {
		if job.ShopID == shopID {
			result = append(result, job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}
