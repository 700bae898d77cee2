package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-reports/internal/domain/events"
	"event-reports/internal/metrics"
	"event-reports/internal/platform/logger"

	"github.com/google/uuid"
)

const (
	DefaultStageTimeout = 2 * time.Minute
	DefaultWorkers      = 4
	DefaultQueueSize    = 64
)

type Options struct {
	Events   EventSource
	Archiver Archiver
	Notifier Notifier
	Jobs     JobStore
	Log      logger.Logger

	// MaxRows acota cada reporte (0 = sin tope).
	MaxRows      int
	StageTimeout time.Duration
	Workers      int
	QueueSize    int
}

// Orchestrator es el único dueño de las transiciones de un Job y de la vida de su artefacto.
type Orchestrator struct {
	events   EventSource
	archiver Archiver
	notifier Notifier
	jobs     JobStore
	log      logger.Logger

	maxRows      int
	stageTimeout time.Duration

	pool   *workerPool[Job]
	cancel context.CancelFunc
	now    func() time.Time
}

func NewOrchestrator(opts Options) *Orchestrator {
	timeout := opts.StageTimeout
	if timeout <= 0 {
		timeout = DefaultStageTimeout
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	o := &Orchestrator{
		events:       opts.Events,
		archiver:     opts.Archiver,
		notifier:     opts.Notifier,
		jobs:         opts.Jobs,
		log:          logger.OrNop(opts.Log).With(map[string]any{"component": "reports"}),
		maxRows:      opts.MaxRows,
		stageTimeout: timeout,
		now:          time.Now,
	}

	// Los jobs viven fuera del ciclo request/response: contexto propio.
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.pool = newWorkerPool(ctx, workers, size, func(ctx context.Context, job Job) {
		metrics.ReportQueueDepth.Set(float64(o.pool.QueueLen()))
		_, _ = o.Run(ctx, job)
	})
	return o
}

// Submit valida el destinatario, registra el job como pending y lo encola.
// Retorna sin esperar al pipeline. No deduplica.
func (o *Orchestrator) Submit(ctx context.Context, recipient string, filter events.Filter) (Job, error) {
	recipient, err := ValidateRecipient(recipient)
	if err != nil {
		return Job{}, err
	}

	job, err := o.create(ctx, recipient, filter)
	if err != nil {
		return Job{}, err
	}

	if !o.pool.Submit(job) {
		metrics.ReportJobs.WithLabelValues("rejected").Inc()
		job, _ = o.fail(ctx, job, StatusPending, ErrQueueFull)
		return job, ErrQueueFull
	}
	metrics.ReportQueueDepth.Set(float64(o.pool.QueueLen()))

	o.log.Info("report job accepted", map[string]any{"job_id": job.ID})
	return job, nil
}

// RunNow registra el job y corre el pipeline en el goroutine llamador, sin pasar por la cola.
// Un recipient vacío no se valida: queda a cargo del Notifier.
func (o *Orchestrator) RunNow(ctx context.Context, recipient string, filter events.Filter) (Job, error) {
	if recipient != "" {
		r, err := ValidateRecipient(recipient)
		if err != nil {
			return Job{}, err
		}
		recipient = r
	}

	job, err := o.create(ctx, recipient, filter)
	if err != nil {
		return Job{}, err
	}
	return o.Run(ctx, job)
}

func (o *Orchestrator) create(ctx context.Context, recipient string, filter events.Filter) (Job, error) {
	now := o.now().UTC()
	job := Job{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Filter:    filter.Capped(o.maxRows),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.jobs.Save(ctx, job); err != nil {
		return Job{}, fmt.Errorf("save job: %w", err)
	}
	return job, nil
}

func (o *Orchestrator) Get(ctx context.Context, id string) (Job, error) {
	return o.jobs.Get(ctx, id)
}

// Shutdown deja de aceptar jobs y espera a que terminen los encolados.
func (o *Orchestrator) Shutdown() {
	o.pool.Drain()
	o.cancel()
}

// Run ejecuta el pipeline completo de un job de forma sincrónica:
// generating -> archiving -> delivering -> complete. Cualquier error deja el job en failed.
func (o *Orchestrator) Run(ctx context.Context, job Job) (Job, error) {
	log := o.log.With(map[string]any{"job_id": job.ID})

	// El cursor del store vive a través de generating y archiving; el timeout
	// de cada etapa lo corta vía AfterFunc.
	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()

	var stream *CSVStream
	defer func() {
		if stream != nil {
			_ = stream.Close()
		}
	}()

	job, err := o.stage(ctx, job, StatusGenerating, func(stageCtx context.Context) error {
		stop := context.AfterFunc(stageCtx, cancelStream)
		defer stop()

		stream = EncodeCSV(o.events.Stream(streamCtx, job.Filter.Capped(o.maxRows)))
		if err := stream.Prime(); err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		return nil
	})
	if err != nil {
		return job, err
	}

	var archive Archive
	job, err = o.stage(ctx, job, StatusArchiving, func(stageCtx context.Context) error {
		stop := context.AfterFunc(stageCtx, cancelStream)
		defer stop()

		a, err := o.archiver.Archive(stageCtx, job.ID, stream)
		if err != nil {
			return err
		}
		archive = a
		return nil
	})
	if err != nil {
		return job, err
	}

	job.ArtifactPath = archive.Path
	job.ArchiveURL = archive.URL
	job.Rows = stream.Rows()
	metrics.ExportRows.WithLabelValues("report").Add(float64(job.Rows))

	job, err = o.stage(ctx, job, StatusDelivering, func(stageCtx context.Context) error {
		return o.notifier.Notify(stageCtx, job.Recipient, archive.URL)
	})
	if err != nil {
		// El destinatario nunca recibió el link: retirar el archive.
		if derr := o.archiver.Discard(context.WithoutCancel(ctx), archive); derr != nil {
			log.Warn("discard archive failed", map[string]any{"err": derr, "archive": archive.Name})
		}
		return job, err
	}

	if err := job.transition(StatusComplete, o.now().UTC()); err != nil {
		return job, err
	}
	o.save(ctx, job)
	metrics.ReportJobs.WithLabelValues(string(StatusComplete)).Inc()

	log.Info("report job complete", map[string]any{
		"rows":    job.Rows,
		"archive": archive.Name,
	})
	return job, nil
}

// stage entra al estado to, corre fn con su propio timeout y registra el resultado.
func (o *Orchestrator) stage(ctx context.Context, job Job, to Status, fn func(context.Context) error) (Job, error) {
	if err := job.transition(to, o.now().UTC()); err != nil {
		return job, err
	}
	o.save(ctx, job)

	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	start := time.Now()
	err := fn(stageCtx)
	if err == nil && stageCtx.Err() != nil {
		err = stageCtx.Err()
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ReportStageDuration.WithLabelValues(string(to), result).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %s: %w", to, o.stageTimeout, err)
		}
		return o.fail(ctx, job, to, err)
	}
	return job, nil
}

func (o *Orchestrator) fail(ctx context.Context, job Job, stage Status, cause error) (Job, error) {
	if err := job.transition(StatusFailed, o.now().UTC()); err != nil {
		return job, errors.Join(cause, err)
	}
	job.Error = cause.Error()
	o.save(ctx, job)

	metrics.ReportJobs.WithLabelValues(string(StatusFailed)).Inc()
	o.log.Error("report job failed", map[string]any{
		"job_id": job.ID,
		"stage":  string(stage),
		"err":    cause,
	})
	return job, cause
}

// save no corta el pipeline: el snapshot es informativo.
func (o *Orchestrator) save(ctx context.Context, job Job) {
	if err := o.jobs.Save(context.WithoutCancel(ctx), job); err != nil {
		o.log.Warn("save job snapshot failed", map[string]any{
			"job_id": job.ID,
			"status": string(job.Status),
			"err":    err,
		})
	}
}
