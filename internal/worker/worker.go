package worker

import (
	"context"
	"errors"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/github"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Store is the deck persistence the worker needs.
type Store interface {
	Get(ctx context.Context, id string) (*deck.Deck, error)
	MergeDeploy(ctx context.Context, id string, slot deck.DeploySlot, data deck.DeployData) error
	MergeMeta(ctx context.Context, id string, meta deck.DeckMeta) error
}

// Uploader stores a rendered page and returns its public URL.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, p github.Payload) error
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

const writeTimeout = 10 * time.Second

type Options struct {
	Concurrency int
	PollTimeout time.Duration
	MaxAttempts int
}

// Worker consumes publish jobs and records their outcome in the deck's deploy slot.
type Worker struct {
	queue  queue.Queue
	store  Store
	site   Uploader
	github Dispatcher
	auth   Authenticator
	opts   Options
	now    func() time.Time
}

// New builds a worker. site, gh and auth may be nil; jobs needing a missing
// collaborator fail without retry.
func New(q queue.Queue, store Store, site Uploader, gh Dispatcher, auth Authenticator, opts Options) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	return &Worker{
		queue:  q,
		store:  store,
		site:   site,
		github: gh,
		auth:   auth,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run polls the queue with Concurrency consumers until ctx is cancelled.
// It returns nil on cancellation and the first queue error otherwise.
func (w *Worker) Run(ctx context.Context) error {
	logger.Infof("worker: started concurrency=%d poll=%s max_attempts=%d", w.opts.Concurrency, w.opts.PollTimeout, w.opts.MaxAttempts)
	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.opts.Concurrency; i++ {
		eg.Go(func() error { return w.loop(egCtx) })
	}
	err := eg.Wait()
	if ctx.Err() != nil {
		logger.Infof("worker: stopped")
		return nil
	}
	return err
}

func (w *Worker) loop(ctx context.Context) error {
	for {
		t, err := w.queue.Dequeue(ctx, w.opts.PollTimeout)
		switch {
		case err == nil:
			w.Process(ctx, t)
		case errors.Is(err, queue.ErrEmpty):
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			logger.Errorf("worker: dequeue: %v", err)
			return err
		}
	}
}

// Process runs one job and writes its terminal status, or re-enqueues it when
// the failure is transient and attempts remain.
func (w *Worker) Process(ctx context.Context, t queue.Task) {
	log := logger.With("taskId", t.ID, "deckId", t.DeckID, "type", t.Type, "attempt", t.Attempts+1)

	var slot deck.DeploySlot
	var run func(context.Context, queue.Task) error
	switch t.Type {
	case queue.TypePublishDeck:
		slot, run = deck.SlotAPI, w.publishDeck
	case queue.TypePushGitHub:
		slot, run = deck.SlotGitHub, w.pushGitHub
	default:
		log.Warnw("unknown job type, dropped")
		metrics.TasksProcessed.WithLabelValues(string(t.Type), "dropped").Inc()
		return
	}

	err := run(ctx, t)

	// Writes after the job must land even when ctx was cancelled mid-job.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err == nil {
		w.finish(wctx, t, slot, deck.DeployStatusSuccessful)
		log.Infow("job done")
		return
	}

	if ctx.Err() != nil {
		// Interrupted by shutdown: hand the job back untouched, the attempt does not count.
		if qerr := w.queue.Enqueue(wctx, t); qerr != nil {
			log.Errorw("job interrupted and could not be re-enqueued", "error", qerr)
			return
		}
		metrics.TasksProcessed.WithLabelValues(string(t.Type), "interrupted").Inc()
		log.Warnw("job interrupted by shutdown, re-enqueued", "error", err)
		return
	}

	if !isPermanent(err) && t.Attempts+1 < w.opts.MaxAttempts {
		retry := t
		retry.Attempts++
		qerr := w.queue.Enqueue(wctx, retry)
		if qerr == nil {
			metrics.TasksProcessed.WithLabelValues(string(t.Type), "retried").Inc()
			log.Warnw("job failed, retrying", "error", err)
			return
		}
		log.Errorw("re-enqueue failed", "error", qerr)
	}
	log.Errorw("job failed", "error", err)
	w.finish(wctx, t, slot, deck.DeployStatusFailure)
}

func (w *Worker) finish(ctx context.Context, t queue.Task, slot deck.DeploySlot, status deck.DeployStatus) {
	metrics.TasksProcessed.WithLabelValues(string(t.Type), string(status)).Inc()
	if err := w.store.MergeDeploy(ctx, t.DeckID, slot, deck.DeployData{Status: status, UpdatedAt: w.now()}); err != nil {
		logger.Errorf("worker: write %s status for %s: %v", slot, t.DeckID, err)
	}
}
