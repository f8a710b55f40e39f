package collector

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	domain "xfrost/internal/domain"
)

// Collector is the domain.Collector implementation: concurrent mode uses
// errgroup.Group to fan fetches/dispatches out, bounded by ctx's deadline;
// sequential mode runs each in turn for deterministic test timing
// (spec.md §4.7's "sequential mode as the default for testability").
type Collector struct{}

var _ domain.Collector = Collector{}

// New returns a ready-to-use Collector.
func New() Collector { return Collector{} }

// Collect fetches every request's envelope, classifying each as success,
// rejected, errored, or timed-out without aborting the overall collection
// (spec.md §4.7, §7's "per-message validation errors are recoverable at
// the per-participant level").
func (Collector) Collect(ctx context.Context, kv domain.KvStore, reqs []domain.ParticipantRequest, parallel bool, validate domain.ValidateFunc) domain.CollectionResult {
	deadline, _ := ctx.Deadline()
	outcomes := make([]domain.CollectionOutcome, len(reqs))

	fetch := func(i int) {
		req := reqs[i]
		envelope, err := kv.Get(ctx, req.CollectARID, deadline)
		switch {
		case err != nil:
			outcomes[i] = domain.CollectionOutcome{Participant: req.Participant, Err: err}
		case envelope == nil:
			outcomes[i] = domain.CollectionOutcome{Participant: req.Participant, TimedOut: true}
		default:
			rejected, verr := validate(req.Participant, envelope)
			outcomes[i] = domain.CollectionOutcome{
				Participant: req.Participant,
				Envelope:    envelope,
				Err:         verr,
				Rejected:    rejected,
			}
		}
	}

	if parallel {
		var g errgroup.Group
		for i := range reqs {
			i := i
			g.Go(func() error {
				fetch(i)
				return nil
			})
		}
		_ = g.Wait() // fetch never returns an error; outcomes already record per-participant failures
	} else {
		for i := range reqs {
			fetch(i)
		}
	}

	return classify(outcomes, ctx.Err() != nil)
}

// Dispatch posts every message, returning the per-recipient error (nil on
// success) without letting one failed post abort the others.
func (Collector) Dispatch(ctx context.Context, kv domain.KvStore, msgs []domain.DispatchMessage, parallel bool) map[domain.XID]error {
	results := make(map[domain.XID]error, len(msgs))
	var mu sync.Mutex

	post := func(m domain.DispatchMessage) {
		err := kv.Put(ctx, m.SendARID, m.Envelope)
		mu.Lock()
		results[m.Recipient] = err
		mu.Unlock()
	}

	if parallel {
		var wg sync.WaitGroup
		wg.Add(len(msgs))
		for _, m := range msgs {
			m := m
			go func() {
				defer wg.Done()
				post(m)
			}()
		}
		wg.Wait()
	} else {
		for _, m := range msgs {
			post(m)
		}
	}
	return results
}

func classify(outcomes []domain.CollectionOutcome, cancelled bool) domain.CollectionResult {
	var res domain.CollectionResult
	res.Cancelled = cancelled
	for _, o := range outcomes {
		switch {
		case o.TimedOut:
			res.TimedOut = append(res.TimedOut, o)
		case o.Err != nil:
			res.Errors = append(res.Errors, o)
		case o.Rejected:
			res.Rejected = append(res.Rejected, o)
		default:
			res.Successes = append(res.Successes, o)
		}
	}
	return res
}
