package eventing

import "context"

// JobSink enqueues one background job. jobs.Queue satisfies it; the
// indirection keeps this package from importing the queue.
type JobSink interface {
	Enqueue(ctx context.Context, kind string, payload any, correlationID string) (string, error)
}

// QueueKind maps an envelope kind the job worker consumes to the job kind
// registered for it. Event kinds meant for external subscribers map to
// nothing and stay on the broker path.
func QueueKind(kind string) (string, bool) {
	switch kind {
	case KindDocumentRequested, KindDispatchDocument:
		return KindDispatchDocument, true
	case KindProcessResourceItem:
		return KindProcessResourceItem, true
	case KindProcessImageRequest:
		return KindProcessImageRequest, true
	default:
		return "", false
	}
}

// QueueRouted wraps next so worker-consumed kinds land on the background
// job queue instead of the broker. Bind the sink to the caller's queryer
// so job rows commit together with the publishing transaction.
func QueueRouted(next Publisher, sink JobSink) Publisher {
	return queueRouter{next: next, sink: sink}
}

type queueRouter struct {
	next Publisher
	sink JobSink
}

func (r queueRouter) Publish(ctx context.Context, env Envelope) error {
	kind, ok := QueueKind(env.Kind)
	if !ok || r.sink == nil {
		return r.next.Publish(ctx, env)
	}
	_, err := r.sink.Enqueue(ctx, kind, env.Payload, env.CorrelationID)
	return err
}

func (r queueRouter) PublishBatch(ctx context.Context, envs []Envelope) error {
	for _, env := range envs {
		if err := r.Publish(ctx, env); err != nil {
			return err
		}
	}
	return nil
}
