package eventing

import (
	"context"
	"testing"
)

type captureOutbox struct {
	appended []Envelope
	err      error
}

func (c *captureOutbox) Append(_ context.Context, env Envelope) error {
	if c.err != nil {
		return c.err
	}
	c.appended = append(c.appended, env)
	return nil
}

type captureDirect struct {
	published []Envelope
	err       error
}

func (c *captureDirect) PublishDirect(_ context.Context, env Envelope) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, env)
	return nil
}

func TestBus_DefaultModeGoesToOutbox(t *testing.T) {
	t.Parallel()

	ob := &captureOutbox{}
	dp := &captureDirect{}
	bus := NewBus(ob, dp)

	env, err := NewEnvelope(KindDocumentRequested, DocumentRequested{URI: "http://x/venues/1"}, "corr-1", "")
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if err := bus.Publish(context.Background(), env); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(ob.appended) != 1 || len(dp.published) != 0 {
		t.Fatalf("default mode must hit the outbox only: outbox=%d direct=%d", len(ob.appended), len(dp.published))
	}
}

func TestBus_DirectScopeBypassesOutbox(t *testing.T) {
	t.Parallel()

	ob := &captureOutbox{}
	dp := &captureDirect{}
	bus := NewBus(ob, dp)

	env, _ := NewEnvelope(KindProcessImageRequest, ProcessImageRequest{URL: "http://x/i.png"}, "corr-2", "cause-1")
	ctx := WithDirect(context.Background())
	if err := bus.Publish(ctx, env); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(dp.published) != 1 || len(ob.appended) != 0 {
		t.Fatalf("direct mode must bypass the outbox: outbox=%d direct=%d", len(ob.appended), len(dp.published))
	}
}

func TestBus_MissingSeamsAreConfigErrors(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil, nil)
	env, _ := NewEnvelope(KindDocumentRequested, DocumentRequested{}, "c", "")

	if err := bus.Publish(context.Background(), env); err == nil {
		t.Fatalf("expected error with no outbox configured")
	}
	if err := bus.Publish(WithDirect(context.Background()), env); err == nil {
		t.Fatalf("expected error with no direct publisher configured")
	}
}

func TestBus_PublishBatchStopsOnFirstError(t *testing.T) {
	t.Parallel()

	ob := &captureOutbox{}
	bus := NewBus(ob, nil)

	a, _ := NewEnvelope(KindDocumentRequested, DocumentRequested{URI: "a"}, "c", "")
	b, _ := NewEnvelope(KindDocumentRequested, DocumentRequested{URI: "b"}, "c", "")
	if err := bus.PublishBatch(context.Background(), []Envelope{a, b}); err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	if len(ob.appended) != 2 {
		t.Fatalf("expected 2 appends, got %d", len(ob.appended))
	}
}

func TestModeFrom_Default(t *testing.T) {
	t.Parallel()

	if ModeFrom(context.Background()) != DeliveryOutbox {
		t.Fatalf("default delivery mode must be outbox")
	}
	if ModeFrom(WithDirect(context.Background())) != DeliveryDirect {
		t.Fatalf("WithDirect not honored")
	}
}
