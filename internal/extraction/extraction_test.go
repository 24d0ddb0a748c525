package extraction

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"remitapi/internal/model"
)

type stubExtractor struct {
	fn func(ctx context.Context, text string) (Output, error)
}

func (s stubExtractor) Extract(ctx context.Context, text string, _ model.TemplateSchema) (Output, error) {
	return s.fn(ctx, text)
}

func payloadWith(claim string) model.ClaimPayload {
	p := model.DefaultSchema().EmptyPayload()
	p.Set(model.FieldClaimNumber, claim)
	return p
}

func TestOrchestrator_CollaboratorSuccess(t *testing.T) {
	var sources []model.ExtractionSource
	o := New(stubExtractor{fn: func(context.Context, string) (Output, error) {
		p := payloadWith("A12345678")
		p.Sections = append(p.Sections, model.PayloadSection{DataKey: "extra", Fields: []model.PayloadField{{Key: "diagnosis_code"}}})
		return Output{Payload: p, Confidence: 140, Raw: []byte(`{}`)}, nil
	}}, zap.NewNop(), WithObserver(func(s model.ExtractionSource) { sources = append(sources, s) }))

	res := o.Extract(context.Background(), block, model.DefaultSchema())

	assert.Equal(t, model.SourceCollaborator, res.Source)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, "A12345678", res.Payload.ClaimNumber())
	assert.False(t, res.Payload.Has("diagnosis_code"), "payload is laid onto the schema")
	assert.Nil(t, res.Cause)
	assert.Equal(t, []model.ExtractionSource{model.SourceCollaborator}, sources)
}

func TestOrchestrator_FallbackOnError(t *testing.T) {
	boom := errors.New("upstream 500")
	o := New(stubExtractor{fn: func(context.Context, string) (Output, error) { return Output{}, boom }},
		zap.NewNop(), WithFallbackConfidence(60))

	res := o.Extract(context.Background(), block, model.DefaultSchema())

	assert.Equal(t, model.SourceFallback, res.Source)
	assert.Equal(t, 60, res.Confidence)
	assert.Equal(t, "202403150001", res.Payload.ClaimNumber())
	var cerr *CollaboratorError
	require.True(t, errors.As(res.Cause, &cerr))
	assert.False(t, cerr.Timeout)
	assert.ErrorIs(t, res.Cause, boom)
}

func TestOrchestrator_FallbackOnTimeout(t *testing.T) {
	o := New(stubExtractor{fn: func(ctx context.Context, _ string) (Output, error) {
		<-ctx.Done()
		return Output{}, ctx.Err()
	}}, zap.NewNop(), WithTimeout(20*time.Millisecond))

	res := o.Extract(context.Background(), block, model.DefaultSchema())

	assert.Equal(t, model.SourceFallback, res.Source)
	var cerr *CollaboratorError
	require.True(t, errors.As(res.Cause, &cerr))
	assert.True(t, cerr.Timeout)
}

func TestOrchestrator_NoCollaborator(t *testing.T) {
	o := New(nil, zap.NewNop())
	results := o.ExtractAll(context.Background(), []string{block, "nothing"}, model.DefaultSchema())

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, model.SourceFallback, r.Source)
		assert.Equal(t, 60, r.Confidence)
		assert.Nil(t, r.Cause)
	}
}

func TestOrchestrator_ConcurrencyCap(t *testing.T) {
	var inFlight, peak atomic.Int32
	o := New(stubExtractor{fn: func(_ context.Context, text string) (Output, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return Output{Payload: payloadWith(text), Confidence: 90}, nil
	}}, zap.NewNop(), WithConcurrency(3))

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = "A1234567" + string(rune('0'+i%10))
	}
	results := o.ExtractAll(context.Background(), texts, model.DefaultSchema())

	require.Len(t, results, len(texts))
	for i, r := range results {
		assert.Equal(t, texts[i], r.Payload.ClaimNumber(), "results keep block order")
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, int32(3), peak.Load())
}

func TestOrchestrator_FIFOAdmission(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	o := New(stubExtractor{fn: func(_ context.Context, text string) (Output, error) {
		mu.Lock()
		order = append(order, text)
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		return Output{Payload: payloadWith(text)}, nil
	}}, zap.NewNop(), WithConcurrency(1))

	texts := []string{"A10000001", "A10000002", "A10000003", "A10000004"}
	o.ExtractAll(context.Background(), texts, model.DefaultSchema())

	assert.Equal(t, texts, order)
}

func TestOrchestrator_CancelledWhileQueued(t *testing.T) {
	release := make(chan struct{})
	o := New(stubExtractor{fn: func(context.Context, string) (Output, error) {
		<-release
		return Output{Payload: payloadWith("A10000001")}, nil
	}}, zap.NewNop(), WithConcurrency(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan []Result)
	go func() { done <- o.ExtractAll(ctx, []string{"first", block}, model.DefaultSchema()) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	close(release)

	results := <-done
	require.Len(t, results, 2)
	assert.Equal(t, model.SourceFallback, results[1].Source)
	assert.Equal(t, "202403150001", results[1].Payload.ClaimNumber())
}
