package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleEvent(typ string) entity.DomainEvent {
	return entity.DomainEvent{
		ID:         "ev-1",
		Type:       typ,
		CompanyID:  "c1",
		EntityID:   "s1",
		Data:       map[string]string{"number": "V-000001", "total": "15000"},
		OccurredAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestFanout_TodosLosHandlersRecibenAunqueUnoFalle(t *testing.T) {
	var got []string
	boom := errors.New("boom")
	h := Fanout(nil,
		func(_ context.Context, ev entity.DomainEvent) error { got = append(got, "a:"+ev.Type); return boom },
		nil,
		func(_ context.Context, ev entity.DomainEvent) error { got = append(got, "b:"+ev.Type); return nil },
	)

	err := h(context.Background(), sampleEvent(entity.EventSaleCreated))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:sale.created", "b:sale.created"}, got)
}

func TestLocalBus_EntregaEnOrdenYDrenaAlCancelar(t *testing.T) {
	bus := NewLocalBus(4, nil)
	var mu sync.Mutex
	var got []string
	handle := func(_ context.Context, ev entity.DomainEvent) error {
		mu.Lock()
		got = append(got, ev.ID)
		mu.Unlock()
		return nil
	}

	for _, id := range []string{"1", "2", "3"} {
		ev := sampleEvent(entity.EventSaleCreated)
		ev.ID = id
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, bus.Run(ctx, handle))
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestLocalBus_ColaLlena(t *testing.T) {
	bus := NewLocalBus(1, nil)
	require.NoError(t, bus.Publish(context.Background(), sampleEvent("x")))
	assert.ErrorIs(t, bus.Publish(context.Background(), sampleEvent("y")), ErrQueueFull)
}

func TestLocalBus_RunProcesaMientrasCorre(t *testing.T) {
	bus := NewLocalBus(0, nil)
	received := make(chan entity.DomainEvent, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- bus.Run(ctx, func(_ context.Context, ev entity.DomainEvent) error {
			received <- ev
			return errors.New("se registra y sigue")
		})
	}()

	require.NoError(t, bus.Publish(context.Background(), sampleEvent(entity.EventWorkOrderStatusChanged)))
	select {
	case ev := <-received:
		assert.Equal(t, entity.EventWorkOrderStatusChanged, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("el evento no llegó")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestEncodeDecode(t *testing.T) {
	ev := sampleEvent(entity.EventSaleCancelled)
	msg, err := encode(ev)
	require.NoError(t, err)
	assert.Equal(t, "c1", string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte("sale.cancelled")}}, msg.Headers)

	back, err := decode(msg)
	require.NoError(t, err)
	if diff := cmp.Diff(ev, back); diff != "" {
		t.Errorf("evento distinto (-want +got):\n%s", diff)
	}
}

func TestDecode_Invalido(t *testing.T) {
	_, err := decode(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)
	_, err = decode(kafka.Message{Value: []byte(`{"id":"1"}`)})
	assert.Error(t, err)
}

func TestRetry_ReintentaHastaLograrlo(t *testing.T) {
	calls := 0
	h := Retry(func(context.Context, entity.DomainEvent) error {
		calls++
		if calls < 3 {
			return errors.New("db caída")
		}
		return nil
	}, 3, time.Millisecond)

	require.NoError(t, h(context.Background(), sampleEvent(entity.EventSaleCreated)))
	assert.Equal(t, 3, calls)
}

func TestRetry_DevuelveElUltimoError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	h := Retry(func(context.Context, entity.DomainEvent) error { calls++; return boom }, 2, time.Millisecond)

	assert.ErrorIs(t, h(context.Background(), sampleEvent("x")), boom)
	assert.Equal(t, 2, calls)
}

func TestRetry_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := Retry(func(context.Context, entity.DomainEvent) error { cancel(); return errors.New("falla") }, 5, time.Hour)

	assert.ErrorIs(t, h(ctx, sampleEvent("x")), context.Canceled)
}

// fakeReader entrega los mensajes en orden y luego bloquea hasta que ctx se cancela.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) offsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func kafkaMessage(t *testing.T, offset int64, typ string) kafka.Message {
	t.Helper()
	msg, err := encode(sampleEvent(typ))
	require.NoError(t, err)
	msg.Offset = offset
	return msg
}

func TestKafkaConsumer_ConfirmaAunqueElHandlerFalle(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		kafkaMessage(t, 0, entity.EventSaleCreated),
		kafkaMessage(t, 1, "falla"),
		{Offset: 2, Value: []byte("{")},
		kafkaMessage(t, 3, entity.EventSaleCancelled),
	}}
	c := &KafkaConsumer{reader: reader, log: logger.Nop()}

	var mu sync.Mutex
	var handled []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- c.Run(ctx, func(_ context.Context, ev entity.DomainEvent) error {
			mu.Lock()
			handled = append(handled, ev.Type)
			mu.Unlock()
			if ev.Type == "falla" {
				return errors.New("handler falló")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(reader.offsets()) == 4 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{0, 1, 2, 3}, reader.offsets())
	mu.Lock()
	assert.Equal(t, []string{entity.EventSaleCreated, "falla", entity.EventSaleCancelled}, handled)
	mu.Unlock()
}

func TestKafkaConsumer_ApagadoDuranteElHandlerNoConfirma(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{kafkaMessage(t, 7, entity.EventSaleCreated)}}
	c := &KafkaConsumer{reader: reader, log: logger.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Run(ctx, func(ctx context.Context, _ entity.DomainEvent) error {
		cancel()
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.Empty(t, reader.offsets())
}
