package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher escribe eventos JSON en el tópico configurado. La clave del mensaje es la
// empresa, así los eventos de un mismo tenant caen en la misma partición y conservan el orden.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher construye el productor.
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		ErrorLogger:  kafkaLogger{log: log},
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev entity.DomainEvent) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publicar %s: %w", ev.Type, err)
	}
	return nil
}

// Close vacía el buffer y cierra el productor.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// messageReader parte de *kafka.Reader que usa el consumidor.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer lee el tópico dentro de un consumer group y entrega cada evento al handler.
// Confirmar el offset N cubre todos los anteriores de la partición, así que un evento cuyo
// handler falla se registra y se confirma igual: los reintentos van en el handler (Retry).
// Si ctx se cancela durante el handler no se confirma y el evento se relee al reiniciar.
type KafkaConsumer struct {
	reader messageReader
	log    *logger.Logger
}

// NewKafkaConsumer construye el consumidor.
func NewKafkaConsumer(cfg config.KafkaConfig, log *logger.Logger) *KafkaConsumer {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 1 << 20,
			MaxWait:  time.Second,
		}),
		log: log.Component("kafka_consumer"),
	}
}

// Run consume hasta que ctx se cancela.
func (c *KafkaConsumer) Run(ctx context.Context, handle ports.EventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error().Err(err).Msg("kafka fetch falló")
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		ev, err := decode(msg)
		if err != nil {
			// Mensaje ilegible: se confirma para no bloquear la partición.
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("evento descartado")
			c.commit(ctx, msg)
			continue
		}
		if err := handle(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).
				Int64("offset", msg.Offset).
				Str("event_type", ev.Type).
				Str("event_id", ev.ID).
				Msg("evento fallido, se confirma y se continúa")
		}
		c.commit(ctx, msg)
	}
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("commit de offset falló")
	}
}

// Close cierra el lector.
func (c *KafkaConsumer) Close() error { return c.reader.Close() }

func encode(ev entity.DomainEvent) (kafka.Message, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar evento: %w", err)
	}
	return kafka.Message{
		Key:     []byte(ev.CompanyID),
		Value:   b,
		Time:    ev.OccurredAt,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(ev.Type)}},
	}, nil
}

func decode(msg kafka.Message) (entity.DomainEvent, error) {
	var ev entity.DomainEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("deserializar evento: %w", err)
	}
	if ev.Type == "" || ev.CompanyID == "" {
		return ev, errors.New("evento sin tipo o empresa")
	}
	return ev, nil
}

type kafkaLogger struct {
	log *logger.Logger
}

func (k kafkaLogger) Printf(msg string, args ...interface{}) {
	if k.log == nil {
		return
	}
	k.log.Error().Msgf(msg, args...)
}
