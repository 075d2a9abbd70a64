package events

import (
	"context"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
)

type producer interface {
	Produce(topic string, key []byte, value []byte, headers map[string]string) error
}

// KafkaPublisher writes payment events keyed by txnId so one transaction stays on one partition.
type KafkaPublisher struct {
	producer producer
	topic    string
	encoder  MsgEncoder
}

func NewKafkaPublisher(p producer, topic string, encoder MsgEncoder) *KafkaPublisher {
	return &KafkaPublisher{
		producer: p,
		topic:    topic,
		encoder:  encoder,
	}
}

func (kp *KafkaPublisher) Publish(ctx context.Context, ev *payment.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := kp.encoder.Encode(ev)
	if err != nil {
		return err
	}
	headers := map[string]string{
		"event_type":   string(ev.Type),
		"event_id":     ev.ID,
		"content_type": kp.encoder.ContentType(),
	}
	return kp.producer.Produce(kp.topic, []byte(ev.TxnID), b, headers)
}
