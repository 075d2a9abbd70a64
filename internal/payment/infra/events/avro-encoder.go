package events

import (
	"fmt"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	pkgkafka "github.com/k-code-yt/payment-verify/pkg/kafka"
	goavro "github.com/linkedin/goavro/v2"
)

const PaymentEventSchema = `{
  "type": "record",
  "name": "PaymentEvent",
  "namespace": "payments",
  "fields": [
    {"name": "id", "type": "string"},
    {"name": "type", "type": "string"},
    {"name": "paymentId", "type": "string"},
    {"name": "txnId", "type": "string"},
    {"name": "email", "type": "string"},
    {"name": "status", "type": "string"},
    {"name": "occurredAt", "type": {"type": "long", "logicalType": "timestamp-millis"}}
  ]
}`

type AvroEncoder struct {
	msgEncoderType pkgkafka.KafkaEncoder
	codec          *goavro.Codec
}

func NewAvroEncoder() (*AvroEncoder, error) {
	codec, err := goavro.NewCodec(PaymentEventSchema)
	if err != nil {
		return nil, fmt.Errorf("avro codec: %w", err)
	}
	return &AvroEncoder{
		msgEncoderType: pkgkafka.KafkaEncoder_AVRO,
		codec:          codec,
	}, nil
}

func (e *AvroEncoder) Encode(ev *payment.Event) ([]byte, error) {
	native := map[string]any{
		"id":         ev.ID,
		"type":       string(ev.Type),
		"paymentId":  ev.PaymentID,
		"txnId":      ev.TxnID,
		"email":      ev.Email,
		"status":     string(ev.Status),
		"occurredAt": ev.OccurredAt,
	}
	b, err := e.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("avro encode: %w", err)
	}
	return b, nil
}

func (e *AvroEncoder) Codec() *goavro.Codec {
	return e.codec
}

func (e *AvroEncoder) ContentType() string {
	return "avro/binary"
}

func (e *AvroEncoder) GetType() pkgkafka.KafkaEncoder {
	return e.msgEncoderType
}
