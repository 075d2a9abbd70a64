package events

import (
	"encoding/json"
	"fmt"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	pkgkafka "github.com/k-code-yt/payment-verify/pkg/kafka"
)

type MsgEncoder interface {
	Encode(ev *payment.Event) ([]byte, error)
	ContentType() string
	GetType() pkgkafka.KafkaEncoder
}

func NewMsgEncoder(t pkgkafka.KafkaEncoder) (MsgEncoder, error) {
	switch t {
	case pkgkafka.KafkaEncoder_AVRO:
		return NewAvroEncoder()
	case pkgkafka.KafkaEncoder_PROTO:
		return NewProtoEncoder(), nil
	case pkgkafka.KafkaEncoder_JSON, "":
		return NewJsonEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoder %q", t)
	}
}

type JsonEncoder struct {
	msgEncoderType pkgkafka.KafkaEncoder
}

func NewJsonEncoder() *JsonEncoder {
	return &JsonEncoder{
		msgEncoderType: pkgkafka.KafkaEncoder_JSON,
	}
}

func (e *JsonEncoder) Encode(ev *payment.Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}

func (e *JsonEncoder) ContentType() string {
	return "application/json"
}

func (e *JsonEncoder) GetType() pkgkafka.KafkaEncoder {
	return e.msgEncoderType
}
