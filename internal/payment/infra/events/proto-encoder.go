package events

import (
	"fmt"
	"time"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	pkgkafka "github.com/k-code-yt/payment-verify/pkg/kafka"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ProtoEncoder writes events as a google.protobuf.Struct.
// occurredAt carries the Timestamp in its canonical RFC 3339 form.
type ProtoEncoder struct {
	msgEncoderType pkgkafka.KafkaEncoder
}

func NewProtoEncoder() *ProtoEncoder {
	return &ProtoEncoder{
		msgEncoderType: pkgkafka.KafkaEncoder_PROTO,
	}
}

func (e *ProtoEncoder) Encode(ev *payment.Event) ([]byte, error) {
	ts := timestamppb.New(ev.OccurredAt)
	if err := ts.CheckValid(); err != nil {
		return nil, fmt.Errorf("proto encode occurredAt: %w", err)
	}

	msg, err := structpb.NewStruct(map[string]any{
		"id":         ev.ID,
		"type":       string(ev.Type),
		"paymentId":  ev.PaymentID,
		"txnId":      ev.TxnID,
		"email":      ev.Email,
		"status":     string(ev.Status),
		"occurredAt": ts.AsTime().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("proto encode: %w", err)
	}

	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("proto marshal: %w", err)
	}
	return b, nil
}

func (e *ProtoEncoder) ContentType() string {
	return "application/x-protobuf"
}

func (e *ProtoEncoder) GetType() pkgkafka.KafkaEncoder {
	return e.msgEncoderType
}
