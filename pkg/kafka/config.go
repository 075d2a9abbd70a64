package pkgkafka

import (
	"fmt"
	"strings"
)

type KafkaEncoder string

const (
	KafkaEncoder_JSON  KafkaEncoder = "json"
	KafkaEncoder_AVRO  KafkaEncoder = "avro"
	KafkaEncoder_PROTO KafkaEncoder = "proto"
)

const (
	DefaultTopic    = "payment_events"
	DefaultClientID = "payment-verify"
)

type KafkaConfig struct {
	Brokers        []string
	Topic          string
	ClientID       string
	MsgEncoderType KafkaEncoder
}

func NewKafkaConfig(brokers []string, topic string, encoder string) (*KafkaConfig, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	enc := KafkaEncoder(strings.ToLower(encoder))
	switch enc {
	case "":
		enc = KafkaEncoder_JSON
	case KafkaEncoder_JSON, KafkaEncoder_AVRO, KafkaEncoder_PROTO:
	default:
		return nil, fmt.Errorf("kafka: unknown encoder %q", encoder)
	}

	return &KafkaConfig{
		Brokers:        brokers,
		Topic:          topic,
		ClientID:       DefaultClientID,
		MsgEncoderType: enc,
	}, nil
}

func (c *KafkaConfig) BootstrapServers() string {
	return strings.Join(c.Brokers, ",")
}
