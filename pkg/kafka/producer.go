package pkgkafka

import (
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	producer *kafka.Producer
	doneCH   chan struct{}
}

func NewKafkaProducer(cfg *KafkaConfig) (*KafkaProducer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers(),
		"client.id":          cfg.ClientID,
		"acks":               "all",
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, err
	}

	kp := &KafkaProducer{
		producer: p,
		doneCH:   make(chan struct{}),
	}
	go kp.deliveryReports()
	return kp, nil
}

func (p *KafkaProducer) deliveryReports() {
	defer close(p.doneCH)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logrus.WithFields(logrus.Fields{
					"TOPIC_PRTN": ev.TopicPartition,
					"KEY":        string(ev.Key),
				}).Errorf("PRODUCER:DELIVERY_FAILED %v", ev.TopicPartition.Error)
				continue
			}
			logrus.WithFields(logrus.Fields{
				"TOPIC_PRTN": ev.TopicPartition,
				"KEY":        string(ev.Key),
			}).Debug("PRODUCER:DELIVERED")
		case kafka.Error:
			logrus.WithField("CODE", ev.Code()).Errorf("PRODUCER:ERROR %v", ev)
		}
	}
}

// Produce enqueues the message; delivery is reported asynchronously.
func (p *KafkaProducer) Produce(topic string, key []byte, value []byte, headers map[string]string) error {
	hs := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
		Headers:        hs,
	}, nil)
}

func (p *KafkaProducer) Close(timeout time.Duration) {
	if left := p.producer.Flush(int(timeout.Milliseconds())); left > 0 {
		logrus.WithField("UNDELIVERED", left).Warn("PRODUCER:FLUSH_TIMEOUT")
	}
	p.producer.Close()
	<-p.doneCH
}
