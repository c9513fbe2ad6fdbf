package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/NeuralTrust/IPGuard/pkg/domain/notify"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/mitchellh/mapstructure"
)

const (
	NotifierName = "kafka"

	eventTypeHeader = "ipguard-event"
	flushTimeoutMs  = 5000
)

var errNoProducer = errors.New("kafka producer is not initialized")

type Config struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Topic string `mapstructure:"topic"`
}

func parseConfig(settings map[string]interface{}) (Config, error) {
	var conf Config
	if err := mapstructure.Decode(settings, &conf); err != nil {
		return conf, fmt.Errorf("invalid kafka config: %w", err)
	}
	switch {
	case conf.Host == "":
		return conf, errors.New("kafka host is required")
	case conf.Port == "":
		return conf, errors.New("kafka port is required")
	case conf.Topic == "":
		return conf, errors.New("kafka topic is required")
	}
	return conf, nil
}

// Notifier produces block and review events to a topic. The zero value
// only validates settings; WithSettings returns one with a live producer.
type Notifier struct {
	cfg      Config
	producer *kafka.Producer
}

func NewKafkaNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Name() string {
	return NotifierName
}

func (n *Notifier) ValidateConfig(settings map[string]interface{}) error {
	_, err := parseConfig(settings)
	return err
}

func (n *Notifier) WithSettings(settings map[string]interface{}) (notify.Notifier, error) {
	conf, err := parseConfig(settings)
	if err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": net.JoinHostPort(conf.Host, conf.Port),
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &Notifier{cfg: conf, producer: producer}, nil
}

// Notify waits for the delivery report. Messages are keyed by IP so the
// events of one address stay ordered within a partition.
func (n *Notifier) Notify(ctx context.Context, evt notify.Event) error {
	if n.producer == nil {
		return errNoProducer
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &n.cfg.Topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.IP),
		Value:          value,
		Headers:        []kafka.Header{{Key: eventTypeHeader, Value: []byte(evt.Type)}},
	}
	delivered := make(chan kafka.Event, 1)
	if err := n.producer.Produce(msg, delivered); err != nil {
		return fmt.Errorf("failed to produce %s event: %w", evt.Type, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivered:
		report, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T", e)
		}
		if report.TopicPartition.Error != nil {
			return fmt.Errorf("delivery to %s failed: %w", n.cfg.Topic, report.TopicPartition.Error)
		}
		return nil
	}
}

func (n *Notifier) Close() {
	if n.producer == nil {
		return
	}
	n.producer.Flush(flushTimeoutMs)
	n.producer.Close()
}
