package connections

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/xrpscan/tezsync/config"
	"github.com/xrpscan/tezsync/logger"
)

// KafkaWriter publishes sync results. Messages carry their own topic.
var KafkaWriter *kafka.Writer

func NewWriter() {
	brokers := strings.Split(config.EnvKafkaBootstrapServer(), ",")

	logger.Log.Info().
		Strs("brokers", brokers).
		Str("namespace", config.EnvKafkaTopicNamespace()).
		Msg("Initializing Kafka writer")

	KafkaWriter = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              config.EnvKafkaWriterBatchSize(),
		BatchBytes:             int64(config.EnvKafkaWriterBatchBytes()),
		BatchTimeout:           time.Duration(config.EnvKafkaWriterBatchTimeoutMs()) * time.Millisecond,
		RequiredAcks:           kafka.RequiredAcks(config.EnvKafkaWriterRequiredAcks()),
		Compression:            kafkaCompression(config.EnvKafkaWriterCompression()),
		AllowAutoTopicCreation: true,
	}
}

func kafkaCompression(name string) compress.Compression {
	switch strings.ToLower(name) {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "none":
		return 0
	default:
		return kafka.Snappy
	}
}

func CloseKafkaWriter() {
	closeWithTimeout("Kafka writer", func() error {
		if KafkaWriter != nil {
			return KafkaWriter.Close()
		}
		return nil
	})
}
