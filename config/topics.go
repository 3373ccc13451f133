package config

import "fmt"

// Kafka topic for synchronized account shapes
func TopicAccountShapes() string {
	return fmt.Sprintf("%s-account-shapes", EnvKafkaTopicNamespace())
}

// Kafka topic for operations that were added by a sync
func TopicOperations() string {
	return fmt.Sprintf("%s-operations", EnvKafkaTopicNamespace())
}
