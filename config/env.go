package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func EnvLoad(filenames ...string) {
	if len(filenames) == 0 {
		filenames = append(filenames, ".env")
	}
	for _, filename := range filenames {
		log.Printf("Loading configuration file: %s", filename)
		err := godotenv.Load(filename)
		if err != nil {
			log.Fatalf("Error loading configuration file: %s", filename)
		}
	}
}

func envInt(key string, def int, valid func(int) bool) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && valid(v) {
		return v
	}
	return def
}

func positive(v int) bool { return v > 0 }

func nonNegative(v int) bool { return v >= 0 }

/*
* Service settings
 */

// Get HTTP server hostname
func EnvServerHost() string {
	return os.Getenv("SERVER_HOST")
}

// Get HTTP server port
func EnvServerPort() string {
	v := os.Getenv("SERVER_PORT")
	if v == "" {
		return "3000"
	}
	return v
}

// Get default log level
func EnvLogLevel() string {
	return os.Getenv("LOG_LEVEL")
}

// Get log file path
func EnvLogFilePath() string {
	return os.Getenv("LOG_FILE_PATH")
}

// Get log file enabled flag
func EnvLogFileEnabled() bool {
	return os.Getenv("LOG_FILE_ENABLED") == "true"
}

// Get log file max size in MB
func EnvLogFileMaxSize() int {
	return envInt("LOG_FILE_MAX_SIZE_MB", 100, positive)
}

// Get log file max backups
func EnvLogFileMaxBackups() int {
	return envInt("LOG_FILE_MAX_BACKUPS", 3, nonNegative)
}

// Get log file max age in days
func EnvLogFileMaxAge() int {
	return envInt("LOG_FILE_MAX_AGE_DAYS", 7, positive)
}

/*
* Indexer (TzKT compatible) API settings
 */
func EnvIndexerURL() string {
	v := os.Getenv("INDEXER_API_URL")
	if v == "" {
		return "https://api.tzkt.io"
	}
	return strings.TrimRight(v, "/")
}

// Number of operations requested per page
func EnvIndexerPageLimit() int {
	return envInt("INDEXER_PAGE_LIMIT", 1000, positive)
}

func EnvIndexerTimeout() time.Duration {
	return time.Duration(envInt("INDEXER_TIMEOUT_SECONDS", 30, positive)) * time.Second
}

/*
* Sync scheduler settings
 */

// Addresses synchronized by the scheduler, comma separated
func EnvSyncAddresses() []string {
	var addresses []string
	for _, a := range strings.Split(os.Getenv("SYNC_ADDRESSES"), ",") {
		if a = strings.TrimSpace(a); a != "" {
			addresses = append(addresses, a)
		}
	}
	return addresses
}

func EnvSyncInterval() time.Duration {
	return time.Duration(envInt("SYNC_INTERVAL_SECONDS", 60, positive)) * time.Second
}

// Resume paging after the last known operation instead of refetching everything
func EnvSyncIncremental() bool {
	return os.Getenv("SYNC_INCREMENTAL") != "false"
}

/*
* Kafka settings
 */
func EnvKafkaEnabled() bool {
	return os.Getenv("KAFKA_ENABLED") == "true"
}

func EnvKafkaBootstrapServer() string {
	return os.Getenv("KAFKA_BOOTSTRAP_SERVER")
}

func EnvKafkaTopicNamespace() string {
	v := os.Getenv("KAFKA_TOPIC_NAMESPACE")
	if v == "" {
		return "tezsync"
	}
	return v
}

// Writer batching and delivery settings
func EnvKafkaWriterBatchSize() int {
	return envInt("KAFKA_WRITER_BATCH_SIZE", 100, positive)
}

func EnvKafkaWriterBatchBytes() int {
	return envInt("KAFKA_WRITER_BATCH_BYTES", 1024*1024, positive)
}

func EnvKafkaWriterBatchTimeoutMs() int {
	return envInt("KAFKA_WRITER_BATCH_TIMEOUT_MS", 50, nonNegative)
}

func EnvKafkaWriterCompression() string {
	v := os.Getenv("KAFKA_WRITER_COMPRESSION")
	if v == "" {
		return "snappy" // lightweight default
	}
	return v
}

func EnvKafkaWriterRequiredAcks() int {
	if v, err := strconv.Atoi(os.Getenv("KAFKA_WRITER_REQUIRED_ACKS")); err == nil {
		// allow -1, 0, 1
		if v == -1 || v == 0 || v == 1 {
			return v
		}
	}
	return 1 // leader-only default
}

/*
* ClickHouse settings
 */
func EnvClickHouseEnabled() bool {
	return os.Getenv("CLICKHOUSE_ENABLED") == "true"
}

func EnvClickHouseHost() string {
	v := os.Getenv("CLICKHOUSE_HOST")
	if v == "" {
		return "localhost"
	}
	return v
}

func EnvClickHousePort() int {
	return envInt("CLICKHOUSE_PORT", 9000, positive)
}

func EnvClickHouseDatabase() string {
	v := os.Getenv("CLICKHOUSE_DATABASE")
	if v == "" {
		return "tezos"
	}
	return v
}

func EnvClickHouseUser() string {
	v := os.Getenv("CLICKHOUSE_USER")
	if v == "" {
		return "default"
	}
	return v
}

func EnvClickHousePassword() string {
	return os.Getenv("CLICKHOUSE_PASSWORD")
}

// Batch size for ClickHouse inserts
func EnvClickHouseBatchSize() int {
	return envInt("CLICKHOUSE_BATCH_SIZE", 5000, positive)
}

// Batch timeout in milliseconds for ClickHouse inserts
func EnvClickHouseBatchTimeoutMs() int {
	return envInt("CLICKHOUSE_BATCH_TIMEOUT_MS", 5000, positive)
}
