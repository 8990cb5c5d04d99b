package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the call core service
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Signaling relay
	RelayBaseURL string
	RelayTimeout time.Duration

	// WebRTC
	STUNServers []string

	// Quality monitor
	QualitySampleInterval time.Duration

	// Escalation queue timers
	EscalationAcceptSettle time.Duration
	EscalationRejectDelay  time.Duration
	EscalationRingTimeout  time.Duration

	// Notification sink (empty URL disables AMQP)
	AMQPURL      string
	AMQPExchange string

	// WebSocket push
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RelayBaseURL:   strings.TrimSuffix(getEnv("RELAY_BASE_URL", "http://localhost:9000"), "/"),
		STUNServers:    strings.Split(getEnv("STUN_SERVERS", "stun:stun.l.google.com:19302"), ","),
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "asistanapp.escalations"),
	}

	var err error
	if config.RelayTimeout, err = parseSeconds("RELAY_TIMEOUT", 10); err != nil {
		return nil, err
	}
	if config.QualitySampleInterval, err = parseMillis("QUALITY_SAMPLE_INTERVAL_MS", 1000); err != nil {
		return nil, err
	}
	if config.EscalationAcceptSettle, err = parseMillis("ESCALATION_ACCEPT_SETTLE_MS", 1000); err != nil {
		return nil, err
	}
	if config.EscalationRejectDelay, err = parseMillis("ESCALATION_REJECT_DELAY_MS", 3000); err != nil {
		return nil, err
	}
	if config.EscalationRingTimeout, err = parseSeconds("ESCALATION_RING_TIMEOUT", 30); err != nil {
		return nil, err
	}

	pongWait, err := parseSeconds("WS_READ_TIMEOUT", 60)
	if err != nil {
		return nil, err
	}
	writeWait, err := parseSeconds("WS_WRITE_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}
	config.PongWait = pongWait
	config.PingPeriod = (pongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = writeWait
	config.MaxMessageSize = 512

	// Trim spaces from list values
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	for i, server := range config.STUNServers {
		config.STUNServers[i] = strings.TrimSpace(server)
	}

	return config, nil
}

func parseSeconds(key string, def int) (time.Duration, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(def)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(v) * time.Second, nil
}

func parseMillis(key string, def int) (time.Duration, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(def)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(v) * time.Millisecond, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
