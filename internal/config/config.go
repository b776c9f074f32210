package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/glinharesb/sigflow/internal/storage"
	"github.com/glinharesb/sigflow/internal/workflow"
)

type Config struct {
	KeyAlgorithm       string
	KeyLength          int
	SignatureAlgorithm string
	Provider           string

	DataDir        string
	MessageFile    string
	SignatureFile  string
	PublicKeyFile  string
	PrivateKeyFile string
	OnReadError    string
	KeyPassphrase  string

	GRPCAddr     string
	AuthToken    string
	RateLimitRPS int
	AuditBuffer  int
	LogLevel     string
}

func Load() Config {
	return Config{
		KeyAlgorithm:       envOr("SIGFLOW_KEY_ALGORITHM", "RSA"),
		KeyLength:          envInt("SIGFLOW_KEY_LENGTH", 1024),
		SignatureAlgorithm: envOr("SIGFLOW_SIGNATURE_ALGORITHM", "SHA1withRSA"),
		Provider:           os.Getenv("SIGFLOW_PROVIDER"),

		DataDir:        envOr("SIGFLOW_DATA_DIR", "."),
		MessageFile:    envOr("SIGFLOW_MESSAGE_FILE", "message.docx"),
		SignatureFile:  envOr("SIGFLOW_SIGNATURE_FILE", "sign.txt"),
		PublicKeyFile:  envOr("SIGFLOW_PUBLIC_KEY_FILE", "publickey.txt"),
		PrivateKeyFile: envOr("SIGFLOW_PRIVATE_KEY_FILE", "privatekey.txt"),
		OnReadError:    envOr("SIGFLOW_ON_READ_ERROR", "degrade"),
		KeyPassphrase:  os.Getenv("SIGFLOW_KEY_PASSPHRASE"),

		GRPCAddr:     envOr("SIGFLOW_GRPC_ADDR", ":50051"),
		AuthToken:    envOr("SIGFLOW_AUTH_TOKEN", "dev-token"),
		RateLimitRPS: envInt("SIGFLOW_RATE_LIMIT_RPS", 100),
		AuditBuffer:  envInt("SIGFLOW_AUDIT_BUFFER", 1024),
		LogLevel:     envOr("SIGFLOW_LOG_LEVEL", "info"),
	}
}

// Params returns the workflow construction parameters.
func (c Config) Params() workflow.Params {
	return workflow.Params{
		KeyAlgorithm:       c.KeyAlgorithm,
		KeyLength:          c.KeyLength,
		SignatureAlgorithm: c.SignatureAlgorithm,
		Provider:           c.Provider,
	}
}

// Files returns the workflow file locations resolved against DataDir.
func (c Config) Files() workflow.Files {
	return workflow.Files{
		Message:    c.MessageFile,
		Signature:  c.SignatureFile,
		PublicKey:  c.PublicKeyFile,
		PrivateKey: c.PrivateKeyFile,
	}.In(c.DataDir)
}

func (c Config) ReadPolicy() (storage.ReadPolicy, error) {
	return storage.ParseReadPolicy(c.OnReadError)
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
