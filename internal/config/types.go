package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server   ServerConfig  `json:"server"`
	Upload   UploadConfig  `json:"upload"`
	Database Database      `json:"database"`
	Redis    RedisConfig   `json:"redis"`
	Storage  StorageConfig `json:"storage"`
	Queue    QueueConfig   `json:"queue"`
	Worker   WorkerConfig  `json:"worker"`
	Auth     AuthConfig    `json:"auth"`
	Sentry   SentryConfig  `json:"sentry"`
}

type ServerConfig struct {
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type UploadConfig struct {
	MaxRequestBodyMB     int64    `json:"max_request_body"`
	MaxMultipartMemoryMB int64    `json:"max_multipart_memory"`
	AllowedTypes         []string `json:"allowed_types"`
}

type Database struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Password            string        `json:"password"`
	DatabaseID          int           `json:"database_id"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	DialTimeout         time.Duration `json:"dial_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout"`
	PoolSize            int           `json:"pool_size"`
	Nodes               []RedisNode   `json:"nodes"`
}

type RedisNode struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (n RedisNode) Addr() string { return fmt.Sprintf("%s:%d", n.Host, n.Port) }

// StorageConfig selects the blob backend. Backend is "fs", "s3" or "memory".
type StorageConfig struct {
	Backend string          `json:"backend"`
	FS      FSStorageConfig `json:"fs"`
	S3      S3Config        `json:"s3"`
}

type FSStorageConfig struct {
	BaseDir string `json:"base_dir"`
}

type S3Config struct {
	BucketName  string `json:"bucket_name"`
	Region      string `json:"region"`
	AccessKeyID string `json:"access_key_id"`
	SecretKey   string `json:"secret_key"`
	Endpoint    string `json:"endpoint"`
}

// QueueConfig describes the thumbnail job stream and its consumer group.
type QueueConfig struct {
	Stream        string        `json:"stream"`         // redis stream name
	Group         string        `json:"group"`          // consumer group name
	Consumer      string        `json:"consumer"`       // consumer name within the group
	MaxLen        int64         `json:"max_len"`        // stream max length before trim
	BlockTimeout  time.Duration `json:"block_timeout"`  // XREADGROUP block timeout
	ClaimInterval time.Duration `json:"claim_interval"` // how often to reclaim stuck messages
}

type WorkerConfig struct {
	ThumbnailSize int `json:"thumbnail_size"` // bounding box, pixels
	CacheTTLSecs  int `json:"cache_ttl_secs"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

type SentryConfig struct {
	SentryDSN   string `json:"sentry_dsn"`
	Environment string `json:"environment"`
}
