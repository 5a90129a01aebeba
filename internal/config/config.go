package config

import (
	"encoding/json"
	"os"
	"time"
)

// Create new config instance
func NewConfig() *Config {
	return &Config{}
}

// Load configuration file in json format
func (c *Config) Read(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Upload.MaxRequestBodyMB == 0 {
		c.Upload.MaxRequestBodyMB = 32
	}
	if c.Upload.MaxMultipartMemoryMB == 0 {
		c.Upload.MaxMultipartMemoryMB = 8
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "fs"
	}
	if c.Storage.FS.BaseDir == "" {
		c.Storage.FS.BaseDir = "uploads"
	}
	if c.Queue.Stream == "" {
		c.Queue.Stream = "photos"
	}
	if c.Queue.Group == "" {
		c.Queue.Group = "thumbnailers"
	}
	if c.Queue.Consumer == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "worker"
		}
		c.Queue.Consumer = host
	}
	if c.Queue.MaxLen == 0 {
		c.Queue.MaxLen = 10000
	}
	if c.Queue.BlockTimeout == 0 {
		c.Queue.BlockTimeout = 5 * time.Second
	}
	if c.Queue.ClaimInterval == 0 {
		c.Queue.ClaimInterval = time.Minute
	}
	if c.Worker.ThumbnailSize == 0 {
		c.Worker.ThumbnailSize = 100
	}
	if c.Worker.CacheTTLSecs == 0 {
		c.Worker.CacheTTLSecs = 60
	}
}
