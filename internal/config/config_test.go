package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadAppliesDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Read(writeConfig(t, `{}`)))

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, "fs", cfg.Storage.Backend)
	assert.Equal(t, "photos", cfg.Queue.Stream)
	assert.Equal(t, "thumbnailers", cfg.Queue.Group)
	assert.NotEmpty(t, cfg.Queue.Consumer)
	assert.Equal(t, int64(10000), cfg.Queue.MaxLen)
	assert.Equal(t, 5*time.Second, cfg.Queue.BlockTimeout)
	assert.Equal(t, 100, cfg.Worker.ThumbnailSize)
}

func TestReadOverridesDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Read(writeConfig(t, `{
		"server": {"port": 9000},
		"upload": {"allowed_types": ["image/png"]},
		"storage": {"backend": "s3", "s3": {"bucket_name": "media", "region": "eu-west-1"}},
		"queue": {"stream": "jobs", "group": "workers", "max_len": 500},
		"worker": {"thumbnail_size": 256}
	}`)))

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"image/png"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "media", cfg.Storage.S3.BucketName)
	assert.Equal(t, "jobs", cfg.Queue.Stream)
	assert.Equal(t, int64(500), cfg.Queue.MaxLen)
	assert.Equal(t, 256, cfg.Worker.ThumbnailSize)
}

func TestReadMissingFile(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.Read(filepath.Join(t.TempDir(), "absent.json")))
}

func TestReadInvalidJSON(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.Read(writeConfig(t, `{not json`)))
}

func TestRedisNodeAddr(t *testing.T) {
	n := RedisNode{Host: "10.0.0.5", Port: 6379}
	assert.Equal(t, "10.0.0.5:6379", n.Addr())
}
