package dependency_container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/NeuralTrust/IPGuard/pkg/config"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/NeuralTrust/IPGuard/pkg/infra/notify"
	"github.com/NeuralTrust/IPGuard/pkg/infra/reputation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			Settings:  risk.DefaultSettings(),
			Whitelist: []string{"127.0.0.1"},
			QueueSize: 16,
		},
	}
}

func TestNewContainer_InMemory(t *testing.T) {
	cfg := baseConfig()
	c, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger.Discard()})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Cache)
	assert.Nil(t, c.RedisListener)
	assert.Nil(t, c.JWTManager)
	assert.Nil(t, c.MiddlewareTransport.AdminAuthMiddleware)
	assert.Empty(t, c.HealthChecks)
	assert.NotEmpty(t, c.InstanceID)

	ctx := context.Background()
	rec, err := c.Engine.BlockIP(ctx, "203.0.113.5", engine.ManualBlock{Reason: "test", Actor: "ops"})
	require.NoError(t, err)
	assert.True(t, rec.Active)
	assert.True(t, c.Engine.IsBlocked(ctx, "203.0.113.5"))

	d, err := c.Engine.AnalyzeIP(ctx, "127.0.0.1", risk.Context{})
	require.NoError(t, err)
	assert.Equal(t, risk.ActionAllow, d.Action)
	assert.Equal(t, risk.SourceWhitelist, d.Source)
}

func TestNewContainer_SecretEnablesAuth(t *testing.T) {
	cfg := baseConfig()
	cfg.Server.SecretKey = "container-secret"
	c, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger.Discard()})
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.JWTManager)
	assert.NotNil(t, c.MiddlewareTransport.AdminAuthMiddleware)
	token, err := c.JWTManager.CreateToken("ops")
	require.NoError(t, err)
	assert.NoError(t, c.JWTManager.ValidateToken(token))
}

func TestNewContainer_FileFeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("# local list\n198.51.100.0/24\n"), 0o600))

	cfg := baseConfig()
	cfg.Reputation = config.ReputationConfig{
		Enabled: true,
		Feeds:   []reputation.FeedConfig{{Name: "local", Path: path}},
	}
	c, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger.Discard()})
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Feeds)
	require.NoError(t, c.Engine.RunMaintenance(context.Background(), "refresh_feeds"))
	assert.Equal(t, 1, c.Feeds.Len())
	assert.Equal(t, []string{"local"}, c.Feeds.Match("198.51.100.7"))
}

func TestNewContainer_UnknownNotifier(t *testing.T) {
	cfg := baseConfig()
	cfg.Notify.Targets = []notify.Target{{Name: "pager"}}
	_, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger.Discard()})
	assert.Error(t, err)
}
