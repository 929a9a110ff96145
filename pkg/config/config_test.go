package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeuralTrust/SafeFacts/pkg/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "openai", cfg.Generator.Provider)
	assert.Equal(t, 30*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, 12, cfg.Policy.MaxAge.Child)
	assert.Equal(t, 17, cfg.Policy.MaxAge.Teenager)
	assert.Equal(t, 99, cfg.Policy.MaxAge.Adult)
	assert.Equal(t, 18, cfg.Policy.UnknownRatingAge)
	assert.False(t, cfg.Policy.PostFilterAdult)
	assert.Equal(t, 200, cfg.Policy.MaxTitleLength)
	assert.Equal(t, "memory", cfg.Guard.Backend)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
}

func TestLoad_File(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9000
generator:
  provider: bedrock
  model: anthropic.claude-3-haiku-20240307-v1:0
  timeout: 12s
  options:
    region: eu-west-1
    guardrail_id: gr-1
policy:
  max_age:
    child: 10
    teenager: 16
    adult: 21
  post_filter_adult: true
  extra_keywords:
    - gore
guard:
  backend: redis
  ttl: 2m
`)

	cfg, err := config.LoadFrom(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "bedrock", cfg.Generator.Provider)
	assert.Equal(t, 12*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, "eu-west-1", cfg.Generator.Options["region"])
	assert.Equal(t, 10, cfg.Policy.MaxAge.Child)
	assert.Equal(t, 21, cfg.Policy.MaxAge.Adult)
	assert.True(t, cfg.Policy.PostFilterAdult)
	assert.Equal(t, []string{"gore"}, cfg.Policy.ExtraKeywords)
	assert.Equal(t, "redis", cfg.Guard.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Guard.TTL)

	pc := cfg.Generator.ProviderConfig()
	assert.Equal(t, cfg.Generator.Model, pc.Model)
	assert.Equal(t, "gr-1", pc.Options["guardrail_id"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
generator:
  provider: openai
  api_key: from-file
`)
	t.Setenv("GENERATOR_API_KEY", "from-env")
	t.Setenv("GENERATOR_PROVIDER", "anthropic")
	t.Setenv("POLICY_MAX_AGE_CHILD", "7")

	cfg, err := config.LoadFrom(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Generator.APIKey)
	assert.Equal(t, "anthropic", cfg.Generator.Provider)
	assert.Equal(t, 7, cfg.Policy.MaxAge.Child)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad yaml", body: "server: [", want: "error reading config file"},
		{name: "bad backend", body: "guard:\n  backend: etcd\n", want: "unsupported guard backend"},
		{name: "empty provider", body: "generator:\n  provider: \"\"\n", want: "generator.provider is required"},
		{name: "zero timeout", body: "generator:\n  timeout: 0s\n", want: "generator.timeout must be positive"},
		{
			name: "redis ttl shorter than call",
			body: "generator:\n  timeout: 30s\n  explanation_timeout: 5s\nguard:\n  backend: redis\n  ttl: 20s\n",
			want: "guard.ttl",
		},
		{
			name: "redis ttl equal to call",
			body: "generator:\n  timeout: 30s\n  explanation_timeout: 5s\nguard:\n  backend: redis\n  ttl: 35s\n",
			want: "must exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFrom(viper.New(), writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_RedisTTLCoversCall(t *testing.T) {
	dir := writeConfig(t, "generator:\n  timeout: 30s\n  explanation_timeout: 5s\nguard:\n  backend: redis\n  ttl: 36s\n")

	cfg, err := config.LoadFrom(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, 36*time.Second, cfg.Guard.TTL)
}

func TestLoad_Global(t *testing.T) {
	require.NoError(t, config.Load(writeConfig(t, "server:\n  port: 8181\n")))
	assert.Equal(t, 8181, config.GetConfig().Server.Port)
}
