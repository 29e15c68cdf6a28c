package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassanidea/Subscription-Status-Viewer/pkg/config"
)

type testConfig struct {
	Name    string `env:"TEST_CFG_NAME" envDefault:"fallback"`
	Port    int    `env:"TEST_CFG_PORT" envDefault:"8080"`
	Secret  string `env:"TEST_CFG_SECRET"`
	Require string `env:"TEST_CFG_REQUIRED,required"`
}

func TestLoad(t *testing.T) {
	t.Run("parses values and defaults", func(t *testing.T) {
		t.Setenv("TEST_CFG_NAME", "billing")
		t.Setenv("TEST_CFG_REQUIRED", "set")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "billing", cfg.Name)
		assert.Equal(t, 8080, cfg.Port)
		assert.Empty(t, cfg.Secret)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		var cfg testConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer rejected", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoadPanics(t *testing.T) {
	assert.Panics(t, func() {
		var cfg testConfig
		config.MustLoad(&cfg)
	})
}
