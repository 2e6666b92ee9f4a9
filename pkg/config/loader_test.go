package config_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tilestore/pkg/config"
)

type serverConfig struct {
	Port    int    `env:"TILESTORE_TEST_PORT" envDefault:"8000"`
	AppName string `env:"TILESTORE_TEST_APP_NAME" envDefault:"tilestore"`
	Debug   bool   `env:"TILESTORE_TEST_DEBUG" envDefault:"false"`
}

type overriddenConfig struct {
	Origin string `env:"TILESTORE_TEST_ORIGIN" envDefault:"http://localhost:5173"`
}

type requiredConfig struct {
	Secret string `env:"TILESTORE_TEST_REQUIRED_SECRET,required"`
}

type concurrentConfig struct {
	Value string `env:"TILESTORE_TEST_CONCURRENT" envDefault:"shared"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, 8000, cfg.Port)
		assert.Equal(t, "tilestore", cfg.AppName)
		assert.False(t, cfg.Debug)
	})

	t.Run("reads environment and caches per type", func(t *testing.T) {
		t.Setenv("TILESTORE_TEST_ORIGIN", "https://shop.example.com")

		var first overriddenConfig
		require.NoError(t, config.Load(&first))
		assert.Equal(t, "https://shop.example.com", first.Origin)

		t.Setenv("TILESTORE_TEST_ORIGIN", "https://changed.example.com")

		var second overriddenConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "https://shop.example.com", second.Origin, "second load must come from cache")
	})

	t.Run("missing required value", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)

		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
		assert.Empty(t, cfg.Secret)
	})

	t.Run("nil destination", func(t *testing.T) {
		var cfg *serverConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestLoad_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var cfg concurrentConfig
			if err := config.Load(&cfg); err == nil {
				results[i] = cfg.Value
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestMustLoad(t *testing.T) {
	t.Parallel()

	type missing struct {
		Value string `env:"TILESTORE_TEST_MUST_MISSING,required"`
	}

	assert.Panics(t, func() {
		var cfg missing
		config.MustLoad(&cfg)
	})
}
