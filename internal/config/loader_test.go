package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rankengine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1_024)
				convey.So(cfg.Criteria, convey.ShouldHaveLength, 5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RANKENGINE_ADDR", ":8080")
			_ = os.Setenv("RANKENGINE_QUEUE_SIZE", "64")
			_ = os.Setenv("RANKENGINE_WORKER_COUNT", "2")
			_ = os.Setenv("RANKENGINE_STORAGE_DRIVER", "sqlite")
			_ = os.Setenv("RANKENGINE_STORAGE_DSN", "file:rank.db")
			_ = os.Setenv("RANKENGINE_STRENGTH_THRESHOLD", "85.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.StorageDSN, convey.ShouldEqual, "file:rank.db")
				convey.So(cfg.StrengthThreshold, convey.ShouldEqual, 85.5)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
max_attempts: 5
criteria:
  - id: vendas
    name: Vendas
    weight: 60
    direction: higher_better
    display_order: 1
    active: true
  - id: atrasos
    name: Pontualidade
    weight: 40
    direction: lower_better
    display_order: 2
    active: true
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKENGINE_CONFIG", tmpFile)
			_ = os.Setenv("RANKENGINE_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.MaxAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 500)
			})

			convey.Convey("Then the file criteria should replace the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Criteria, convey.ShouldHaveLength, 2)
				convey.So(cfg.Criteria[1].Direction, convey.ShouldEqual, "lower_better")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKENGINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RANKENGINE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RANKENGINE_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unsupported storage driver", func() {
			_ = os.Setenv("RANKENGINE_STORAGE_DRIVER", "mongodb")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RANKENGINE_CONFIG",
		"RANKENGINE_ADDR",
		"RANKENGINE_QUEUE_SIZE",
		"RANKENGINE_WORKER_COUNT",
		"RANKENGINE_STORAGE_DRIVER",
		"RANKENGINE_STORAGE_DSN",
		"RANKENGINE_STRENGTH_THRESHOLD",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rankengine-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
