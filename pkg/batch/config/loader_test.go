package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/util/exception"
)

// TestBytesConfigLoader_Load はYAMLと環境変数による上書きのロードを検証します。
func TestBytesConfigLoader_Load(t *testing.T) {
	yamlData := []byte(`
database:
  type: mysql
  host: db.internal
  port: 3307
  database: sales
  user: reader
  password: secret
export:
  tables:
    - customers
  output_dir: /data/out
  chunk_size: 500
`)

	t.Run("YAML values are loaded over defaults", func(t *testing.T) {
		cfg, err := config.NewBytesConfigLoader(yamlData).Load()
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 3307, cfg.Database.Port)
		assert.Equal(t, []string{"customers"}, cfg.Export.Tables)
		assert.Equal(t, 500, cfg.Export.ChunkSize)
		// YAML に無い値はデフォルトのまま
		assert.Equal(t, "MINIMAL", cfg.Export.CSV.QuoteMode)
		assert.Equal(t, "table-export", cfg.Batch.JobName)
	})

	t.Run("Environment variables override YAML", func(t *testing.T) {
		t.Setenv("DATABASE_HOST", "override.internal")
		t.Setenv("EXPORT_TABLES", " customers , orders ,, ")
		t.Setenv("EXPORT_CHUNK_SIZE", "25")
		t.Setenv("EXPORT_S3_BUCKET", "my-bucket")
		t.Setenv("AWS_DEFAULT_REGION", "eu-west-1")

		cfg, err := config.NewBytesConfigLoader(yamlData).Load()
		require.NoError(t, err)

		assert.Equal(t, "override.internal", cfg.Database.Host)
		assert.Equal(t, []string{"customers", "orders"}, cfg.Export.Tables, "空要素と空白は除去されること")
		assert.Equal(t, 25, cfg.Export.ChunkSize)
		assert.Equal(t, "my-bucket", cfg.Export.S3.Bucket)
		assert.Equal(t, "eu-west-1", cfg.Export.S3.Region)
	})

	t.Run("Malformed YAML is a ConfigurationError", func(t *testing.T) {
		_, err := config.NewBytesConfigLoader([]byte("database: [")).Load()
		require.Error(t, err)
		assert.Equal(t, exception.KindConfiguration, exception.KindOf(err))
	})
}

// TestConfig_Validate は設定値の検証を確認します。
func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.NewConfig()
		cfg.Database.Database = "sales"
		cfg.Database.User = "reader"
		cfg.Database.Password = "secret"
		cfg.Export.Tables = []string{"customers"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "valid mysql config", mutate: func(c *config.Config) {}, wantErr: false},
		{name: "missing credentials", mutate: func(c *config.Config) { c.Database.Password = "" }, wantErr: true},
		{name: "missing tables", mutate: func(c *config.Config) { c.Export.Tables = nil }, wantErr: true},
		{name: "unsupported database type", mutate: func(c *config.Config) { c.Database.Type = "oracle" }, wantErr: true},
		{name: "sqlite requires path", mutate: func(c *config.Config) { c.Database.Type = "sqlite"; c.Database.Path = "" }, wantErr: true},
		{name: "sqlite with path needs no credentials", mutate: func(c *config.Config) {
			c.Database.Type = "sqlite"
			c.Database.Path = "/tmp/fixture.db"
			c.Database.User = ""
			c.Database.Password = ""
		}, wantErr: false},
		{name: "zero chunk size", mutate: func(c *config.Config) { c.Export.ChunkSize = 0 }, wantErr: true},
		{name: "multi-rune separator", mutate: func(c *config.Config) { c.Export.CSV.Separator = ";;" }, wantErr: true},
		{name: "unknown quote mode", mutate: func(c *config.Config) { c.Export.CSV.QuoteMode = "SOMETIMES" }, wantErr: true},
		{name: "empty line terminator", mutate: func(c *config.Config) { c.Export.CSV.LineTerminator = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, exception.KindConfiguration, exception.KindOf(err),
					"バリデーションエラーは ConfigurationError であること")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestDatabaseConfig_ConnectionString は方言ごとの接続文字列の組み立てを検証します。
func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Type: "mysql", Host: "db", Port: 3306,
		Database: "sales", User: "reader", Password: "secret", Sslmode: "disable",
	}
	assert.Equal(t, "reader:secret@tcp(db:3306)/sales", cfg.ConnectionString())

	cfg.Type = "postgres"
	assert.Equal(t, "postgres://reader:secret@db:3306/sales?sslmode=disable", cfg.ConnectionString())

	cfg.Type = "snowflake"
	assert.Equal(t, "reader:secret@db/sales", cfg.ConnectionString())

	cfg.Type = "sqlite"
	cfg.Path = "/tmp/fixture.db"
	assert.Equal(t, "/tmp/fixture.db", cfg.ConnectionString())
}
