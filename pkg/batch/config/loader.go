package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
)

// BytesConfigLoader はバイトスライスから設定をロードする ConfigLoader の実装です。
type BytesConfigLoader struct {
	data []byte
}

// NewBytesConfigLoader は新しい BytesConfigLoader のインスタンスを作成します。
func NewBytesConfigLoader(data []byte) *BytesConfigLoader {
	return &BytesConfigLoader{data: data}
}

// Load は埋め込まれたバイトスライスから設定をロードします。
// 環境変数が設定されている場合、YAML の値を上書きします。
func (l *BytesConfigLoader) Load() (*Config, error) {
	cfg := NewConfig()

	if len(l.data) > 0 {
		if err := yaml.Unmarshal(l.data, cfg); err != nil {
			return nil, exception.NewBatchError("config", exception.KindConfiguration,
				"YAML設定のパースに失敗しました", err)
		}
	}

	loadEnvVars(cfg)

	return cfg, nil
}

// 環境変数で個別の設定値を上書きする関数
func loadEnvVars(cfg *Config) {
	// Database 設定
	if dbType := os.Getenv("DATABASE_TYPE"); dbType != "" {
		cfg.Database.Type = dbType
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPortStr := os.Getenv("DATABASE_PORT"); dbPortStr != "" {
		if dbPort, err := strconv.Atoi(dbPortStr); err == nil {
			cfg.Database.Port = dbPort
		} else {
			logger.Warnf("DATABASE_PORT の値 '%s' が無効です。設定ファイルの値を使用します。", dbPortStr)
		}
	}
	if dbName := os.Getenv("DATABASE_DATABASE"); dbName != "" {
		cfg.Database.Database = dbName
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DATABASE_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if dbSSLMode := os.Getenv("DATABASE_SSLMODE"); dbSSLMode != "" {
		cfg.Database.Sslmode = dbSSLMode
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if migPath := os.Getenv("DATABASE_APP_MIGRATION_PATH"); migPath != "" {
		cfg.Database.AppMigrationPath = migPath
	}
	if maxOpenConnsStr := os.Getenv("DATABASE_MAX_OPEN_CONNS"); maxOpenConnsStr != "" {
		if maxOpenConns, err := strconv.Atoi(maxOpenConnsStr); err == nil {
			cfg.Database.ConnectionPool.MaxOpenConns = maxOpenConns
		} else {
			logger.Warnf("DATABASE_MAX_OPEN_CONNS の値 '%s' が無効です。設定ファイルの値を使用します。", maxOpenConnsStr)
		}
	}
	if maxIdleConnsStr := os.Getenv("DATABASE_MAX_IDLE_CONNS"); maxIdleConnsStr != "" {
		if maxIdleConns, err := strconv.Atoi(maxIdleConnsStr); err == nil {
			cfg.Database.ConnectionPool.MaxIdleConns = maxIdleConns
		} else {
			logger.Warnf("DATABASE_MAX_IDLE_CONNS の値 '%s' が無効です。設定ファイルの値を使用します。", maxIdleConnsStr)
		}
	}
	if connMaxLifetimeStr := os.Getenv("DATABASE_CONN_MAX_LIFETIME_SECONDS"); connMaxLifetimeStr != "" {
		if connMaxLifetime, err := strconv.Atoi(connMaxLifetimeStr); err == nil {
			cfg.Database.ConnectionPool.ConnMaxLifetimeSeconds = connMaxLifetime
		} else {
			logger.Warnf("DATABASE_CONN_MAX_LIFETIME_SECONDS の値 '%s' が無効です。設定ファイルの値を使用します。", connMaxLifetimeStr)
		}
	}

	// Export 設定
	if tablesStr := os.Getenv("EXPORT_TABLES"); tablesStr != "" {
		cfg.Export.Tables = splitTables(tablesStr)
	}
	if outputDir := os.Getenv("EXPORT_OUTPUT_DIR"); outputDir != "" {
		cfg.Export.OutputDir = outputDir
	}
	if chunkSizeStr := os.Getenv("EXPORT_CHUNK_SIZE"); chunkSizeStr != "" {
		if chunkSize, err := strconv.Atoi(chunkSizeStr); err == nil {
			cfg.Export.ChunkSize = chunkSize
		} else {
			logger.Warnf("EXPORT_CHUNK_SIZE の値 '%s' が無効です。設定ファイルの値を使用します。", chunkSizeStr)
		}
	}
	if sep := os.Getenv("EXPORT_CSV_SEPARATOR"); sep != "" {
		cfg.Export.CSV.Separator = sep
	}
	if quoteMode := os.Getenv("EXPORT_CSV_QUOTE_MODE"); quoteMode != "" {
		cfg.Export.CSV.QuoteMode = quoteMode
	}
	if lineTerminator := os.Getenv("EXPORT_CSV_LINE_TERMINATOR"); lineTerminator != "" {
		cfg.Export.CSV.LineTerminator = lineTerminator
	}
	if bucket := os.Getenv("EXPORT_S3_BUCKET"); bucket != "" {
		cfg.Export.S3.Bucket = bucket
	}
	if prefix := os.Getenv("EXPORT_S3_PREFIX"); prefix != "" {
		cfg.Export.S3.Prefix = prefix
	}
	// AWS_DEFAULT_REGION を優先し、無ければ AWS_REGION を使用します。
	if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		cfg.Export.S3.Region = region
	} else if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Export.S3.Region = region
	}

	// Batch 設定
	if jobName := os.Getenv("BATCH_JOB_NAME"); jobName != "" {
		cfg.Batch.JobName = jobName
	}

	// System 設定
	if logLevel := os.Getenv("SYSTEM_LOGGING_LEVEL"); logLevel != "" {
		cfg.System.Logging.Level = logLevel
	}
}

// splitTables はカンマ区切りのテーブル名リストを分解します。空要素は除去されます。
func splitTables(s string) []string {
	var tables []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

// String は接続情報の要約を返します。パスワードは含めません。
func (c DatabaseConfig) String() string {
	return fmt.Sprintf("%s://%s@%s:%d/%s", c.Type, c.User, c.Host, c.Port, c.Database)
}
