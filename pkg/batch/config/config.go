package config

import (
	"fmt"
	"strings"

	"ingest/pkg/batch/util/exception"
)

// EmbeddedConfig は、埋め込まれた設定ファイルの内容を保持するためのフィールドです。
// main.go から渡される埋め込み設定を格納します。
type EmbeddedConfig []byte

// ConnectionPoolConfig はデータベースコネクションプールの設定を保持します。
type ConnectionPoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds"`
}

// DatabaseConfig は抽出元データベースへの接続設定を保持します。
type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Sslmode  string `yaml:"sslmode"`
	// Path は sqlite 使用時のデータベースファイルパスです。
	Path string `yaml:"path"`
	// AppMigrationPath はマイグレーションファイルのパスです。空の場合はスキップされます。
	AppMigrationPath string               `yaml:"app_migration_path"`
	ConnectionPool   ConnectionPoolConfig `yaml:"connection_pool"`
}

// ConnectionString はデータベースタイプに応じた接続文字列を返します。
func (c DatabaseConfig) ConnectionString() string {
	switch strings.ToLower(c.Type) {
	case "postgres", "redshift":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.Database, c.Sslmode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "snowflake":
		// Host にはアカウント識別子を指定します。
		return fmt.Sprintf("%s:%s@%s/%s", c.User, c.Password, c.Host, c.Database)
	case "sqlite":
		return c.Path
	default:
		return ""
	}
}

// CSVConfig は出力する CSV の書式設定を保持します。
type CSVConfig struct {
	Separator      string `yaml:"separator"`
	QuoteMode      string `yaml:"quote_mode"` // MINIMAL / ALL / NONNUMERIC / NONE
	LineTerminator string `yaml:"line_terminator"`
}

// S3Config はエクスポート後のアップロード先 S3 の設定を保持します。
// Bucket が空の場合、アップロードは行われません。
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// ExportConfig はテーブルエクスポートの設定を保持します。
type ExportConfig struct {
	Tables    []string  `yaml:"tables"`
	OutputDir string    `yaml:"output_dir"`
	ChunkSize int       `yaml:"chunk_size"`
	CSV       CSVConfig `yaml:"csv"`
	S3        S3Config  `yaml:"s3"`
}

type BatchConfig struct {
	JobName string `yaml:"job_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

type Config struct {
	Database       DatabaseConfig `yaml:"database"`
	Export         ExportConfig   `yaml:"export"`
	Batch          BatchConfig    `yaml:"batch"`
	System         SystemConfig   `yaml:"system"`
	EmbeddedConfig EmbeddedConfig `yaml:"-"` // 埋め込み設定。YAMLからは読み込まない。
}

// NewConfig は Config の新しいインスタンスをデフォルト値で返します。
func NewConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:    "mysql",
			Host:    "localhost",
			Port:    3306,
			Sslmode: "disable",
		},
		Export: ExportConfig{
			OutputDir: "/app/out",
			ChunkSize: 100000,
			CSV: CSVConfig{
				Separator:      ",",
				QuoteMode:      "MINIMAL",
				LineTerminator: "\n",
			},
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Batch: BatchConfig{
			JobName: "table-export",
		},
		System: SystemConfig{
			Timezone: "UTC",
			Logging:  LoggingConfig{Level: "INFO"},
		},
	}
}

// 有効な CSV クオートモードの一覧です。
var validQuoteModes = map[string]bool{
	"MINIMAL":    true,
	"ALL":        true,
	"NONNUMERIC": true,
	"NONE":       true,
}

// Validate は設定値を検証します。不足・不正があれば ConfigurationError を返します。
// ネットワークアクセスを行う前に呼び出される必要があります。
func (c *Config) Validate() error {
	dbType := strings.ToLower(c.Database.Type)
	switch dbType {
	case "sqlite":
		if c.Database.Path == "" {
			return exception.NewBatchErrorf("config", exception.KindConfiguration,
				"database.path が設定されていません (type: sqlite)")
		}
	case "mysql", "postgres", "redshift", "snowflake":
		if c.Database.Database == "" || c.Database.User == "" || c.Database.Password == "" {
			return exception.NewBatchErrorf("config", exception.KindConfiguration,
				"必須の接続パラメータが不足しています: database.database, database.user, database.password")
		}
	default:
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"未対応のデータベースタイプ: %s", c.Database.Type)
	}

	if len(c.Export.Tables) == 0 {
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"エクスポート対象のテーブルが指定されていません (export.tables / EXPORT_TABLES)")
	}
	if c.Export.OutputDir == "" {
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"出力ディレクトリが指定されていません (export.output_dir)")
	}
	if c.Export.ChunkSize <= 0 {
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"チャンクサイズは 1 以上である必要があります: %d", c.Export.ChunkSize)
	}
	if len([]rune(c.Export.CSV.Separator)) != 1 {
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"CSV 区切り文字は 1 文字である必要があります: %q", c.Export.CSV.Separator)
	}
	if !validQuoteModes[strings.ToUpper(c.Export.CSV.QuoteMode)] {
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"不明な CSV クオートモード: %s", c.Export.CSV.QuoteMode)
	}
	if c.Export.CSV.LineTerminator == "" {
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"CSV 行終端文字が空です")
	}
	return nil
}
