package config

import "time"

// Layout and limit mode names accepted in configuration.
const (
	LayoutRanked = "ranked"
	LayoutDense  = "dense"

	LimitModeLines = "lines"
	LimitModeRank  = "rank"

	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root build configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Sources SourcesConfig `yaml:"sources"`
	JMdict  JMdictConfig  `yaml:"jmdict"`
	Audio   AudioConfig   `yaml:"audio"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`

	Timeout time.Duration `yaml:"timeout" env:"VOCAB_TIMEOUT" env-default:"30m"`
	DryRun  bool          `yaml:"dry_run" env:"VOCAB_DRY_RUN"`
}

// CacheConfig holds the download cache location.
type CacheConfig struct {
	Dir string `yaml:"dir" env:"CACHE_DIR" env-default:"."`
}

// SourcesConfig locates the upstream datasets.
type SourcesConfig struct {
	FrequencyURL  string   `yaml:"frequency_url"   env:"SOURCES_FREQUENCY_URL"   env-default:"https://github.com/Kuuuube/yomitan-dictionaries/raw/main/data/jpdb_v2.2_freq_list_2024-10-13.csv"`
	FrequencyFile string   `yaml:"frequency_file"  env:"SOURCES_FREQUENCY_FILE"  env-default:"jpdb_v22.csv"`
	JMdictHost    string   `yaml:"jmdict_host"     env:"SOURCES_JMDICT_HOST"     env-default:"ftp.edrdg.org"`
	JMdictDir     string   `yaml:"jmdict_dir"      env:"SOURCES_JMDICT_DIR"      env-default:"/pub/Nihongo/"`
	JMdictFile    string   `yaml:"jmdict_file"     env:"SOURCES_JMDICT_FILE"     env-default:"JMdict.gz"`
	MigakuBaseURL string   `yaml:"migaku_base_url" env:"SOURCES_MIGAKU_BASE_URL" env-default:"https://github.com/migaku-official/Migaku-Japanese-Addon/raw/refs/heads/master/src/dict/"`
	MigakuFiles   []string `yaml:"migaku_files"    env:"SOURCES_MIGAKU_FILES"    env-default:"compAccDict1_.json,compAccDict2_.json" env-separator:","`
}

// JMdictConfig controls the glossed vocabulary deck.
type JMdictConfig struct {
	Output         string `yaml:"output"          env:"JMDICT_OUTPUT"          env-default:"jmdict9k.tsv"`
	Layout         string `yaml:"layout"          env:"JMDICT_LAYOUT"          env-default:"ranked"`
	GlossSeparator string `yaml:"gloss_separator" env:"JMDICT_GLOSS_SEPARATOR"`
	LimitMode      string `yaml:"limit_mode"      env:"JMDICT_LIMIT_MODE"      env-default:"rank"`
	LimitValue     int    `yaml:"limit_value"     env:"JMDICT_LIMIT_VALUE"     env-default:"10000"`
	RowLimit       int    `yaml:"row_limit"       env:"JMDICT_ROW_LIMIT"       env-default:"9999"`
}

// AudioConfig controls the pronunciation audio deck.
type AudioConfig struct {
	Output     string `yaml:"output"      env:"AUDIO_OUTPUT"      env-default:"output_audio.csv"`
	LimitMode  string `yaml:"limit_mode"  env:"AUDIO_LIMIT_MODE"  env-default:"lines"`
	LimitValue int    `yaml:"limit_value" env:"AUDIO_LIMIT_VALUE" env-default:"12137"`
	RowLimit   int    `yaml:"row_limit"   env:"AUDIO_ROW_LIMIT"   env-default:"9999"`
}

// StoreConfig selects where finished rows are published, if anywhere.
type StoreConfig struct {
	Driver    string         `yaml:"driver"     env:"STORE_DRIVER"     env-default:"none"`
	BatchSize int            `yaml:"batch_size" env:"STORE_BATCH_SIZE" env-default:"500"`
	Postgres  DatabaseConfig `yaml:"postgres"`
	SQLite    SQLiteConfig   `yaml:"sqlite"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"SQLITE_PATH"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
