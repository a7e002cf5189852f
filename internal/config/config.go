// Package config loads application configuration from config.yaml and
// SELLERMETRICS_-prefixed environment variables, and initializes the global
// zap logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Rank     RankConfig     `yaml:"rank" mapstructure:"rank"`
	Sheets   SheetsConfig   `yaml:"sheets" mapstructure:"sheets"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Publish  PublishConfig  `yaml:"publish" mapstructure:"publish"`
	Products ProductsConfig `yaml:"products" mapstructure:"products"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RankConfig holds rank-tracking service credentials and fetch tuning.
type RankConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	AccountID        int     `yaml:"account_id" mapstructure:"account_id"`
	AuthToken        string  `yaml:"auth_token" mapstructure:"auth_token"`
	AccessToken      string  `yaml:"access_token" mapstructure:"access_token"`
	Concurrency      int     `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSec   float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SheetsConfig holds spreadsheet service credentials and per-region
// spreadsheet IDs.
type SheetsConfig struct {
	BaseURL        string            `yaml:"base_url" mapstructure:"base_url"`
	Token          string            `yaml:"token" mapstructure:"token"`
	SpreadsheetIDs map[string]string `yaml:"spreadsheet_ids" mapstructure:"spreadsheet_ids"`
}

// SpreadsheetID returns the spreadsheet ID for a region key (e.g. "uk").
func (c SheetsConfig) SpreadsheetID(region string) string {
	return c.SpreadsheetIDs[region]
}

// SourcesConfig names the export files inside the run's data directory.
// Files are resolved as <dir>/<region>_<name>.
type SourcesConfig struct {
	Dir                    string `yaml:"dir" mapstructure:"dir"`
	SellerboardCurrent     string `yaml:"sellerboard_current" mapstructure:"sellerboard_current"`
	SellerboardHistorical  string `yaml:"sellerboard_historical" mapstructure:"sellerboard_historical"`
	BusinessCurrent        string `yaml:"business_current" mapstructure:"business_current"`
	BusinessHistorical     string `yaml:"business_historical" mapstructure:"business_historical"`
	Campaigns              string `yaml:"campaigns" mapstructure:"campaigns"`
	SNSPerformance         string `yaml:"sns_performance" mapstructure:"sns_performance"`
	SNSProducts            string `yaml:"sns_products" mapstructure:"sns_products"`
}

// PublishConfig anchors the spreadsheet regions rows are written into.
type PublishConfig struct {
	// ProductStartCol is the first column of a product tab's weekly row.
	ProductStartCol string `yaml:"product_start_col" mapstructure:"product_start_col"`
	// SummaryStartCol is the first column of the region summary block.
	SummaryStartCol string `yaml:"summary_start_col" mapstructure:"summary_start_col"`
	// SummarySheetTitle is the region summary tab name.
	SummarySheetTitle string `yaml:"summary_sheet_title" mapstructure:"summary_sheet_title"`
	// StartRow is the first data row on product tabs (row 1 is headers).
	StartRow int `yaml:"start_row" mapstructure:"start_row"`
}

// ProductsConfig locates the product registry file.
type ProductsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the status/webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SELLERMETRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "seller-metrics.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("rank.base_url", "https://h10api.pacvue.com")
	v.SetDefault("rank.concurrency", 10)
	v.SetDefault("rank.requests_per_sec", 5.0)
	v.SetDefault("rank.max_attempts", 3)
	v.SetDefault("rank.initial_backoff_ms", 1000)
	v.SetDefault("rank.max_backoff_ms", 30000)
	v.SetDefault("rank.timeout_secs", 30)
	v.SetDefault("sheets.base_url", "https://sheets.googleapis.com/v4")
	v.SetDefault("sources.sellerboard_current", "dashboard_entries.xlsx")
	v.SetDefault("sources.sellerboard_historical", "dashboard_entries_update.xlsx")
	v.SetDefault("sources.business_current", "BusinessReport.csv")
	v.SetDefault("sources.business_historical", "BusinessReport_update.csv")
	v.SetDefault("sources.campaigns", "Campaigns.csv")
	v.SetDefault("sources.sns_performance", "sns_performance_report.csv")
	v.SetDefault("sources.sns_products", "sns_manage_products.csv")
	v.SetDefault("publish.product_start_col", "B")
	v.SetDefault("publish.summary_start_col", "A")
	v.SetDefault("publish.summary_sheet_title", "Business")
	v.SetDefault("publish.start_row", 2)
	v.SetDefault("products.path", "products.yaml")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
