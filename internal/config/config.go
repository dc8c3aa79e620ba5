// Package config loads application configuration from a yaml file,
// environment variables, and built-in defaults, and initializes the
// global logger.
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
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input datasets.
type DataConfig struct {
	Dir           string    `yaml:"dir" mapstructure:"dir"`
	RasterPattern string    `yaml:"raster_pattern" mapstructure:"raster_pattern"`
	Polygons      string    `yaml:"polygons" mapstructure:"polygons"`
	Datasets      []Dataset `yaml:"datasets" mapstructure:"datasets"`
}

// Dataset names a downloadable source archive.
type Dataset struct {
	Name string `yaml:"name" mapstructure:"name"`
	URL  string `yaml:"url" mapstructure:"url"`
}

// PipelineConfig tunes the reclassify/aggregate/accumulate pipeline.
type PipelineConfig struct {
	TileSize    int    `yaml:"tile_size" mapstructure:"tile_size"`
	Workers     int    `yaml:"workers" mapstructure:"workers"`
	CropFromCol int    `yaml:"crop_from_col" mapstructure:"crop_from_col"`
	CropToCol   int    `yaml:"crop_to_col" mapstructure:"crop_to_col"`
	PolygonCRS  string `yaml:"polygon_crs" mapstructure:"polygon_crs"`

	// NoDataCodes and ReplaceCodes define the reclassification rule.
	// Codes listed in NoDataCodes become no-data; keys of ReplaceCodes are
	// rewritten to their values; everything else passes through unchanged.
	NoDataCodes  []float64          `yaml:"nodata_codes" mapstructure:"nodata_codes"`
	ReplaceCodes map[string]float64 `yaml:"replace_codes" mapstructure:"replace_codes"`
}

// StoreConfig configures the local run-log database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ExportConfig configures the optional PostGIS export sink.
type ExportConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml, LANDCOVER_* environment
// variables, and defaults, in that order of precedence.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.raster_pattern", "landcover_%d.tif")
	v.SetDefault("data.polygons", "data/parroquias/parroquias.shp")
	v.SetDefault("pipeline.tile_size", 4000)
	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.crop_from_col", 0)
	v.SetDefault("pipeline.crop_to_col", 0)
	v.SetDefault("pipeline.polygon_crs", "EPSG:4326")
	v.SetDefault("pipeline.nodata_codes", []float64{0, 3, 4})
	v.SetDefault("pipeline.replace_codes", map[string]float64{"2": 0})
	v.SetDefault("store.path", "landcover.db")
	v.SetDefault("export.table", "zonal_means")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
