package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Port             string `mapstructure:"PORT" validate:"required,numeric"`
	GRPCPort         string `mapstructure:"GRPC_PORT" validate:"omitempty,numeric"`
	ServiceName      string `mapstructure:"SERVICE_NAME" validate:"required"`
	LogLevel         string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat        string `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	BatchSize        int    `mapstructure:"BATCH_SIZE" validate:"gt=0"`
	DatabaseDriver   string `mapstructure:"DATABASE_DRIVER" validate:"oneof=postgres sqlite"`
	SQLitePath       string `mapstructure:"SQLITE_PATH" validate:"required_if=DatabaseDriver sqlite"`
	PostgresUsername string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDatabase string `mapstructure:"POSTGRES_DATABASE" validate:"required_if=DatabaseDriver postgres"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"`
	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	AWSBucket        string `mapstructure:"AWS_BUCKET"`
	AWSDefaultRegion string `mapstructure:"AWS_DEFAULT_REGION"`
	AWSAccessKey     string `mapstructure:"AWS_ACCESS_KEY"`
	AWSSecretKey     string `mapstructure:"AWS_SECRET_KEY"`
	ModelPrototxt    string `mapstructure:"MODEL_PROTOTXT"`
	ModelWeights     string `mapstructure:"MODEL_WEIGHTS"`
	ModelMean        string `mapstructure:"MODEL_MEAN"`
	SampleImage      string `mapstructure:"SAMPLE_IMAGE"`
	FilterLayer      string `mapstructure:"FILTER_LAYER"`
	FilterOutput     string `mapstructure:"FILTER_OUTPUT"`
	FilterScale      int    `mapstructure:"FILTER_SCALE" validate:"gt=0"`
}

var keys = []string{
	"PORT",
	"GRPC_PORT",
	"SERVICE_NAME",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"BATCH_SIZE",
	"DATABASE_DRIVER",
	"SQLITE_PATH",
	"POSTGRES_USERNAME",
	"POSTGRES_PASSWORD",
	"POSTGRES_DATABASE",
	"POSTGRES_SSLMODE",
	"POSTGRES_HOST",
	"POSTGRES_PORT",
	"RABBITMQ_URL",
	"AWS_ENDPOINT",
	"AWS_BUCKET",
	"AWS_DEFAULT_REGION",
	"AWS_ACCESS_KEY",
	"AWS_SECRET_KEY",
	"MODEL_PROTOTXT",
	"MODEL_WEIGHTS",
	"MODEL_MEAN",
	"SAMPLE_IMAGE",
	"FILTER_LAYER",
	"FILTER_OUTPUT",
	"FILTER_SCALE",
}

// Read loads .env (when present) and the process environment. It panics on a
// config that cannot be decoded or fails validation.
func Read() *AppConfig {
	appConfig, err := Load(".env")
	if err != nil {
		panic(fmt.Errorf("fatal error reading config: %w", err))
	}
	return appConfig
}

func Load(envFile string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	bindEnvVariables(v)
	setDefaults(v)

	var appConfig AppConfig
	if err := v.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := appConfig.Validate(); err != nil {
		return nil, err
	}

	return &appConfig, nil
}

func (c *AppConfig) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *AppConfig) BrokerEnabled() bool {
	return c.RabbitMQURL != ""
}

func (c *AppConfig) StorageEnabled() bool {
	return c.AWSBucket != ""
}

func bindEnvVariables(v *viper.Viper) {
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GRPC_PORT", "9090")
	v.SetDefault("SERVICE_NAME", "imagematch")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("BATCH_SIZE", 50)
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "data/imagematch.db")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("FILTER_LAYER", "conv1")
	v.SetDefault("FILTER_OUTPUT", "data/filter-1.png")
	v.SetDefault("FILTER_SCALE", 4)
}
