package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

type SchedulerConfig struct {
	MaxIterations     int     `env:"MAX_ITERATIONS" envDefault:"100000"`
	DominanceInterval int     `env:"DOMINANCE_INTERVAL" envDefault:"100"`
	StatusInterval    int     `env:"STATUS_INTERVAL" envDefault:"1000"`
	TimeLimit         int     `env:"TIME_LIMIT" envDefault:"300"` // 秒，0 表示不限制
	MutationRate      float64 `env:"MUTATION_RATE" envDefault:"0.2"`
}

type ReportConfig struct {
	GroupLabel string `env:"GROUP_LABEL" envDefault:"ecnc"`
	OutputDir  string `env:"OUTPUT_DIR" envDefault:"./output"`
}

// LocalConfig 是命令行本地运行需要的配置，不依赖数据库等外部服务
type LocalConfig struct {
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Report    ReportConfig    `envPrefix:"REPORT_"`
}

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Admin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
	} `envPrefix:"ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，即 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN             string `env:"DSN,required"`
		PublishTimeout  int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		AssignmentQueue string `env:"ASSIGNMENT_QUEUE" envDefault:"assignment_queue"`
		EmailQueue      string `env:"EMAIL_QUEUE" envDefault:"email_queue"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host               string `env:"HOST" envDefault:"localhost"`
		Port               int    `env:"PORT" envDefault:"6379"`
		Password           string `env:"PASSWORD,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationTimeout   int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
		ProgressExpiration int    `env:"PROGRESS_EXPIRATION" envDefault:"86400"` // 秒
	} `envPrefix:"REDIS_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Report    ReportConfig    `envPrefix:"REPORT_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadLocalConfig() (*LocalConfig, error) {
	cfg := &LocalConfig{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RunParameters 用配置中的默认值构造运行参数
func (c SchedulerConfig) RunParameters() domain.RunParameters {
	return domain.RunParameters{
		MaxIterations:     c.MaxIterations,
		DominanceInterval: c.DominanceInterval,
		StatusInterval:    c.StatusInterval,
		TimeLimitSeconds:  c.TimeLimit,
		MutationRate:      c.MutationRate,
	}
}

func parse(v any) error {
	if err := env.Parse(v); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return aggErr.Errors[0]
		}
		return err
	}
	return nil
}
