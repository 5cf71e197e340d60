package config

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

type Config struct {
	App     App     `yaml:"app"`
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Auth    Auth    `yaml:"auth"`
	DB      *sql.DB `yaml:"db"`
}

type App struct {
	Environment string `yaml:"environment"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type Storage struct {
	Root          string `yaml:"root"`
	PublicBaseUrl string `yaml:"public_base_url"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	return &Config{
		App: App{
			Environment: viper.GetString("app.environment"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Storage: Storage{
			Root:          viper.GetString("storage.root"),
			PublicBaseUrl: viper.GetString("storage.public_base_url"),
		},
		Auth: Auth{
			JWTSecret: viper.GetString("auth.jwt_secret"),
		},
		DB: db,
	}, nil
}
