package main

import (
	"flag"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nikmy/txprop/internal/api"
	"github.com/nikmy/txprop/internal/session/mongosession"
	"github.com/nikmy/txprop/internal/session/sqlsession"
	"github.com/nikmy/txprop/pkg/environment"
	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/txn"
)

type Config struct {
	Environment environment.Env     `yaml:"Environment"`
	Postgres    sqlsession.Config   `yaml:"Postgres"`
	Mongo       mongosession.Config `yaml:"Mongo"`
	HTTP        api.Config          `yaml:"HTTP"`
	Txn         TxnConfig           `yaml:"Txn"`
}

type TxnConfig struct {
	Isolation txn.IsolationLevel `yaml:"isolation"`
	Policy    txn.Policy         `yaml:"policy"`
}

func loadConfig() (*Config, error) {
	configPath := flag.String("config", "config.yaml", "path to config file")
	rawEnv := flag.String("env", "", "environment (dev, prod)")
	flag.Parse()

	path, err := filepath.Abs(*configPath)
	if err != nil {
		return nil, errors.WrapFail(err, "build path to config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFailf(err, "read %q", path)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}

	if *rawEnv != "" {
		cfg.Environment = environment.FromString(*rawEnv)
	}

	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, errors.WrapFail(err, "parse yaml")
	}

	if cfg.Postgres.DSN == "" {
		return nil, errors.Error("Postgres.dsn is required")
	}

	return &cfg, nil
}
