// pkg/config/file.go
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the project config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ProjectFile is the optional YAML project configuration. Environment
// variables override anything set here; the database password is env-only.
type ProjectFile struct {
	Postgres struct {
		Host     string `yaml:"host,omitempty"`
		Port     int    `yaml:"port,omitempty"`
		User     string `yaml:"user,omitempty"`
		Database string `yaml:"database,omitempty"`
		SSLMode  string `yaml:"sslmode,omitempty"`
		Schema   string `yaml:"schema,omitempty"`
	} `yaml:"postgres"`
	Tables struct {
		Companies string `yaml:"companies,omitempty"`
		Policies  string `yaml:"policies,omitempty"`
	} `yaml:"tables"`
	Cleaning struct {
		ListDelimiter string `yaml:"list_delimiter,omitempty"`
	} `yaml:"cleaning"`
}

func applyProjectFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}

	var file ProjectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	pg := cfg.Postgres
	if file.Postgres.Host != "" {
		pg.Host = file.Postgres.Host
	}
	if file.Postgres.Port != 0 {
		pg.Port = file.Postgres.Port
	}
	if file.Postgres.User != "" {
		pg.User = file.Postgres.User
	}
	if file.Postgres.Database != "" {
		pg.Database = file.Postgres.Database
	}
	if file.Postgres.SSLMode != "" {
		pg.SSLMode = file.Postgres.SSLMode
	}
	if file.Postgres.Schema != "" {
		pg.Schema = file.Postgres.Schema
	}
	if file.Tables.Companies != "" {
		cfg.CompaniesTable = file.Tables.Companies
	}
	if file.Tables.Policies != "" {
		cfg.PoliciesTable = file.Tables.Policies
	}
	if file.Cleaning.ListDelimiter != "" {
		cfg.ListDelimiter = file.Cleaning.ListDelimiter
	}
	return nil
}
