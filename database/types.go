/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes how to open a database file and tune the wrapper.
type Config struct {
	// Path is the database file on disk. Ignored when InMemory is set.
	Path     string `yaml:"path" json:"path"`
	InMemory bool   `yaml:"in_memory" json:"in_memory"`

	ForeignKeys    bool          `yaml:"foreign_keys" json:"foreign_keys"`
	BusyTimeout    time.Duration `yaml:"busy_timeout" json:"busy_timeout"`
	EnableQueryLog bool          `yaml:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime  time.Duration `yaml:"slow_query_time" json:"slow_query_time"`
	LogLevel       string        `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Path:           "litedb.db",
		ForeignKeys:    true,
		BusyTimeout:    time.Second * 5,
		EnableQueryLog: false,
		SlowQueryTime:  time.Second * 2,
	}
}

// LoadConfig reads a YAML configuration file and applies environment
// overrides on top of it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.overrideFromEnv()
	return cfg, nil
}

// overrideFromEnv overrides configuration values from environment variables.
func (c *Config) overrideFromEnv() {
	if path := os.Getenv("LITEDB_PATH"); path != "" {
		c.Path = path
	}
	if queryLog := os.Getenv("LITEDB_QUERY_LOG"); queryLog != "" {
		c.EnableQueryLog = queryLog == "true" || queryLog == "1"
	}
	if level := os.Getenv("LITEDB_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// DSN assembles the driver connection string for the configured database.
func (c *Config) DSN() string {
	q := url.Values{}
	if c.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.ForeignKeys {
		q.Add("_pragma", "foreign_keys(1)")
	}
	if c.InMemory {
		q.Set("mode", "memory")
		q.Set("cache", "shared")
		return "file::memory:?" + q.Encode()
	}
	dsn := "file:" + c.Path
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}

// SchemaConfig is the YAML structure that declares tables and columns, an
// alternative to declaring the schema in code.
type SchemaConfig struct {
	Tables []TableConfig `yaml:"tables"`
}

// TableConfig describes a single table in configuration.
type TableConfig struct {
	Name    string         `yaml:"name"`
	Columns []ColumnConfig `yaml:"columns"`
}

// ColumnConfig describes a single column in configuration.
type ColumnConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key"`
}

// LoadSchemaConfig reads a YAML schema declaration file.
func LoadSchemaConfig(path string) (*SchemaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	var cfg SchemaConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	return &cfg, nil
}

// ToSchema converts the configuration into a validated Schema.
func (sc *SchemaConfig) ToSchema() (*Schema, error) {
	schema := NewSchema()
	for _, t := range sc.Tables {
		cols := make([]Column, 0, len(t.Columns))
		for _, c := range t.Columns {
			tag, err := ParseTypeTag(c.Type)
			if err != nil {
				return nil, fmt.Errorf("table %q column %q: %w", t.Name, c.Name, err)
			}
			cols = append(cols, Column{Name: c.Name, Type: tag, PrimaryKey: c.PrimaryKey})
		}
		if err := schema.Declare(t.Name, cols...); err != nil {
			return nil, err
		}
	}
	return schema, nil
}
