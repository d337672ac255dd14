package application

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	readings "eiep3-loader/internal/readings/domain"
	"eiep3-loader/internal/readings/infrastructure/source"
)

// Extraction methods.
const (
	MethodLocal = "local"
	MethodSFTP  = "sftp"
)

// SourceConfig selects and configures the line source for batch runs.
type SourceConfig struct {
	Method string            `yaml:"method"`
	Local  LocalConfig       `yaml:"local"`
	SFTP   source.SFTPConfig `yaml:"sftp"`
}

// LocalConfig points at a local EIEP3 file.
type LocalConfig struct {
	Path string `yaml:"path"`
}

// LoadSourceConfig loads source settings from env with an optional yaml
// overlay named by EIEP3_CONFIG.
func LoadSourceConfig() (SourceConfig, error) {
	cfg := SourceConfig{
		Method: getenvDefault("EIEP3_METHOD", MethodLocal),
		Local:  LocalConfig{Path: os.Getenv("EIEP3_FILE")},
		SFTP: source.SFTPConfig{
			Host:     os.Getenv("EIEP3_SFTP_HOST"),
			Port:     getenvIntDefault("EIEP3_SFTP_PORT", 22),
			Username: os.Getenv("EIEP3_SFTP_USER"),
			Password: os.Getenv("EIEP3_SFTP_PASSWORD"),
			Path:     os.Getenv("EIEP3_SFTP_PATH"),
		},
	}

	if path := os.Getenv("EIEP3_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// BuildSource resolves the configured extraction method into a line source.
func (c SourceConfig) BuildSource() (readings.LineSource, error) {
	switch c.Method {
	case MethodLocal:
		src, err := source.NewLocalSource(c.Local.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", readings.ErrConfiguration, err)
		}
		return src, nil
	case MethodSFTP:
		src, err := source.NewSFTPSource(c.SFTP)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", readings.ErrConfiguration, err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: unknown extraction method %q", readings.ErrConfiguration, c.Method)
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
