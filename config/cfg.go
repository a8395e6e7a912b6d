package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// ScanCacheConfig controls the per-bundle scan index. An empty directory
	// places the index files under "<skin_dir>/.scancache".
	ScanCacheConfig struct {
		Enable    bool   `yaml:"enable"`
		Directory string `yaml:"directory,omitempty" validate:"omitempty,filepath"`
	}

	PatchConfig struct {
		SkinDir             string          `yaml:"skin_dir,omitempty" sanitize:"path_clean" validate:"omitempty,filepath"`
		BundlesDir          string          `yaml:"bundles_dir,omitempty" sanitize:"path_clean" validate:"omitempty,filepath"`
		OutputDir           string          `yaml:"output_dir,omitempty" sanitize:"path_clean" validate:"omitempty,filepath"`
		PrimaryVariableSink string          `yaml:"primary_variable_sink,omitempty"`
		PrimarySelectorSink string          `yaml:"primary_selector_sink,omitempty"`
		PatchDirect         bool            `yaml:"patch_direct"`
		Backup              bool            `yaml:"backup"`
		BackupSuffix        string          `yaml:"backup_suffix,omitempty"`
		DebugExport         bool            `yaml:"debug_export"`
		DryRun              bool            `yaml:"dry_run"`
		ScanCache           ScanCacheConfig `yaml:"scan_cache"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Patch     PatchConfig    `yaml:"patch"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
