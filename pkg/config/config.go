// Package config provides configuration loading and management for spyboat.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"spyboat/internal/fault"
	"spyboat/pkg/mask"
	"spyboat/pkg/wavelet"
)

// Masking modes
const (
	MaskNone    = "none"
	MaskFixed   = "fixed"
	MaskDynamic = "dynamic"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Wavelet analysis parameters
	Wavelet struct {
		// Dt is the sampling interval, in the time unit of the periods
		Dt float64 `yaml:"dt"`

		// Tmin and Tmax bound the scanned periods. Tmin is a pointer so that
		// an explicit 0 reaches the Nyquist correction instead of reading
		// as missing.
		Tmin *float64 `yaml:"tmin"`
		Tmax float64  `yaml:"tmax"`

		// NT is the number of periods scanned
		NT int `yaml:"nT"`

		// TCutoff enables sinc detrending with this cutoff period
		TCutoff *float64 `yaml:"tCutoff,omitempty"`

		// WinSize enables amplitude normalization with this window
		WinSize *float64 `yaml:"winSize,omitempty"`
	} `yaml:"wavelet"`

	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many row blocks are processed in parallel
		NumWorkers int `yaml:"numWorkers"`

		// Convolution selects "fft" or "direct"
		Convolution string `yaml:"convolution"`
	} `yaml:"processing"`

	// Preprocessing applied before masking and analysis
	Preprocessing struct {
		// Rescale is the down-sampling percentage, 0 or 100 to disable
		Rescale float64 `yaml:"rescale"`

		// GaussSigma is the blur width in pixels, 0 to disable
		GaussSigma float64 `yaml:"gaussSigma"`
	} `yaml:"preprocessing"`

	// Masking of background pixels in the results
	Masking struct {
		// Mode is "none", "fixed" or "dynamic"
		Mode string `yaml:"mode"`

		// Frame is the reference frame of a fixed mask
		Frame *int `yaml:"frame,omitempty"`

		// Threshold is a number or "otsu"
		Threshold string `yaml:"threshold"`

		// FillValue replaces masked result values
		FillValue float64 `yaml:"fillValue"`
	} `yaml:"masking"`

	// Output parameters
	Output struct {
		// Directory receives the result movies
		Directory string `yaml:"directory"`

		// SavePreprocessed also writes the preprocessed input movie
		SavePreprocessed bool `yaml:"savePreprocessed"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
// The wavelet section is left empty since it depends on the recording.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.Convolution = string(wavelet.ConvolveFFT)

	cfg.Preprocessing.Rescale = 0
	cfg.Preprocessing.GaussSigma = 0

	cfg.Masking.Mode = MaskNone
	cfg.Masking.Threshold = "otsu"
	cfg.Masking.FillValue = -1

	cfg.Output.Directory = "spyboat_results"
	cfg.Output.SavePreprocessed = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path.
// The wavelet section carries example values to be edited.
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	cfg.Wavelet.Dt = 10
	cfg.Wavelet.Tmin = wavelet.Float(60)
	cfg.Wavelet.Tmax = 300
	cfg.Wavelet.NT = 200
	return SaveConfig(cfg, configPath)
}

// WaveletParameters converts the wavelet and processing sections.
func (c *Config) WaveletParameters() (wavelet.Parameters, error) {
	w := c.Wavelet
	switch {
	case w.Dt == 0:
		return wavelet.Parameters{}, fmt.Errorf("%w: wavelet.dt", fault.ErrMissingParameter)
	case w.Tmin == nil:
		return wavelet.Parameters{}, fmt.Errorf("%w: wavelet.tmin", fault.ErrMissingParameter)
	case w.Tmax == 0:
		return wavelet.Parameters{}, fmt.Errorf("%w: wavelet.tmax", fault.ErrMissingParameter)
	case w.NT == 0:
		return wavelet.Parameters{}, fmt.Errorf("%w: wavelet.nT", fault.ErrMissingParameter)
	}

	p := wavelet.Parameters{
		Dt:      w.Dt,
		Tmin:    *w.Tmin,
		Tmax:    w.Tmax,
		NT:      w.NT,
		TCutoff: w.TCutoff,
		WinSize: w.WinSize,
		Method:  wavelet.ConvolutionMethod(c.Processing.Convolution),
	}
	return p, p.Validate()
}

// MaskThreshold parses the masking threshold.
func (c *Config) MaskThreshold() (mask.Threshold, error) {
	return mask.ParseThreshold(c.Masking.Threshold)
}

// Validate checks the sections that do not depend on the input movie.
func (c *Config) Validate() error {
	if _, err := c.WaveletParameters(); err != nil {
		return err
	}
	if c.Processing.NumWorkers <= 0 {
		return fmt.Errorf("%w: processing.numWorkers must be at least 1, got %d", fault.ErrInvalidWorkers, c.Processing.NumWorkers)
	}
	if r := c.Preprocessing.Rescale; r < 0 || r > 100 {
		return fmt.Errorf("%w: preprocessing.rescale must be a percentage in (0, 100], got %g", fault.ErrInvalidParameter, r)
	}
	if c.Preprocessing.GaussSigma < 0 {
		return fmt.Errorf("%w: preprocessing.gaussSigma must not be negative", fault.ErrInvalidParameter)
	}

	switch c.Masking.Mode {
	case "", MaskNone:
	case MaskFixed:
		if c.Masking.Frame == nil {
			return fmt.Errorf("%w: masking.frame is required for fixed masks", fault.ErrMissingParameter)
		}
		fallthrough
	case MaskDynamic:
		if _, err := c.MaskThreshold(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown masking mode %q", fault.ErrInvalidParameter, c.Masking.Mode)
	}
	return nil
}
