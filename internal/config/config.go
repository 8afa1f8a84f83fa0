// Package config loads and validates the receiver's YAML configuration
// document and derives the per-channel frequency plan.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultRRCAlpha and defaultRRCNumTaps are applied when the
// corresponding optional fields are absent from the document.
const (
	defaultRRCAlpha   = 0.25
	defaultRRCNumTaps = 88
)

// Config is the immutable, validated configuration for one receiver
// instance. Once Load returns a Config it is never mutated.
type Config struct {
	SDR          SDRSettings  `yaml:"sdr_settings"`
	Demod        Demodulation `yaml:"demodulation"`
	Processing   Processing   `yaml:"processing"`
	Frequencies  Frequencies  `yaml:"frequencies"`
	GameSettings GameSettings `yaml:"game_settings"`
	Device       Device       `yaml:"device"`
}

type SDRSettings struct {
	SampleRateSPS int     `yaml:"sample_rate_sps"`
	GainDB        float64 `yaml:"gain_db"`
}

type Demodulation struct {
	SymbolRateBPS     int     `yaml:"symbol_rate_bps"`
	FSKDeviationHz    float64 `yaml:"fsk_deviation_hz"`
	FilterBandwidthHz float64 `yaml:"filter_bandwidth_hz"`
	RRCAlpha          float64 `yaml:"rrc_alpha"`
	RRCNumTaps        int     `yaml:"rrc_num_taps"`
}

type Processing struct {
	BufferSize   int  `yaml:"buffer_size"`
	EnableJammer bool `yaml:"enable_jammer"`
}

// TeamFrequencies is the broadcast/jammer frequency set for one
// receiving team.
type TeamFrequencies struct {
	BroadcastFreq float64 `yaml:"broadcast_freq"`
	Jammer1Freq   float64 `yaml:"jammer_1_freq"`
	Jammer2Freq   float64 `yaml:"jammer_2_freq"`
	Jammer3Freq   float64 `yaml:"jammer_3_freq"`
}

type Frequencies struct {
	RedTeamReceivingBlue TeamFrequencies `yaml:"red_team_receiving_blue"`
	BlueTeamReceivingRed TeamFrequencies `yaml:"blue_team_receiving_red"`
}

type GameSettings struct {
	ReceiveTeam       string `yaml:"receive_team"` // "red" or "blue"
	MyTeam            string `yaml:"my_team"`
	TargetJammerLevel int    `yaml:"target_jammer_level"` // 0..3
}

type Device struct {
	Driver string   `yaml:"driver"`
	Args   []string `yaml:"args"`
}

// Load reads and validates a configuration document from path. A
// missing required field, or rates that don't produce a usable
// samples-per-symbol ratio, is a fatal configuration error returned
// here rather than panicking. sdr_settings.gain_db is the exception:
// an absent gain_db reads as 0 dB and is accepted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if cfg.Demod.RRCAlpha == 0 {
		cfg.Demod.RRCAlpha = defaultRRCAlpha
	}
	if cfg.Demod.RRCNumTaps == 0 {
		cfg.Demod.RRCNumTaps = defaultRRCNumTaps
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SDR.SampleRateSPS <= 0 {
		return fmt.Errorf("config: sdr_settings.sample_rate_sps must be positive")
	}
	if c.Demod.SymbolRateBPS <= 0 {
		return fmt.Errorf("config: demodulation.symbol_rate_bps must be positive")
	}
	if c.Demod.FilterBandwidthHz <= 0 {
		return fmt.Errorf("config: demodulation.filter_bandwidth_hz must be positive")
	}

	sps := float64(c.SDR.SampleRateSPS) / float64(c.Demod.SymbolRateBPS)
	if int(sps+0.5) < 2 {
		return fmt.Errorf("config: sample_rate_sps/symbol_rate_bps must round to >= 2, got %.3f", sps)
	}

	switch c.GameSettings.ReceiveTeam {
	case "red", "blue":
	default:
		return fmt.Errorf("config: game_settings.receive_team must be %q or %q, got %q", "red", "blue", c.GameSettings.ReceiveTeam)
	}

	if c.GameSettings.TargetJammerLevel < 0 || c.GameSettings.TargetJammerLevel > 3 {
		return fmt.Errorf("config: game_settings.target_jammer_level must be 0..3, got %d", c.GameSettings.TargetJammerLevel)
	}

	if c.Demod.FSKDeviationHz <= 0 {
		return fmt.Errorf("config: demodulation.fsk_deviation_hz must be positive")
	}

	return nil
}
