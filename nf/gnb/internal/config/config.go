package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the gNB scheduler core's configuration.
type Config struct {
	SBI           SBIConfig           `yaml:"sbi"`
	NF            NFConfig            `yaml:"nf"`
	Cell          CellConfig          `yaml:"cell"`
	Observability ObservabilityConfig `yaml:"observability"`
	PCAP          PCAPConfig          `yaml:"pcap"`
}

// PCAPConfig controls the scheduler core's capture sidechannel: when
// enabled, committed per-slot grants are written to Path by a
// dedicated goroutine that never blocks the slot loop.
type PCAPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SBIConfig holds the gNB's local service-based-style control surface
// (health/ready/metrics/status); the gNB is not itself an SBA network
// function, but the teacher's every NF exposes this surface and the
// scheduler core benefits from the same operability hooks.
type SBIConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// NFConfig identifies this gNB instance.
type NFConfig struct {
	Name       string `yaml:"name"`
	InstanceID string `yaml:"instance_id"`
}

// CellConfig is the YAML surface for one cell's scheduler tunables,
// mirroring internal/sched/ue.CellConfig's fields plus the numerology
// and grid depth the scheduler package itself doesn't own.
type CellConfig struct {
	Numerology         string  `yaml:"numerology"` // 15kHz, 30kHz, 60kHz, 120kHz
	NRB                uint16  `yaml:"nrb"`
	GridDepth           int     `yaml:"grid_depth"`
	PDSCHSymbolStart    uint8   `yaml:"pdsch_symbol_start"`
	PDSCHSymbolStop     uint8   `yaml:"pdsch_symbol_stop"`
	PUSCHSymbolStart    uint8   `yaml:"pusch_symbol_start"`
	PUSCHSymbolStop     uint8   `yaml:"pusch_symbol_stop"`
	K1FeedbackDelay     uint32  `yaml:"k1_feedback_delay"`
	K2ULDelay           uint32  `yaml:"k2_ul_delay"`
	MaxULGrantsPerSlot  int     `yaml:"max_ul_grants_per_slot"`
	MaxPUCCHsPerSlot    int     `yaml:"max_pucchs_per_slot"`
	RAResponseWindow    uint32  `yaml:"ra_response_window"`
	MaxDLRetx           uint8   `yaml:"max_dl_retx"`
	MaxULRetx           uint8   `yaml:"max_ul_retx"`
	BLERTarget          float32 `yaml:"bler_target"`
	LinkAdaptDelta      float32 `yaml:"link_adapt_delta"`
	TargetPUSCHSINR     float32 `yaml:"target_pusch_sinr"`
	CoresetNumCCEs      uint8   `yaml:"coreset_num_cces"`
	MobilityProcTimeoutSeconds int `yaml:"mobility_proc_timeout_seconds"`
	SSBPeriodSlots      uint32  `yaml:"ssb_period_slots"`
	SSBBeams            uint8   `yaml:"ssb_beams"`
	SIB1PeriodSlots     uint32  `yaml:"sib1_period_slots"`
	CQIDropThreshold    uint8   `yaml:"cqi_drop_threshold"`
	RIDropThreshold     uint8   `yaml:"ri_drop_threshold"`
	// NumDLHARQProcesses and NumULHARQProcesses size every UE's HARQ
	// entity (spec.md §3: "typically 8 DL, 16 UL") when a UE context is
	// created on random-access completion or reestablishment.
	NumDLHARQProcesses int `yaml:"num_dl_harq_processes"`
	NumULHARQProcesses int `yaml:"num_ul_harq_processes"`
}

// ObservabilityConfig mirrors the rest of the pack's observability
// stanza so the gNB is configured the same way every other NF is.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a gNB configuration file, falling back to
// DefaultConfig when the path does not exist (operators can start the
// scheduler core against sane defaults before writing a real config).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for the constraints the
// scheduler core's invariants depend on.
func (c *Config) Validate() error {
	if c.SBI.Port <= 0 || c.SBI.Port > 65535 {
		return fmt.Errorf("invalid SBI port: %d", c.SBI.Port)
	}
	if c.Cell.NRB == 0 {
		return fmt.Errorf("cell.nrb must be > 0")
	}
	if c.Cell.GridDepth < 2 || uint32(c.Cell.GridDepth) <= c.Cell.K1FeedbackDelay || uint32(c.Cell.GridDepth) <= c.Cell.K2ULDelay {
		return fmt.Errorf("cell.grid_depth must exceed the maximum feedback delay")
	}
	if c.Cell.PDSCHSymbolStop <= c.Cell.PDSCHSymbolStart || c.Cell.PDSCHSymbolStop > 14 {
		return fmt.Errorf("invalid cell.pdsch_symbol range")
	}
	if c.Cell.PUSCHSymbolStop <= c.Cell.PUSCHSymbolStart || c.Cell.PUSCHSymbolStop > 14 {
		return fmt.Errorf("invalid cell.pusch_symbol range")
	}
	if c.Cell.NumDLHARQProcesses <= 0 || c.Cell.NumULHARQProcesses <= 0 {
		return fmt.Errorf("cell.num_dl_harq_processes and cell.num_ul_harq_processes must be > 0")
	}
	return nil
}

// DefaultConfig returns sane defaults for a single-cell 50-RB/30kHz-SCS
// deployment.
func DefaultConfig() *Config {
	return &Config{
		SBI: SBIConfig{BindAddress: "0.0.0.0", Port: 8080},
		NF:  NFConfig{Name: "gnb-1", InstanceID: "00000000-0000-0000-0000-000000000001"},
		Cell: CellConfig{
			Numerology:                 "30kHz",
			NRB:                        50,
			GridDepth:                  8,
			PDSCHSymbolStart:           1,
			PDSCHSymbolStop:            14,
			PUSCHSymbolStart:           0,
			PUSCHSymbolStop:            14,
			K1FeedbackDelay:            4,
			K2ULDelay:                  4,
			MaxULGrantsPerSlot:         8,
			MaxPUCCHsPerSlot:           8,
			RAResponseWindow:           10,
			MaxDLRetx:                  4,
			MaxULRetx:                  4,
			BLERTarget:                 0.1,
			LinkAdaptDelta:             0.1,
			TargetPUSCHSINR:            10.0,
			CoresetNumCCEs:             32,
			MobilityProcTimeoutSeconds: 2,
			SSBPeriodSlots:             20,
			SSBBeams:                   1,
			SIB1PeriodSlots:            20,
			CQIDropThreshold:           4,
			RIDropThreshold:            1,
			NumDLHARQProcesses:         8,
			NumULHARQProcesses:         16,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Port: 9090},
			Tracing: TracingConfig{Enabled: false, Exporter: "otlp"},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
		PCAP: PCAPConfig{Enabled: false, Path: "gnb.pcap"},
	}
}
