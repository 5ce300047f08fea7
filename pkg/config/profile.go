package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// GovernanceProfile overrides protocol parameters per deployment. Zero
// values fall back to the normative constants.
type GovernanceProfile struct {
	Name                string  `yaml:"name" json:"name"`
	OracleWindow        uint64  `yaml:"oracle_window,omitempty" json:"oracle_window,omitempty"`
	ActiveSetSize       int     `yaml:"active_set_size,omitempty" json:"active_set_size,omitempty"`
	SlashNonRevealBp    uint64  `yaml:"slash_non_reveal_bp,omitempty" json:"slash_non_reveal_bp,omitempty"`
	SlashInactivityBp   uint64  `yaml:"slash_inactivity_bp,omitempty" json:"slash_inactivity_bp,omitempty"`
	BaseQuorum          float64 `yaml:"base_quorum,omitempty" json:"base_quorum,omitempty"`
	BaseTimelockSeconds uint64  `yaml:"base_timelock_s,omitempty" json:"base_timelock_s,omitempty"`
	TotalSupply         uint64  `yaml:"total_supply,omitempty" json:"total_supply,omitempty"`
}

// DefaultProfile returns the normative parameters.
func DefaultProfile() *GovernanceProfile {
	return &GovernanceProfile{
		Name:                "default",
		OracleWindow:        contracts.OracleWindow,
		ActiveSetSize:       contracts.ActiveOracleSetSize,
		SlashNonRevealBp:    1500,
		SlashInactivityBp:   500,
		BaseQuorum:          contracts.BaseQuorum,
		BaseTimelockSeconds: contracts.BaseTimelockSeconds,
		TotalSupply:         100_000_000_000,
	}
}

// LoadProfile reads a governance profile YAML, filling unset fields from
// the defaults.
func LoadProfile(path string) (*GovernanceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}

	profile := DefaultProfile()
	var overrides GovernanceProfile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", path, err)
	}

	if overrides.Name != "" {
		profile.Name = overrides.Name
	}
	if overrides.OracleWindow != 0 {
		profile.OracleWindow = overrides.OracleWindow
	}
	if overrides.ActiveSetSize != 0 {
		profile.ActiveSetSize = overrides.ActiveSetSize
	}
	if overrides.SlashNonRevealBp != 0 {
		profile.SlashNonRevealBp = overrides.SlashNonRevealBp
	}
	if overrides.SlashInactivityBp != 0 {
		profile.SlashInactivityBp = overrides.SlashInactivityBp
	}
	if overrides.BaseQuorum != 0 {
		profile.BaseQuorum = overrides.BaseQuorum
	}
	if overrides.BaseTimelockSeconds != 0 {
		profile.BaseTimelockSeconds = overrides.BaseTimelockSeconds
	}
	if overrides.TotalSupply != 0 {
		profile.TotalSupply = overrides.TotalSupply
	}
	return profile, nil
}
