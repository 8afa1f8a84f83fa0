package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planConfig(enableJammer bool, level int) *Config {
	return &Config{
		Processing: Processing{EnableJammer: enableJammer},
		Frequencies: Frequencies{
			RedTeamReceivingBlue: TeamFrequencies{
				BroadcastFreq: 433000000,
				Jammer1Freq:   433100000,
				Jammer2Freq:   433200000,
				Jammer3Freq:   433300000,
			},
		},
		GameSettings: GameSettings{ReceiveTeam: "red", TargetJammerLevel: level},
	}
}

func TestFrequencyPlanJammerDisabledYieldsOneChannel(t *testing.T) {
	center, plans, err := FrequencyPlan(planConfig(false, 2))
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "broadcast", plans[0].Label)
	assert.Equal(t, 433000000.0, center)
	assert.Equal(t, 0.0, plans[0].OffsetHz)
}

func TestFrequencyPlanJammerEnabledYieldsTwoChannels(t *testing.T) {
	center, plans, err := FrequencyPlan(planConfig(true, 2))
	require.NoError(t, err)
	require.Len(t, plans, 2)

	wantCenter := (433000000.0 + 433200000.0) / 2
	assert.Equal(t, wantCenter, center)

	byLabel := map[string]float64{}
	for _, p := range plans {
		byLabel[p.Label] = p.OffsetHz
	}
	assert.Equal(t, 433000000.0-wantCenter, byLabel["broadcast"])
	assert.Equal(t, 433200000.0-wantCenter, byLabel["jammer"])
}

func TestFrequencyPlanUnknownTeamErrors(t *testing.T) {
	cfg := planConfig(false, 0)
	cfg.GameSettings.ReceiveTeam = "purple"
	_, _, err := FrequencyPlan(cfg)
	assert.Error(t, err)
}
