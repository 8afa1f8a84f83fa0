package config

import "fmt"

// ChannelPlan is one DSP channel's tuning: the DDC offset the Channel
// Processor should mix to baseband, and a human label for logs and the
// framer's channel_tag.
type ChannelPlan struct {
	Label    string
	OffsetHz float64
}

// jammerFreq returns the jammer frequency for level 1..3, or the
// broadcast frequency itself for level 0 (jammer disabled).
func jammerFreq(tf TeamFrequencies, level int) float64 {
	switch level {
	case 1:
		return tf.Jammer1Freq
	case 2:
		return tf.Jammer2Freq
	case 3:
		return tf.Jammer3Freq
	default:
		return tf.BroadcastFreq
	}
}

// FrequencyPlan derives the center frequency and per-channel offsets:
// the center is the midpoint of the broadcast and selected jammer
// frequency, and each enabled channel is processed
// at its offset from that center. When the jammer is disabled (level 0)
// or processing.enable_jammer is false, broadcast and jammer coincide
// and only one channel is produced.
func FrequencyPlan(c *Config) (center float64, plans []ChannelPlan, err error) {
	var tf TeamFrequencies
	switch c.GameSettings.ReceiveTeam {
	case "red":
		tf = c.Frequencies.RedTeamReceivingBlue
	case "blue":
		tf = c.Frequencies.BlueTeamReceivingRed
	default:
		return 0, nil, fmt.Errorf("config: unknown receive_team %q", c.GameSettings.ReceiveTeam)
	}

	level := c.GameSettings.TargetJammerLevel
	if !c.Processing.EnableJammer {
		level = 0
	}

	jf := jammerFreq(tf, level)
	center = (tf.BroadcastFreq + jf) / 2

	if jf == tf.BroadcastFreq {
		return center, []ChannelPlan{
			{Label: "broadcast", OffsetHz: tf.BroadcastFreq - center},
		}, nil
	}

	return center, []ChannelPlan{
		{Label: "broadcast", OffsetHz: tf.BroadcastFreq - center},
		{Label: "jammer", OffsetHz: jf - center},
	}, nil
}
