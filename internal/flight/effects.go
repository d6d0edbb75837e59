package flight

// EffectCue is what the exhaust and camera should currently show.
type EffectCue struct {
	JetActive      bool
	CameraPriority int
}

// EffectThresholds decides cues from thrust. Between Jet and Boost the
// camera keeps whatever priority it had.
type EffectThresholds struct {
	Jet            float64 `json:"jet" mapstructure:"jet"`
	Boost          float64 `json:"boost" mapstructure:"boost"`
	BoostPriority  int     `json:"boostPriority" mapstructure:"boostPriority"`
	NormalPriority int     `json:"normalPriority" mapstructure:"normalPriority"`
}

// DefaultEffectThresholds matches the stock jet: exhaust above 30% thrust,
// chase camera takes over above 60%.
func DefaultEffectThresholds() EffectThresholds {
	return EffectThresholds{
		Jet:            0.3,
		Boost:          0.6,
		BoostPriority:  3,
		NormalPriority: 1,
	}
}

// Next returns the cue for thrust given the previous cue.
func (th EffectThresholds) Next(prev EffectCue, thrust float64) EffectCue {
	switch {
	case thrust > th.Boost:
		return EffectCue{JetActive: true, CameraPriority: th.BoostPriority}
	case thrust > th.Jet:
		return EffectCue{JetActive: true, CameraPriority: prev.CameraPriority}
	default:
		return EffectCue{JetActive: false, CameraPriority: th.NormalPriority}
	}
}
