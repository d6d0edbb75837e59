package main

import (
	"errors"
	"fmt"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/control"
	"github.com/aerocade/flightcore/internal/flight"
	"github.com/aerocade/flightcore/internal/proximity"
	"github.com/aerocade/flightcore/internal/throttle"
	"github.com/spf13/viper"
)

func loadConfig(dir string) error {
	return config.Load(dir)
}

// flightConfig maps the config file onto the unit's tuning.
func flightConfig() flight.Config {
	fc := config.GetFlightConfig()
	fx := config.GetEffectsConfig()
	return flight.Config{
		Aircraft:         fc.Aircraft,
		Sensitivity:      control.Sensitivity{Pitch: fc.Pitch, Roll: fc.Roll, Yaw: fc.Yaw},
		TerminalVelocity: fc.TerminalVelocity,
		FlapMin:          fc.FlapMin,
		FlapMax:          fc.FlapMax,
		Effects: flight.EffectThresholds{
			Jet:            fx.Jet,
			Boost:          fx.Boost,
			BoostPriority:  fx.BoostPriority,
			NormalPriority: fx.NormalPriority,
		},
	}
}

// defaultSurfaces is the stock jet layout, used when the config lists none.
func defaultSurfaces() []*control.Surface {
	return []*control.Surface{
		control.NewSurface("elevator_left", control.RolePitch, 1),
		control.NewSurface("elevator_right", control.RolePitch, 1),
		control.NewSurface("aileron_left", control.RoleRoll, -1),
		control.NewSurface("aileron_right", control.RoleRoll, 1),
		control.NewSurface("rudder", control.RoleYaw, 1),
		control.NewSurface("flap_left", control.RoleFlap, 1),
		control.NewSurface("flap_right", control.RoleFlap, 1),
	}
}

// configuredSurfaces returns the configured surfaces. Bad entries are skipped and
// reported; an empty list falls back to defaultSurfaces.
func configuredSurfaces() ([]*control.Surface, error) {
	out, err := config.GetSurfaces()
	if err != nil && !errors.Is(err, config.ErrInvalidSurface) {
		return nil, err
	}
	if len(out) == 0 && !viper.IsSet("surfaces") {
		return defaultSurfaces(), err
	}
	return out, err
}

func throttleOptions() (throttle.Curve, []throttle.Option, error) {
	tc, err := config.GetThrottleConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("throttle config: %w", err)
	}
	var curve throttle.Curve = throttle.DefaultCurve()
	if len(tc.Curve) > 0 {
		curve = throttle.NewKeyframes(tc.Curve...)
	}
	return curve, []throttle.Option{
		throttle.WithRange(tc.Near, tc.Far),
		throttle.WithInitialThrust(tc.Initial),
	}, nil
}

func proximityConfig() proximity.Config {
	pc := config.GetProximityConfig()
	mask := proximity.TerrainMask
	if pc.Layer >= 0 && pc.Layer < 32 {
		mask = proximity.LayerMask(1) << pc.Layer
	}
	return proximity.Config{MaxDistance: pc.MaxDistance, Mask: mask}
}
