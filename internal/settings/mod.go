package settings

import (
	"fmt"
	"strings"
)

// DefaultNamespace is the configuration section owned by rsgauges.
const DefaultNamespace = "rsgauges"

// TitleLangKey is the language key hosts resolve to the section's title.
const TitleLangKey = "rsgauges.config.title"

const (
	KeyGaugeUpdateInterval                = "gauge_update_interval"
	KeyAutoswitchVolumetricUpdateInterval = "autoswitch_volumetric_update_interval"
	KeyAutoswitchLinearUpdateInterval     = "autoswitch_linear_update_interval"
	KeyWithoutGauges                      = "without_gauges"
	KeyWithoutIndicators                  = "without_indicators"
	KeyWithoutBlinkingIndicators          = "without_blinking_indicators"
	KeyWithoutSoundIndicators             = "without_sound_indicators"
	KeyWithoutPulseSwitches               = "without_pulse_switches"
	KeyWithoutBistableSwitches            = "without_bistable_switches"
	KeyWithoutContactSwitches             = "without_contact_switches"
	KeyWithoutAutomaticSwitches           = "without_automatic_switches"
	KeyWithoutDecorative                  = "without_decorative"
	KeyAcceptedWrenches                   = "accepted_wrenches"
	KeyConfigLeftClickTimeout             = "config_left_click_timeout"
)

// ModDefinitions returns the settings declared by rsgauges, in declaration order.
func ModDefinitions() []Definition {
	return []Definition{
		{
			Key: KeyGaugeUpdateInterval, Name: "Gauge sample interval",
			Kind: KindInt, Default: 8, Bounds: &Bounds{Min: 2, Max: 100},
			Description: "Sample interval of the gauges in ticks. Lower values decrease the display latency " +
				"for indirect weak power measurements. The value is mainly related to the server side logic. " +
				"Minor performance impact for values >= 5.",
		},
		{
			Key: KeyAutoswitchVolumetricUpdateInterval, Name: "Volumetric sensor switch sample interval",
			Kind: KindInt, Default: 10, Bounds: &Bounds{Min: 5, Max: 50},
			Description: "Sample interval of volume sensing automatic switches in ticks (e.g. infrared motion detector). " +
				"Lower values make the switches react faster, but also have an impact on the server performance " +
				"due to ray tracing.",
		},
		{
			Key: KeyAutoswitchLinearUpdateInterval, Name: "Linear sensor switch sample interval",
			Kind: KindInt, Default: 4, Bounds: &Bounds{Min: 1, Max: 50},
			Description: "Sample interval of the linear switches in ticks (like laser pointer based sensors). " +
				"Lower values make the switches react faster, but also have an impact on the server performance " +
				"due to ray tracing. Has much less impact than the volumetric autoswitch interval.",
		},
		disableFlag(KeyWithoutGauges, "Without gauges",
			"Completely disable all (power metering) gauges."),
		disableFlag(KeyWithoutIndicators, "Without indicators",
			"Completely disable all (blinking and steady) indicator lamps/LEDs."),
		disableFlag(KeyWithoutBlinkingIndicators, "Without blinking indicators",
			"Completely disable all blinking indicator lamps/LEDs."),
		disableFlag(KeyWithoutSoundIndicators, "Without sound indicators",
			"Completely disable all sound emitting indicators."),
		disableFlag(KeyWithoutPulseSwitches, "Without pulse switches",
			"Completely disable all (button like) pulse switches."),
		disableFlag(KeyWithoutBistableSwitches, "Without bistable switches",
			"Completely disable all (lever like) bistable switches."),
		disableFlag(KeyWithoutContactSwitches, "Without contact switches",
			"Completely disable all contact switches."),
		disableFlag(KeyWithoutAutomaticSwitches, "Without automatic switches",
			"Completely disable all automatic switches."),
		disableFlag(KeyWithoutDecorative, "Without decorative blocks",
			"Completely disable all decorative blocks."),
		{
			Key: KeyAcceptedWrenches, Name: "Accepted wrenches",
			Kind: KindString, Default: "air,redstone_torch",
			Description: "Comma separated list of item names that can be used to alter (NBT) configurable blocks " +
				"of this mod. This applies when the display side of the block is right clicked (activated) " +
				"with the item in the main hand. Empty hand is 'air'.",
		},
		{
			Key: KeyConfigLeftClickTimeout, Name: "Config left multi-click timeout",
			Kind: KindInt, Default: 700,
			Description: "Timeout in milliseconds defining the timeout for left clicking switches or devices in order " +
				"to configure them. If the device can be opened, it will be opened on 'double-left-click' and " +
				"closed again on 'single-left-click'. The item in the hand must be a valid wrench " +
				"(see 'Accepted wrenches'). For switches/devices that cannot be opened, multi-clicking cycles " +
				"through the configuration options. The block has to be clicked at least two times within the " +
				"timeout to differ configuration from block breaking, and prevent misconfiguration on " +
				"unintended left-clicking.",
		},
	}
}

func disableFlag(key, name, description string) Definition {
	return Definition{
		Key:             key,
		Name:            name,
		Kind:            KindBool,
		Default:         false,
		RestartRequired: true,
		Description:     description + " Requires restart.",
	}
}

// NewModRegistry creates a registry for namespace with every rsgauges setting declared.
func NewModRegistry(namespace string, opts ...Option) (*Registry, error) {
	r := New(namespace, append([]Option{WithTitle(TitleLangKey)}, opts...)...)
	for _, def := range ModDefinitions() {
		if _, err := r.Declare(def); err != nil {
			return nil, fmt.Errorf("declare %s: %w", def.Key, err)
		}
	}
	return r, nil
}

// AcceptedWrenches returns the item names listed in the accepted_wrenches setting.
func AcceptedWrenches(r *Registry) ([]string, error) {
	raw, err := r.String(KeyAcceptedWrenches)
	if err != nil {
		return nil, err
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
