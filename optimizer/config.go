package optimizer

// Config is what the optimization pipeline actually runs with.
type Config struct {
	Multipass          bool           `json:"multipass"`
	FloatPrecision     int            `json:"floatPrecision"`
	TransformPrecision int            `json:"transformPrecision,omitempty"`
	Plugins            []string       `json:"plugins"`
	Params             map[string]any `json:"params,omitempty"`
}

// StandardPreset is multipass with the default plugin set.
func StandardPreset() Config {
	return Config{
		Multipass:          true,
		FloatPrecision:     DefaultSettings().FloatPrecision,
		TransformPrecision: DefaultSettings().TransformPrecision,
		Plugins:            []string{PresetDefault},
	}
}

// BuildConfig turns plugin toggles and global settings into a pipeline
// configuration. With no plugin enabled the default preset is used instead.
func BuildConfig(plugins []Plugin, settings GlobalSettings) Config {
	enabled := make([]string, 0, len(plugins))
	var params map[string]any
	for _, p := range plugins {
		if !p.Enabled {
			continue
		}
		enabled = append(enabled, p.Name)
		if len(p.Params) > 0 {
			if params == nil {
				params = make(map[string]any)
			}
			params[p.Name] = p.Params
		}
	}
	if len(enabled) == 0 {
		enabled = []string{PresetDefault}
	}
	return Config{
		Multipass:          settings.Multipass,
		FloatPrecision:     settings.FloatPrecision,
		TransformPrecision: settings.TransformPrecision,
		Plugins:            enabled,
		Params:             params,
	}
}

// enabledSet expands the preset name and returns the enabled plugins.
func (c Config) enabledSet() map[string]bool {
	set := make(map[string]bool, len(c.Plugins))
	for _, name := range c.Plugins {
		if name == PresetDefault {
			for _, p := range presetDefault {
				set[p] = true
			}
			continue
		}
		set[name] = true
	}
	return set
}

func (c Config) param(plugin, key string) (any, bool) {
	raw, ok := c.Params[plugin]
	if !ok {
		return nil, false
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}
