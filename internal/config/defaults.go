package config

import "scenecheck/internal/check"

// DefaultMaxIssues matches the length of the detail list shown per check.
const DefaultMaxIssues = 200

// Default returns a configuration carrying every option of every stock check.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "WARN",
			Format: "console",
		},
		Session: SessionConfig{MaxIssues: DefaultMaxIssues},
		Checks: map[string]CheckConfig{
			"naming": {Enabled: true, Options: check.Options{
				"allowed_chars":     "A-Za-z0-9_:|",
				"replacement":       "_",
				"required_prefixes": []string{},
				"required_suffixes": []string{},
				"node_types":        []string{},
				"unique_names":      false,
			}},
			"camera_clip": {Enabled: true, Options: check.Options{
				"min_near_clip":  0.1,
				"max_near_clip":  1.0,
				"safe_near_clip": 0.1,
			}},
			"image_plane": {Enabled: true, Options: check.Options{
				"camera":    "render_cam*",
				"attribute": "imagePlane",
			}},
			"time_unit": {Enabled: true, Options: check.Options{
				"fps": 24.0,
			}},
			"key_range": {Enabled: true, Options: check.Options{
				"handle_frames": 0.0,
			}},
		},
	}
}
