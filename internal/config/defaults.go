package config

import "time"

// defaults returns the hardcoded base layer. Values use Go-native types:
// durations are time.Duration, counts int, gameplay scalars float64 where
// they join coordinate math.
func defaults() map[string]any {
	return map[string]any{
		"game": map[string]any{
			"maxPlayers":         10,
			"mapWidth":           float64(2000),
			"mapHeight":          float64(2000),
			"viewDistance":       float64(300),
			"tickRate":           60,
			"wordGenerationRate": 5 * time.Second,
			"maxWords":           50,
		},
		"player": map[string]any{
			"maxHealth":        100,
			"maxInventorySize": 9,
			"moveSpeed":        float64(5),
			"attackRange":      float64(400),
			"healAmount":       25,
			"attackDamage":     20,
		},
		"ui": map[string]any{
			"animationDuration":         300 * time.Millisecond,
			"fadeInDuration":            500 * time.Millisecond,
			"healthBarUpdateDuration":   500 * time.Millisecond,
			"minimapSize":               150,
			"gridSize":                  100,
			"notificationDefaultExpiry": 3 * time.Second,
		},
		"network": map[string]any{
			"serverURL":         "ws://localhost:8080/ws",
			"reconnectAttempts": 5,
			"reconnectDelay":    2 * time.Second,
			"heartbeatInterval": 30 * time.Second,
			"timeout":           10 * time.Second,
		},
		"audio": map[string]any{
			"masterVolume": 0.7,
			"sfxVolume":    0.8,
			"musicVolume":  0.5,
			"enabled":      true,
		},
		"graphics": map[string]any{
			"enableParticles": true,
			"enableShadows":   false,
			"enableBloom":     true,
			"targetFPS":       60,
		},
		"debug": map[string]any{
			"showFPS":          false,
			"showNetworkStats": false,
			"logLevel":         "INFO",
		},
	}
}

// environmentOverrides layers on top of defaults per deployment target.
var environmentOverrides = map[Environment]map[string]any{
	EnvLocal: {
		"debug": map[string]any{
			"showFPS":  true,
			"logLevel": "DEBUG",
		},
		"network": map[string]any{
			"timeout": 5 * time.Second,
		},
	},
	EnvStaging: {
		"debug": map[string]any{
			"logLevel": "INFO",
		},
	},
	EnvProduction: {
		"debug": map[string]any{
			"logLevel": "WARN",
		},
		"graphics": map[string]any{
			"enableParticles": false,
		},
	},
}
