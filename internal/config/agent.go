package config

import "log"

// AgentConfig holds the phone agent and reservation policy settings.
type AgentConfig struct {
	Restaurant     string   // name used in greetings and prompts
	OpenHour       int      // first bookable hour of the service window
	CloseHour      int      // hour the service window ends; no slot starts at or after it
	FuzzyThreshold int      // minimum name similarity (0-100) for cancel and lookup
	HopLimit       int      // model requests allowed per caller utterance
	Variants       []string // conversational variants calls are spread across
}

// LoadAgentConfig reads the agent settings.  An empty or inverted
// service window is a fatal configuration error.
func LoadAgentConfig() AgentConfig {
	c := AgentConfig{
		Restaurant:     envStr("RESTAURANT_NAME", "Luigi's Italian Restaurant"),
		OpenHour:       envInt("SERVICE_OPEN_HOUR", 17),
		CloseHour:      envInt("SERVICE_CLOSE_HOUR", 22),
		FuzzyThreshold: envInt("FUZZY_THRESHOLD", 75),
		HopLimit:       envInt("TOOL_HOP_LIMIT", 5),
		Variants:       envList("AGENT_VARIANTS", []string{"v1_baseline", "v2_friendly", "v3_efficient"}),
	}
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		log.Fatalf("invalid service window %d-%d", c.OpenHour, c.CloseHour)
	}
	if c.FuzzyThreshold < 1 || c.FuzzyThreshold > 100 {
		log.Fatalf("invalid FUZZY_THRESHOLD %d", c.FuzzyThreshold)
	}
	return c
}
