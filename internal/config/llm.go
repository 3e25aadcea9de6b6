package config

import "time"

// LLMConfig holds the language model settings.  With no API key every
// call gets the apology reply and the judge falls back to defaults.
type LLMConfig struct {
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	JudgeEnabled bool // score calls with the AI judge after they end
}

// LoadLLMConfig reads ANTHROPIC_API_KEY and the LLM_* variables.
func LoadLLMConfig() LLMConfig {
	key := envStr("ANTHROPIC_API_KEY", "")
	return LLMConfig{
		APIKey:       key,
		Model:        envStr("LLM_MODEL", "claude-sonnet-4-20250514"),
		MaxTokens:    envInt("LLM_MAX_TOKENS", 150),
		Temperature:  envFloat("LLM_TEMPERATURE", 0.3),
		Timeout:      envDur("LLM_TIMEOUT", 30*time.Second),
		JudgeEnabled: envBool("LLM_JUDGE_ENABLED", key != ""),
	}
}
