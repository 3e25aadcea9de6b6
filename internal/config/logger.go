package config

import "go.uber.org/zap"

// NewLogger returns a production logger in prod and a development
// logger everywhere else.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
