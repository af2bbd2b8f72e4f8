package logging

import (
	"go.uber.org/zap"
)

// New builds the production zap logger at level, also writing to file
// when one is given.
func New(level, file string) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	if file != "" {
		config.OutputPaths = append(config.OutputPaths, file)
	}

	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	config.Level = atomic

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
