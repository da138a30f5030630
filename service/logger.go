package service

import (
	"fmt"

	"go.uber.org/zap"
)

const loggerName = "suss"

var defaultLogger *zap.SugaredLogger

func init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("error constructing default logger: %s", err))
	}
	defaultLogger = logger.Sugar().Named(loggerName)
}
