// Package autoload initializes the global logger from LOG_* variables on import.
package autoload

import (
	configx "github.com/tanpawarit/deptrouter/pkg/config"
	logx "github.com/tanpawarit/deptrouter/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
