package app

import (
	"os"
	"strings"
	"time"

	"github.com/coinsettle/internal/config"
	"github.com/coinsettle/internal/logger"

	"go.uber.org/zap"
)

// 启动模式：all 同时运行 HTTP 与队列消费，api 仅 HTTP，worker 仅队列消费
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// normalizeOptions 补齐默认参数，未知模式按 all 处理
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	switch opts.Mode {
	case ModeAll, ModeAPI, ModeWorker:
	default:
		if opts.Mode != "" {
			opts.Logger.Warnw("app_mode_unknown", "mode", opts.Mode)
		}
		opts.Mode = ModeAll
	}
	return opts
}
