package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init 初始化全局 logrus 日志
// format: "json" 或 "text"（默认）；level 解析失败时使用 info
func Init(format, level string) {
	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil || level == "" {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// New 创建带组件字段的日志实例
func New(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
