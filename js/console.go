package js

import (
	"encoding/json"
	"strings"

	"github.com/grafana/sobek"
	"github.com/sirupsen/logrus"
)

// console is the global console object, bridged to the host's logger.
type console struct {
	logger logrus.FieldLogger
}

func (h *Host) setupConsole() error {
	c := &console{logger: h.logger.WithField("source", "console")}

	obj := h.rt.NewObject()
	if err := obj.Set("log", c.log(logrus.InfoLevel)); err != nil {
		return err
	}
	if err := obj.Set("debug", c.log(logrus.DebugLevel)); err != nil {
		return err
	}
	if err := obj.Set("info", c.log(logrus.InfoLevel)); err != nil {
		return err
	}
	if err := obj.Set("warn", c.log(logrus.WarnLevel)); err != nil {
		return err
	}
	if err := obj.Set("error", c.log(logrus.ErrorLevel)); err != nil {
		return err
	}
	return h.rt.Set("console", obj)
}

func (c *console) log(level logrus.Level) func(sobek.FunctionCall) sobek.Value {
	return func(call sobek.FunctionCall) sobek.Value {
		var sb strings.Builder
		for i, arg := range call.Arguments {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(c.valueString(arg))
		}
		msg := sb.String()

		switch level { //nolint:exhaustive
		case logrus.DebugLevel:
			c.logger.Debug(msg)
		case logrus.WarnLevel:
			c.logger.Warn(msg)
		case logrus.ErrorLevel:
			c.logger.Error(msg)
		default:
			c.logger.Info(msg)
		}

		return sobek.Undefined()
	}
}

// valueString renders an argument the way the browser console roughly
// would: objects as JSON, everything else through toString.
func (c *console) valueString(v sobek.Value) string {
	mv, ok := v.(json.Marshaler)
	if !ok {
		return v.String()
	}

	b, err := json.Marshal(mv)
	if err != nil {
		return v.String()
	}
	return string(b)
}
