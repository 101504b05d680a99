package logger_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	log "code.cloudfoundry.org/picogorouter/logger"
)

var _ = Describe("Logger", func() {
	var (
		buf       *gbytes.Buffer
		logger    log.Logger
		action    = "my-action"
		component = "my-component"
		logKey    = "my-key"
		logValue  = "my-value"
	)

	BeforeEach(func() {
		buf = gbytes.NewBuffer()
		logger = log.CreateLoggerWithSink(component, zapcore.AddSync(buf))
	})

	It("tags every line with the component as source", func() {
		logger.Info(action, zap.String(logKey, logValue))
		Expect(buf.Contents()).To(ContainSubstring(`"message":"my-action"`))
		Expect(buf.Contents()).To(ContainSubstring(`"source":"my-component"`))
		Expect(buf.Contents()).To(ContainSubstring(`"my-key":"my-value"`))
	})

	It("numbers log levels starting from debug=0", func() {
		logger.Debug(action)
		logger.Info(action)
		logger.Error(action)

		lines := bytes.Split(bytes.TrimSpace(buf.Contents()), []byte("\n"))
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(ContainSubstring(`"log_level":0`))
		Expect(lines[1]).To(ContainSubstring(`"log_level":1`))
		Expect(lines[2]).To(ContainSubstring(`"log_level":3`))
	})

	Describe("Session", func() {
		It("nests the session name under the parent source", func() {
			child := logger.Session("child")
			Expect(child.SessionName()).To(Equal("my-component.child"))

			child.Info(action)
			Expect(buf.Contents()).To(ContainSubstring(`"source":"my-component.child"`))
		})
	})

	Describe("With", func() {
		It("attaches fields to every subsequent log line", func() {
			withLogger := logger.With(zap.String(logKey, logValue))
			withLogger.Info(action)
			Expect(buf.Contents()).To(ContainSubstring(`"my-key":"my-value"`))
		})
	})
})
