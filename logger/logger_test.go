package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/salespipe/logger"
)

var _ = Describe("Logger", func() {
	log := logger.NewLoggerWithFormat("test-service", "debug", true, true)

	It("Should have `test-service` as service name", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		var actual map[string]interface{}
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Info("Testing")
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Warn("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Error("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["msg"]).To(Equal("Testing"))
	})

	It("Should panic with a message that can be recovered as an error", func() {
		log.SetOutput(bytes.NewBufferString(""))
		var err error
		func() {
			defer func() {
				err = logger.RecoveredError(recover())
			}()
			log.Panic("upload failed: ", "bucket missing")
		}()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(Equal("upload failed: bucket missing"))
	})

	It("Should convert other recovered values to errors", func() {
		Expect(logger.RecoveredError(nil)).To(BeNil())
		Expect(logger.RecoveredError("boom").Error()).To(Equal("boom"))
		e := errors.New("wrapped")
		Expect(logger.RecoveredError(e)).To(Equal(e))
		Expect(logger.RecoveredError(42).Error()).To(Equal("42"))
	})
})
