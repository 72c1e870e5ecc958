package internal_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

var _ = Describe("Config", func() {
	valid := func() *internal.Config {
		cfg := &internal.Config{
			Server: internal.ServerConfig{
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
			},
			Database: internal.DatabaseConfig{
				Source:       "postgres://localhost/rubber_ds",
				MaxOpenConns: 10,
				MaxIdleConns: 2,
			},
			Security: internal.SecurityConfig{
				JWTSecret: strings.Repeat("s", 32),
			},
		}
		cfg.ApplyDefaults()
		return cfg
	}

	Describe("ApplyDefaults", func() {
		It("should fill the zero values left by a partial file", func() {
			cfg := valid()

			Expect(cfg.Server.Port).To(Equal(3001))
			Expect(cfg.Server.ShutdownTimeout).To(Equal(30 * time.Second))
			Expect(cfg.Security.TokenDuration).To(Equal(internal.DefaultTokenDuration))
			Expect(cfg.Security.BCryptCost).To(Equal(10))
			Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
			Expect(cfg.Observability.Logging.Format).To(Equal("text"))
			Expect(cfg.RateLimit.LoginPerMinute).To(Equal(10))
		})

		It("should keep values that were set", func() {
			cfg := &internal.Config{Server: internal.ServerConfig{Port: 8080}}
			cfg.ApplyDefaults()

			Expect(cfg.Server.Port).To(Equal(8080))
		})
	})

	Describe("Validate", func() {
		It("should accept a complete config", func() {
			Expect(valid().Validate()).To(Succeed())
		})

		It("should reject a short jwt secret", func() {
			cfg := valid()
			cfg.Security.JWTSecret = "short"

			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("jwt_secret"))
		})

		It("should reject a missing database source", func() {
			cfg := valid()
			cfg.Database.Source = ""

			Expect(cfg.Validate()).To(MatchError(ContainSubstring("source is required")))
		})

		It("should reject more idle than open connections", func() {
			cfg := valid()
			cfg.Database.MaxIdleConns = 20

			Expect(cfg.Validate()).To(MatchError(ContainSubstring("max_idle_conns")))
		})

		It("should reject an unknown log level", func() {
			cfg := valid()
			cfg.Observability.Logging.Level = "verbose"

			Expect(cfg.Validate()).To(MatchError(ContainSubstring("unknown level")))
		})

		It("should report every failing section at once", func() {
			cfg := valid()
			cfg.Server.Port = 70000
			cfg.Security.BCryptCost = 4

			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("server config"))
			Expect(err.Error()).To(ContainSubstring("security config"))
		})
	})

	Describe("LoadConfigFromEnv", func() {
		It("should read overrides from the environment", func() {
			GinkgoT().Setenv("PORT", "4000")
			GinkgoT().Setenv("DATABASE_URL", "postgres://db/rubber")
			GinkgoT().Setenv("LOGIN_RATE_BURST", "9")
			GinkgoT().Setenv("HTTP_VALIDATE_REQUESTS", "false")

			cfg := internal.LoadConfigFromEnv()

			Expect(cfg.Server.Port).To(Equal(4000))
			Expect(cfg.Database.Source).To(Equal("postgres://db/rubber"))
			Expect(cfg.RateLimit.LoginBurst).To(Equal(9))
			Expect(cfg.Server.ValidateRequests).To(BeFalse())
		})
	})
})
