package transport_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Selami79/rubber-ds/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTransport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Suite")
}

var _ = Describe("BaseHandler", func() {
	var h *transport.BaseHandler

	BeforeEach(func() {
		h = transport.NewBaseHandler(nil)
	})

	DescribeTable("ClientIP",
		func(remoteAddr, forwarded, expected string) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = remoteAddr
			if forwarded != "" {
				req.Header.Set("X-Real-IP", forwarded)
				req.Header.Set("X-Forwarded-For", forwarded)
			}
			Expect(h.ClientIP(req)).To(Equal(expected))
		},
		Entry("ipv4 with port", "10.0.0.7:5555", "", "10.0.0.7"),
		Entry("ipv6 with port", "[2001:db8::1]:443", "", "2001:db8::1"),
		Entry("bare address", "192.0.2.4", "", "192.0.2.4"),
		Entry("forwarding headers are ignored", "10.0.0.7:5555", "203.0.113.9", "10.0.0.7"),
		Entry("not an address", "forged-origin-0123456789012345678901234567890123456789012345678901234567890123", "", "unknown"),
	)

	DescribeTable("ExtractTokenFromHeader",
		func(header, expected string) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			Expect(h.ExtractTokenFromHeader(req)).To(Equal(expected))
		},
		Entry("bearer token", "Bearer abc.def", "abc.def"),
		Entry("missing header", "", ""),
		Entry("other scheme", "Basic dXNlcjpwYXNz", ""),
	)
})
