package api_test

import (
	"context"
	"testing"

	"github.com/Selami79/rubber-ds/api"
	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Document Suite")
}

var _ = Describe("OpenAPI document", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()
		var err error
		doc, err = loader.LoadFromData(api.Spec)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should be a valid document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	DescribeTable("should describe every mounted route",
		func(path, method string) {
			item := doc.Paths.Find(path)
			Expect(item).NotTo(BeNil(), path)
			Expect(item.GetOperation(method)).NotTo(BeNil(), method+" "+path)
		},
		Entry(nil, "/first-user", "POST"),
		Entry(nil, "/login", "POST"),
		Entry(nil, "/users/me", "GET"),
		Entry(nil, "/users", "POST"),
		Entry(nil, "/users/{id}/deactivate", "PATCH"),
		Entry(nil, "/raw-materials/critical", "GET"),
		Entry(nil, "/raw-materials/{id}/adjust", "POST"),
		Entry(nil, "/recipes", "POST"),
		Entry(nil, "/recipes/{id}", "PUT"),
		Entry(nil, "/recipes/{id}", "DELETE"),
		Entry(nil, "/recipes/{id}/scale", "GET"),
		Entry(nil, "/recipe-access-log", "GET"),
		Entry(nil, "/quality-tests/{id}/measurements", "POST"),
		Entry(nil, "/quality-tests/{id}/approval", "PUT"),
		Entry(nil, "/quality-tests/products/{productId}/summary", "GET"),
		Entry(nil, "/scrap-records/report", "GET"),
		Entry(nil, "/scrap-records/by-machine", "GET"),
		Entry(nil, "/scrap-records/{id}/status", "PATCH"),
	)

	It("should leave bootstrap and login unauthenticated", func() {
		for _, p := range []string{"/first-user", "/login"} {
			op := doc.Paths.Find(p).Post
			Expect(op.Security).NotTo(BeNil())
			Expect(*op.Security).To(BeEmpty())
		}
	})
})
