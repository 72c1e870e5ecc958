package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	rawmaterialDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/rawmaterial"
	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
	"github.com/Selami79/rubber-ds/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRecipe(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Recipe Suite")
}

var errDB = errors.New("connection reset by peer")

type mockRepository struct {
	recipes      map[int64]*recipeDatamodel.Recipe
	materials    map[int64]*rawmaterialDatamodel.RawMaterial
	nextID       int64
	shouldFail   bool
	updateCalled int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		recipes: map[int64]*recipeDatamodel.Recipe{},
		materials: map[int64]*rawmaterialDatamodel.RawMaterial{
			1: {ID: 1, Code: "NR", Name: "Natural rubber", Unit: "kg", Quantity: 1000},
			2: {ID: 2, Code: "CB", Name: "Carbon black N330", Unit: "kg", Quantity: 20},
			3: {ID: 3, Code: "ZNO", Name: "Zinc oxide", Unit: "kg", Quantity: 5},
		},
		nextID: 1,
	}
}

func (m *mockRepository) withMaterials(r *recipeDatamodel.Recipe) *recipeDatamodel.Recipe {
	cp := *r
	cp.Components = make([]recipeDatamodel.RecipeComponent, len(r.Components))
	for i, c := range r.Components {
		c.RawMaterial = m.materials[c.RawMaterialID]
		cp.Components[i] = c
	}
	return &cp
}

func (m *mockRepository) List(ctx context.Context, customerID *int64) ([]*recipeDatamodel.Recipe, error) {
	if m.shouldFail {
		return nil, errDB
	}
	out := []*recipeDatamodel.Recipe{}
	for _, r := range m.recipes {
		if customerID != nil && (r.CustomerID == nil || *r.CustomerID != *customerID) {
			continue
		}
		out = append(out, m.withMaterials(r))
	}
	if customerID != nil {
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	}
	return out, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*recipeDatamodel.Recipe, error) {
	if m.shouldFail {
		return nil, errDB
	}
	r, ok := m.recipes[id]
	if !ok {
		return nil, nil
	}
	return m.withMaterials(r), nil
}

func (m *mockRepository) GetByCode(ctx context.Context, code string) (*recipeDatamodel.Recipe, error) {
	if m.shouldFail {
		return nil, errDB
	}
	for _, r := range m.recipes {
		if r.Code == code {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) Create(ctx context.Context, r *recipeDatamodel.Recipe) error {
	if m.shouldFail {
		return errDB
	}
	r.ID = m.nextID
	m.nextID++
	for i := range r.Components {
		r.Components[i].RecipeID = r.ID
	}
	m.recipes[r.ID] = r
	return nil
}

func (m *mockRepository) Update(ctx context.Context, r *recipeDatamodel.Recipe, components []recipeDatamodel.RecipeComponent) error {
	m.updateCalled++
	if m.shouldFail {
		return errDB
	}
	cp := *r
	cp.Components = components
	m.recipes[r.ID] = &cp
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if m.shouldFail {
		return errDB
	}
	delete(m.recipes, id)
	return nil
}

func (m *mockRepository) MissingRawMaterials(ctx context.Context, ids []int64) ([]int64, error) {
	if m.shouldFail {
		return nil, errDB
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := m.materials[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type mockAccessLog struct {
	entries    []*recipeDatamodel.AccessLog
	shouldFail bool
}

func (m *mockAccessLog) Append(ctx context.Context, e *recipeDatamodel.AccessLog) error {
	if m.shouldFail {
		return errDB
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAccessLog) List(ctx context.Context, recipeID *int64) ([]*recipeDatamodel.AccessLog, error) {
	if m.shouldFail {
		return nil, errDB
	}
	out := []*recipeDatamodel.AccessLog{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if recipeID == nil || m.entries[i].RecipeID == *recipeID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var (
	admin    = auth.Identity{UserID: 1, Role: auth.RoleAdmin}
	operator = auth.Identity{UserID: 2, Role: auth.RoleOperator}
	qc       = auth.Identity{UserID: 3, Role: auth.RoleQualityControl}
)

func treadDTO(code string) RecipeDTO {
	return RecipeDTO{
		Code:          code,
		Name:          "Tread compound",
		TotalQuantity: 250,
		Components: []ComponentDTO{
			{RawMaterialID: 1, SharePercent: 60},
			{RawMaterialID: 2, SharePercent: 35},
			{RawMaterialID: 3, SharePercent: 5},
		},
	}
}

var _ = Describe("Composition", func() {
	sharesSumming := func(parts ...float64) []Share {
		out := make([]Share, len(parts))
		for i, p := range parts {
			out[i] = Share{RawMaterialID: int64(i + 1), SharePercent: p}
		}
		return out
	}

	DescribeTable("ValidateShares boundaries",
		func(last float64, ok bool) {
			err := ValidateShares(sharesSumming(50, 30, last))
			if ok {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(errors.Is(err, internal.ErrInvalidComposition)).To(BeTrue())
			}
		},
		Entry("99.98 is rejected", 19.98, false),
		Entry("99.99 is accepted", 19.99, true),
		Entry("100 is accepted", 20.0, true),
		Entry("100.01 is accepted", 20.01, true),
		Entry("100.02 is rejected", 20.02, false),
	)

	It("should reject an empty component set", func() {
		Expect(errors.Is(ValidateShares(nil), internal.ErrInvalidComposition)).To(BeTrue())
	})

	It("should derive quantities that add back up to the total", func() {
		shares := sharesSumming(33.3333, 33.3333, 33.3334)
		for _, total := range []float64{1, 97.5, 250, 1000, 12345.678} {
			derived := DeriveQuantities(total, shares)
			var sum float64
			for _, d := range derived {
				sum += d.Quantity
			}
			Expect(sum).To(BeNumerically("~", total, 1e-6))
		}
	})

	It("should assign sequences in input order", func() {
		derived := DeriveQuantities(100, sharesSumming(10, 90))
		Expect(derived[0].Sequence).To(Equal(1))
		Expect(derived[1].Sequence).To(Equal(2))
		Expect(derived[1].Quantity).To(BeNumerically("~", 90, 1e-9))
	})
})

var _ = Describe("Recipe Service", func() {
	var (
		repo    *mockRepository
		service *Service
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = newMockRepository()
		service = NewService(repo, testLogger())
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("should store derived quantities", func() {
			r, err := service.Create(ctx, admin, treadDTO("R001"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Components).To(HaveLen(3))
			Expect(r.Components[0].Quantity).To(BeNumerically("~", 150, 1e-9))
			Expect(r.Components[1].RawMaterialCode).To(Equal("CB"))
			Expect(r.Components[2].Sequence).To(Equal(3))
		})

		It("should reject a second recipe with the same code", func() {
			_, err := service.Create(ctx, admin, treadDTO("R001"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, admin, treadDTO("R001"))
			Expect(errors.Is(err, internal.ErrDuplicateCode)).To(BeTrue())
		})

		It("should reject shares that do not add up", func() {
			dto := treadDTO("R001")
			dto.Components[2].SharePercent = 4
			_, err := service.Create(ctx, admin, dto)
			Expect(errors.Is(err, internal.ErrInvalidComposition)).To(BeTrue())
			Expect(repo.recipes).To(BeEmpty())
		})

		It("should reject unknown raw materials", func() {
			dto := treadDTO("R001")
			dto.Components[2].RawMaterialID = 99
			_, err := service.Create(ctx, admin, dto)
			Expect(errors.Is(err, internal.ErrUnknownMaterial)).To(BeTrue())
		})

		It("should not let an operator create recipes", func() {
			_, err := service.Create(ctx, operator, treadDTO("R001"))
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var first, second *Recipe

		BeforeEach(func() {
			var err error
			first, err = service.Create(ctx, admin, treadDTO("R001"))
			Expect(err).NotTo(HaveOccurred())
			second, err = service.Create(ctx, admin, treadDTO("R002"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should allow keeping the recipe's own code", func() {
			dto := treadDTO("R001")
			dto.Name = "Sidewall compound"
			r, err := service.Update(ctx, first.ID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Name).To(Equal("Sidewall compound"))
		})

		It("should reject a code held by another recipe", func() {
			_, err := service.Update(ctx, second.ID, treadDTO("R001"))
			Expect(errors.Is(err, internal.ErrDuplicateCode)).To(BeTrue())
			Expect(repo.updateCalled).To(BeZero())
		})

		It("should replace components and rederive quantities", func() {
			dto := treadDTO("R001")
			dto.TotalQuantity = 500
			dto.Components = []ComponentDTO{
				{RawMaterialID: 2, SharePercent: 40},
				{RawMaterialID: 1, SharePercent: 60},
			}
			r, err := service.Update(ctx, first.ID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Components).To(HaveLen(2))
			Expect(r.Components[0].RawMaterialID).To(Equal(int64(2)))
			Expect(r.Components[0].Quantity).To(BeNumerically("~", 200, 1e-9))
			Expect(r.Components[1].Sequence).To(Equal(2))
		})

		It("should return not found for a missing recipe", func() {
			_, err := service.Update(ctx, 404, treadDTO("R404"))
			Expect(errors.Is(err, internal.ErrRecipeNotFound)).To(BeTrue())
		})
	})

	Describe("Scale", func() {
		It("should flag shortages against stock", func() {
			r, _ := service.Create(ctx, admin, treadDTO("R001"))
			resp, err := service.Scale(ctx, r.ID, 1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Components).To(HaveLen(3))
			Expect(resp.Components[0].Quantity).To(BeNumerically("~", 600, 1e-9))
			Expect(resp.Components[0].Shortage).To(BeFalse())
			Expect(resp.Components[1].Shortage).To(BeTrue())
			Expect(resp.Components[2].Shortage).To(BeTrue())

			stored, _ := service.Get(ctx, r.ID)
			Expect(stored.TotalQuantity).To(Equal(250.0))
		})

		It("should reject a non-positive batch size", func() {
			r, _ := service.Create(ctx, admin, treadDTO("R001"))
			_, err := service.Scale(ctx, r.ID, 0)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("should reject a batch size that is not a finite number",
			func(total float64) {
				r, _ := service.Create(ctx, admin, treadDTO("R001"))
				_, err := service.Scale(ctx, r.ID, total)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
			},
			Entry("NaN", math.NaN()),
			Entry("positive infinity", math.Inf(1)),
			Entry("negative infinity", math.Inf(-1)),
		)
	})

	Describe("List", func() {
		It("should narrow to one customer, newest first", func() {
			acme, other := int64(11), int64(12)
			for _, c := range []struct {
				code     string
				customer *int64
			}{{"R001", &acme}, {"R002", nil}, {"R003", &acme}, {"R004", &other}} {
				dto := treadDTO(c.code)
				dto.CustomerID = c.customer
				_, err := service.Create(ctx, admin, dto)
				Expect(err).NotTo(HaveOccurred())
			}

			all, err := service.List(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(4))
			Expect(all[0].Code).To(Equal("R001"))

			mine, err := service.List(ctx, &acme)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))
			Expect(mine[0].Code).To(Equal("R003"))
			Expect(mine[1].Code).To(Equal("R001"))
			Expect(mine[0].CustomerID).To(HaveValue(Equal(acme)))
		})

		It("should reject a non-positive customer id", func() {
			dto := treadDTO("R001")
			zero := int64(0)
			dto.CustomerID = &zero
			_, err := service.Create(ctx, admin, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	It("should hide storage errors", func() {
		repo.shouldFail = true
		_, err := service.List(ctx, nil)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(appErr.GetDetailedMessage()).NotTo(ContainSubstring("connection reset"))
	})
})

var _ = Describe("Access Policy", func() {
	var (
		store  *mockAccessLog
		policy *AccessPolicy
		ctx    context.Context
	)

	BeforeEach(func() {
		store = &mockAccessLog{}
		policy = NewAccessPolicy(store, testLogger())
		ctx = context.Background()
	})

	DescribeTable("OperationFromMethod",
		func(method string, op Operation) {
			Expect(OperationFromMethod(method)).To(Equal(op))
		},
		Entry("GET", http.MethodGet, OperationView),
		Entry("HEAD", http.MethodHead, OperationView),
		Entry("PUT", http.MethodPut, OperationEdit),
		Entry("PATCH", http.MethodPatch, OperationEdit),
		Entry("DELETE", http.MethodDelete, OperationDelete),
		Entry("POST", http.MethodPost, OperationOther),
	)

	It("should deny an operator edit and still log it", func() {
		err := policy.Authorize(ctx, operator, 7, OperationEdit, "10.0.0.5")
		Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		Expect(store.entries).To(HaveLen(1))
		Expect(store.entries[0].UserID).To(Equal(int64(2)))
		Expect(store.entries[0].RecipeID).To(Equal(int64(7)))
		Expect(store.entries[0].Operation).To(Equal("edit"))
		Expect(store.entries[0].OriginAddress).To(Equal("10.0.0.5"))
		Expect(store.entries[0].Description).To(Equal("operator performed edit"))
	})

	It("should allow an operator view", func() {
		Expect(policy.Authorize(ctx, operator, 7, OperationView, "")).To(Succeed())
		Expect(store.entries).To(HaveLen(1))
	})

	It("should allow and log every admin operation", func() {
		for _, op := range []Operation{OperationView, OperationEdit, OperationDelete, OperationOther} {
			Expect(policy.Authorize(ctx, admin, 7, op, "")).To(Succeed())
		}
		Expect(store.entries).To(HaveLen(4))
		Expect(store.entries[3].Description).To(Equal("admin performed other"))
	})

	It("should deny other roles even for view", func() {
		err := policy.Authorize(ctx, qc, 7, OperationView, "")
		Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		Expect(store.entries).To(HaveLen(1))
	})

	It("should fail with an audit failure when the log cannot be written", func() {
		store.shouldFail = true
		err := policy.Authorize(ctx, admin, 7, OperationView, "")
		Expect(errors.Is(err, internal.ErrAuditFailure)).To(BeTrue())
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
	})

	It("should filter history by recipe, newest first", func() {
		policy.Authorize(ctx, admin, 1, OperationView, "")
		policy.Authorize(ctx, admin, 2, OperationView, "")
		policy.Authorize(ctx, operator, 1, OperationDelete, "")

		id := int64(1)
		entries, err := policy.History(ctx, &id)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Operation).To(Equal("delete"))
	})
})

var _ = Describe("Recipe Handler", func() {
	var (
		repo   *mockRepository
		store  *mockAccessLog
		router *chi.Mux
		caller auth.Identity
	)

	withIdentity := func(fn auth.IdentityHandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { fn(w, r, caller) }
	}

	BeforeEach(func() {
		repo = newMockRepository()
		store = &mockAccessLog{}
		lg := testLogger()
		handler := &Handler{
			BaseHandler: transport.NewBaseHandler(lg),
			Service:     NewService(repo, lg),
			Access:      NewAccessPolicy(store, lg),
		}
		caller = admin

		router = chi.NewRouter()
		router.Post("/recipes", withIdentity(handler.Create))
		router.Get("/recipes/{id}", withIdentity(handler.Get()))
		router.Put("/recipes/{id}", withIdentity(handler.Update()))
		router.Delete("/recipes/{id}", withIdentity(handler.Delete()))
		router.Get("/recipes/{id}/scale", withIdentity(handler.Scale()))
		router.Get("/recipes", withIdentity(handler.List))
		router.Get("/recipe-access-log", withIdentity(handler.AccessLog))

		_, err := NewService(repo, lg).Create(context.Background(), admin, treadDTO("R001"))
		Expect(err).NotTo(HaveOccurred())
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			raw, _ := json.Marshal(body)
			reader = bytes.NewReader(raw)
		} else {
			reader = bytes.NewReader(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("should let an operator view and log the access", func() {
		caller = operator
		rec := do(http.MethodGet, "/recipes/1", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(store.entries).To(HaveLen(1))
		Expect(store.entries[0].Operation).To(Equal("view"))
	})

	It("should answer 403 to an operator update and log the attempt", func() {
		caller = operator
		rec := do(http.MethodPut, "/recipes/1", treadDTO("R001"))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(store.entries).To(HaveLen(1))
		Expect(store.entries[0].Description).To(Equal("operator performed edit"))
		Expect(repo.updateCalled).To(BeZero())
	})

	It("should answer 500 when the access log is unavailable", func() {
		store.shouldFail = true
		rec := do(http.MethodGet, "/recipes/1", nil)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})

	It("should answer 400 for a bad composition", func() {
		dto := treadDTO("R009")
		dto.Components[0].SharePercent = 10
		rec := do(http.MethodPost, "/recipes", dto)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should answer 400 for a duplicate code", func() {
		rec := do(http.MethodPost, "/recipes", treadDTO("R001"))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("already exists"))
	})

	It("should scale a recipe", func() {
		rec := do(http.MethodGet, "/recipes/1/scale?total_quantity=500", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp ScaleResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Components[0].Quantity).To(BeNumerically("~", 300, 1e-9))
	})

	It("should list a customer's recipes", func() {
		customer := int64(5)
		dto := treadDTO("R002")
		dto.CustomerID = &customer
		Expect(do(http.MethodPost, "/recipes", dto).Code).To(Equal(http.StatusCreated))

		rec := do(http.MethodGet, "/recipes?customer_id=5", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp RecipesResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Recipes).To(HaveLen(1))
		Expect(resp.Recipes[0].Code).To(Equal("R002"))

		Expect(do(http.MethodGet, "/recipes?customer_id=abc", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(store.entries).To(BeEmpty())
	})

	It("should audit the connection address, not forwarding headers", func() {
		req := httptest.NewRequest(http.MethodGet, "/recipes/1", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		req.Header.Set("X-Real-IP", "forged-origin-"+strings.Repeat("0123456789", 7))
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(store.entries).To(HaveLen(1))
		Expect(store.entries[0].OriginAddress).To(Equal("10.0.0.7"))
	})

	It("should answer 400 with a body for a NaN batch size", func() {
		for _, raw := range []string{"NaN", "Inf", "-Inf"} {
			rec := do(http.MethodGet, "/recipes/1/scale?total_quantity="+raw, nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest), raw)
			Expect(rec.Body.String()).To(ContainSubstring("total_quantity"), raw)
		}
	})

	It("should delete a recipe as admin", func() {
		rec := do(http.MethodDelete, "/recipes/1", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(repo.recipes).To(BeEmpty())
	})

	It("should reject a malformed recipe_id filter", func() {
		rec := do(http.MethodGet, "/recipe-access-log?recipe_id=x", nil)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
