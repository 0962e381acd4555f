package animals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menagerie/internal/core"
	"menagerie/internal/infra/persistence/memory"
	"menagerie/internal/observability"
	"menagerie/pkg/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func seed() []domain.Animal {
	return []domain.Animal{
		{ID: "0", Name: "Erica", Species: "gorilla", Diet: "omnivore", PersonalityTraits: []string{"quirky", "rash"}},
		{ID: "1", Name: "Rex", Species: "dog", Diet: "carnivore", PersonalityTraits: []string{"Loyal", "Playful"}},
		{ID: "2", Name: "Fido", Species: "dog", Diet: "omnivore", PersonalityTraits: []string{"Loyal"}},
	}
}

type fixture struct {
	router    *gin.Engine
	store     *core.Store
	persister *memory.Store
	metrics   *observability.Metrics
}

func newFixture(t *testing.T, opts ...core.StoreOption) fixture {
	t.Helper()
	p := memory.NewSeededStore(seed())
	m := observability.NewMetrics()
	store := core.NewStore(p, append([]core.StoreOption{core.WithMetrics(m)}, opts...)...)
	require.NoError(t, store.Load(context.Background()))
	return fixture{
		router:    NewRouter(store, Options{Metrics: m}),
		store:     store,
		persister: p,
		metrics:   m,
	}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeAnimals(t *testing.T, rec *httptest.ResponseRecorder) []domain.Animal {
	t.Helper()
	var out []domain.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/animals", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestListAll(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/animals", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	got := decodeAnimals(t, rec)
	assert.Equal(t, seed(), got)
}

func TestListFiltered(t *testing.T) {
	f := newFixture(t)
	cases := map[string][]string{
		"species=dog":                                       {"1", "2"},
		"personalityTraits=Loyal&personalityTraits=Playful": {"1"},
		"personalityTraits[]=Loyal&diet=omnivore":           {"2"},
		"name=Erica&color=brown":                            {"0"},
		"species=cat":                                       {},
		"species=dog&species=dog":                           {},
	}
	for query, want := range cases {
		t.Run(query, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodGet, "/api/animals?"+query, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			got := []string{}
			for _, a := range decodeAnimals(t, rec) {
				got = append(got, a.ID)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestEmptyResultIsArray(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/animals?species=cat", nil))
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/animals/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, seed()[1], got)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/animals/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCreateJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(postJSON(`{"id":"999","name":"Ziggy","species":"dog","diet":"carnivore","personalityTraits":["brave"]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got domain.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.Animal{ID: "3", Name: "Ziggy", Species: "dog", Diet: "carnivore", PersonalityTraits: []string{"brave"}}, got)

	persisted, err := f.persister.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 4)
	assert.Equal(t, 4, f.store.Len())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/animals/3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateForm(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		"name":                {"Noel"},
		"species":             {"bear"},
		"diet":                {"carnivore"},
		"personalityTraits[]": {"impish", "sassy"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/animals", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got domain.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"impish", "sassy"}, got.PersonalityTraits)
	assert.Equal(t, "3", got.ID)
}

func TestCreateRejected(t *testing.T) {
	f := newFixture(t)
	bodies := map[string]string{
		"missing diet":   `{"name":"Rex","species":"Dog"}`,
		"numeric name":   `{"name":5,"species":"Dog","diet":"Carnivore"}`,
		"mixed traits":   `{"name":"Rex","species":"Dog","diet":"Carnivore","personalityTraits":["a",1]}`,
		"malformed json": `{"name":`,
		"array body":     `[]`,
		"null body":      `null`,
		"empty body":     ``,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := f.do(postJSON(body))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, MsgMalformedAnimal, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		})
	}
	assert.Equal(t, 3, f.store.Len())
	assert.Equal(t, 0, f.persister.Saves())
}

func TestCreateBindsFirstJSONObject(t *testing.T) {
	f := newFixture(t)
	req := postJSON(`{"name":"Rex","species":"Dog","diet":"Carnivore"} {"name":"Ignored"}`)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Rex", got.Name)
	assert.Equal(t, "3", got.ID)
}

func TestCreateFormTooLarge(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/animals",
		strings.NewReader("name="+strings.Repeat("a", MaxBodyBytes)+"&species=dog&diet=carnivore"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 3, f.store.Len())
}

func TestCreateUnsupportedContentType(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/animals", strings.NewReader("name=Rex"))
	req.Header.Set("Content-Type", "text/plain")
	rec := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTooLarge(t *testing.T) {
	f := newFixture(t)
	body := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `","species":"dog","diet":"carnivore"}`
	rec := f.do(postJSON(body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCreateScalarTraitLenientVsStrict(t *testing.T) {
	body := `{"name":"Rex","species":"Dog","diet":"Carnivore","personalityTraits":"Loyal"}`

	lenient := newFixture(t)
	rec := lenient.do(postJSON(body))
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Loyal"}, got.PersonalityTraits)

	strict := newFixture(t, core.WithValidator(core.NewValidator(core.TraitsStrict)))
	rec = strict.do(postJSON(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePersistFailure(t *testing.T) {
	f := newFixture(t)
	f.persister.FailWith(errors.New("disk full"))
	rec := f.do(postJSON(`{"name":"Rex","species":"Dog","diet":"Carnivore"}`))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to save animal"}`, rec.Body.String())
	assert.Equal(t, 3, f.store.Len())
}

func TestConcurrentCreates(t *testing.T) {
	f := newFixture(t)
	const n = 20
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := f.do(postJSON(`{"name":"Rex","species":"Dog","diet":"Carnivore"}`))
			var a domain.Animal
			if err := json.Unmarshal(rec.Body.Bytes(), &a); err == nil {
				ids <- a.ID
			}
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, 3+n, f.store.Len())
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","animals":3}`, rec.Body.String())

	f.do(postJSON(`{"name":"Rex","species":"Dog","diet":"Carnivore"}`))
	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "menagerie_animals_created_total 1")
	assert.Contains(t, body, "menagerie_animals 4")
	assert.Contains(t, body, `menagerie_http_requests_total{method="POST",route="/api/animals",status="200"} 1`)
}

func TestRequestIDEchoedOrMinted(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := f.do(req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := NewRouter(panicStore{}, Options{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/animals", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type panicStore struct{}

func (panicStore) Filter(context.Context, core.Criteria) []core.Animal { panic("boom") }
func (panicStore) FindByID(context.Context, string) (core.Animal, bool) {
	return core.Animal{}, false
}
func (panicStore) Create(context.Context, core.Candidate) (core.Animal, core.Result, error) {
	return core.Animal{}, core.Result{}, nil
}
func (panicStore) Len() int { return 0 }

func TestCandidateFromForm(t *testing.T) {
	got := candidateFromForm(url.Values{
		"name":                {"Rex"},
		"personalityTraits":   {"Loyal"},
		"personalityTraits[]": {"Playful"},
		"tags":                {"a", "b"},
	})
	assert.Equal(t, "Rex", got["name"])
	assert.Equal(t, []string{"Loyal", "Playful"}, got["personalityTraits"])
	assert.Equal(t, []string{"a", "b"}, got["tags"])
}
