package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"plata/internal/auth"
	"plata/internal/core"
	"plata/internal/market"
	"plata/internal/services"
	"plata/internal/storage"
)

type fakeStore struct {
	transactions map[int64]core.Transaction
	categories   map[int64]core.Category
	purchases    map[int64]core.BitcoinPurchase
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: make(map[int64]core.Transaction),
		categories:   make(map[int64]core.Category),
		purchases:    make(map[int64]core.BitcoinPurchase),
	}
}

func (f *fakeStore) ListTransactions(ctx context.Context, filter core.Filter) ([]core.Transaction, error) {
	var all []core.Transaction
	for _, t := range f.transactions {
		all = append(all, t)
	}
	return core.FilterTransactions(all, filter), nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	f.nextID++
	t.ID = f.nextID
	t.CreatedAt = time.Now()
	f.transactions[t.ID] = t
	return t, nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	if _, ok := f.transactions[id]; !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	t.ID = id
	f.transactions[id] = t
	return t, nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := f.transactions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	f.nextID++
	c.ID = f.nextID
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeStore) UpdateCategory(ctx context.Context, id int64, c core.Category) (core.Category, error) {
	if _, ok := f.categories[id]; !ok {
		return core.Category{}, storage.ErrNotFound
	}
	c.ID = id
	f.categories[id] = c
	return c, nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) ListPurchases(ctx context.Context) ([]core.BitcoinPurchase, error) {
	var out []core.BitcoinPurchase
	for _, p := range f.purchases {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetPurchase(ctx context.Context, id int64) (core.BitcoinPurchase, error) {
	p, ok := f.purchases[id]
	if !ok {
		return core.BitcoinPurchase{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CreatePurchase(ctx context.Context, p core.BitcoinPurchase) (core.BitcoinPurchase, error) {
	f.nextID++
	p.ID = f.nextID
	f.purchases[p.ID] = p
	return p, nil
}

func (f *fakeStore) DeletePurchase(ctx context.Context, id int64) error {
	if _, ok := f.purchases[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.purchases, id)
	return nil
}

type stubProvider struct {
	price, rate float64
}

func (s stubProvider) CurrentPrice(ctx context.Context) (float64, error) { return s.price, nil }
func (s stubProvider) CurrentRate(ctx context.Context) (float64, error)  { return s.rate, nil }
func (s stubProvider) HistoricalPrice(ctx context.Context, at time.Time) (float64, error) {
	return s.price, nil
}
func (s stubProvider) HistoricalRate(ctx context.Context, at time.Time) (float64, error) {
	return s.rate, nil
}

const (
	testUser     = "admin"
	testPassword = "secreto123"
)

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	store := newFakeStore()
	cache := market.NewCache()
	cache.Update(100000, 4000, time.Now())

	sessions := auth.NewSessionManager(time.Hour)
	t.Cleanup(sessions.Stop)

	tx := services.NewTransactionService(store, nil)
	inv := services.NewInvestmentService(store, stubProvider{price: 100000, rate: 4000}, cache, nil)

	s := NewServer(":0", store, tx, inv, auth.NewStaticCredentialStore(testUser, hash), sessions, cache)
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s, store
}

func loggedInCookie(t *testing.T, s *Server) *http.Cookie {
	t.Helper()
	token, err := s.sessions.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: token}
}

func doRequest(s *Server, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(s, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doRequest(s, http.MethodPost, "/api/auth/login",
		`{"username":"admin","password":"secreto123"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("no session cookie set on login")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}

	rr = doRequest(s, http.MethodGet, "/api/transactions", "", sessionCookie)
	if rr.Code != http.StatusOK {
		t.Errorf("authenticated list status = %d, want 200", rr.Code)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doRequest(s, http.MethodPost, "/api/auth/login",
		`{"username":"admin","password":"incorrecta"}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Credenciales inválidas" {
		t.Errorf("error = %q, want Credenciales inválidas", body["error"])
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s, _ := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/categories"},
		{http.MethodGet, "/api/bitcoin-purchases"},
		{http.MethodGet, "/api/stats"},
		{http.MethodGet, "/api/market"},
		{http.MethodGet, "/api/investment"},
	}
	for _, p := range paths {
		rr := doRequest(s, p.method, p.path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", p.method, p.path, rr.Code)
		}
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	s, _ := newTestServer(t)
	cookie := loggedInCookie(t, s)

	rr := doRequest(s, http.MethodPost, "/api/auth/logout", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", rr.Code)
	}

	rr = doRequest(s, http.MethodGet, "/api/transactions", "", cookie)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("post-logout status = %d, want 401", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doRequest(s, http.MethodPost, "/api/auth/login", `{}`, nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
