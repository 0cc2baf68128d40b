package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", WithLogger(quietLogger()))
}

func TestLoginSendsCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "amy@x.com", "password": "secret1"}, body)

		_, _ = io.WriteString(w, `{"message":"Login successful","token":"t0k","user":{"id":"u1","name":"Amy","email":"amy@x.com","role":"admin","created_at":null}}`)
	})

	resp, err := c.Auth().Login(context.Background(), "amy@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "t0k", resp.Token)
	assert.Equal(t, user.User{ID: "u1", Name: "Amy", Email: "amy@x.com", Role: user.RoleAdmin}, resp.User)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Invalid credentials"}`)
	})

	_, err := c.Auth().Login(context.Background(), "amy@x.com", "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, "Invalid credentials", MessageOf(err))
	assert.False(t, IsNetwork(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestNonJSONErrorFallsBackToStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	})

	_, err := c.Sweets(nil).List(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Bad Gateway", MessageOf(err))
	assert.True(t, IsNetwork(err))
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(srv.URL, WithTimeout(50*time.Millisecond), WithLogger(quietLogger()))
	_, err := c.Sweets(nil).List(context.Background())
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.True(t, IsNetwork(err))
	assert.Zero(t, StatusOf(err))
}

func TestListAcceptsEnvelopeAndBareArray(t *testing.T) {
	bodies := []string{
		`{"message":"ok","sweets":[{"id":"s1","name":"Ladoo","category":"Indian","price":2.5,"quantity":5}]}`,
		`[{"id":"s1","name":"Ladoo","category":"Indian","price":2.5,"quantity":5}]`,
	}
	for _, b := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/sweets", r.URL.Path)
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, b)
		})
		items, err := c.Sweets(staticToken("abc")).List(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, catalog.Item{ID: "s1", Name: "Ladoo", Category: "Indian", Price: 2.5, Quantity: 5}, items[0])
	}
}

func TestListRejectsUnknownShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"nothing here"}`)
	})
	_, err := c.Sweets(nil).List(context.Background())
	assert.Error(t, err)
}

func TestSearchEncodesFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sweets/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "lad", q.Get("name"))
		assert.Equal(t, "Indian", q.Get("category"))
		assert.Equal(t, "1.5", q.Get("min_price"))
		assert.False(t, q.Has("max_price"))
		_, _ = io.WriteString(w, `{"sweets":[],"count":0}`)
	})

	cat, minPrice := "Indian", 1.5
	items, err := c.Sweets(nil).Search(context.Background(), catalog.Filter{Text: " lad ", Category: &cat, MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemCalls(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotBody = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
		}
		if r.Method == http.MethodDelete {
			_, _ = io.WriteString(w, `{"message":"Sweet deleted successfully"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"ok","sweet":{"id":"s1","name":"Ladoo","category":"Indian","price":2.5,"quantity":2}}`)
	})
	api := c.Sweets(staticToken("abc"))
	ctx := context.Background()

	it, err := api.Purchase(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, it.Quantity)
	assert.Equal(t, "/api/sweets/s1/purchase", gotPath)
	assert.Equal(t, map[string]any{"quantity": float64(3)}, gotBody)

	_, err = api.Restock(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, "/api/sweets/s1/restock", gotPath)

	price := 3.0
	_, err = api.Update(ctx, "s1", catalog.Patch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, map[string]any{"price": float64(3)}, gotBody)

	_, err = api.Create(ctx, catalog.Draft{Name: "Ladoo", Category: "Indian", Price: 2.5, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, "/api/sweets", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)

	require.NoError(t, api.Delete(ctx, "s1"))
	assert.Equal(t, "/api/sweets/s1", gotPath)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestDecodeItemAcceptsBareItem(t *testing.T) {
	it, err := decodeItem(json.RawMessage(`{"id":"s9","name":"Barfi","category":"Indian","price":1,"quantity":0}`))
	require.NoError(t, err)
	assert.Equal(t, "s9", it.ID)

	_, err = decodeItem(json.RawMessage(`{"message":"ok"}`))
	assert.Error(t, err)
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	WithRateLimit(0.001, 1)(c)

	_, err := c.Sweets(nil).List(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Sweets(nil).List(ctx)
	assert.True(t, IsNetwork(err))
}
