package rotor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, path, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestFetchRoutes_Success(t *testing.T) {
	server := newTestServer(t, "/api/routes/company1",
		`{"status":"ok","routes":[{"id":1,"route":"Route A"},{"id":2,"route":"Route B"}]}`)
	defer server.Close()

	client := NewClient(server.URL, "company1", zap.NewNop())
	routes, err := client.FetchRoutes(context.Background())

	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, 1, routes[0].ID)
	assert.Equal(t, "Route A", routes[0].Name)
	assert.Equal(t, 2, routes[1].ID)
	assert.Equal(t, "Route B", routes[1].Name)
}

func TestFetchRoutes_APIError(t *testing.T) {
	server := newTestServer(t, "/api/routes/company1",
		`{"status":"error","message":"company not found"}`)
	defer server.Close()

	client := NewClient(server.URL, "company1", zap.NewNop())
	routes, err := client.FetchRoutes(context.Background())

	require.Error(t, err)
	assert.Nil(t, routes)
	assert.Contains(t, err.Error(), "company not found")
}

func TestFetchRoutes_APIErrorWithoutMessage(t *testing.T) {
	server := newTestServer(t, "/api/routes/company1", `{"status":"error"}`)
	defer server.Close()

	client := NewClient(server.URL, "company1", zap.NewNop())
	_, err := client.FetchRoutes(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error")
}

func TestFetchRoutes_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "company1", zap.NewNop())
	_, err := client.FetchRoutes(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestFetchVehicles_DropsBlankBoards(t *testing.T) {
	server := newTestServer(t, "/api/vehicles/company1",
		`{"status":"ok","vehicles":[
			{"number":9,"board_number":"A123BC"},
			{"number":10,"board_number":"   "},
			{"number":11,"board_number":""},
			{"number":12,"board_number":"B456DE"}
		]}`)
	defer server.Close()

	client := NewClient(server.URL, "company1", zap.NewNop())
	vehicles, err := client.FetchVehicles(context.Background())

	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, 9, vehicles[0].ID)
	assert.Equal(t, "A123BC", vehicles[0].BoardNumber)
	assert.Equal(t, 12, vehicles[1].ID)
	assert.Equal(t, "B456DE", vehicles[1].BoardNumber)
}

func TestFetchUsers_NormalizesAndDropsBlanks(t *testing.T) {
	server := newTestServer(t, "/api/users/company1",
		`{"status":"ok","users":[
			{"vk":"https://vk.com/ivanov","name":"Иванов И."},
			{"vk":"@petrov","name":"Петров П."},
			{"vk":"","name":"Без идентификатора"},
			{"vk":"sidorov","name":"  "}
		]}`)
	defer server.Close()

	client := NewClient(server.URL, "company1", zap.NewNop())
	directory, err := client.FetchUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, directory, 2)
	assert.Equal(t, "Иванов И.", directory["ivanov"])
	assert.Equal(t, "Петров П.", directory["petrov"])
}

func TestNormalizeIdentity(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://vk.com/@ivanov/", "ivanov"},
		{"http://vk.com/petrov", "petrov"},
		{"vk.com/sidorov", "sidorov"},
		{"@kuznetsov", "kuznetsov"},
		{"  smirnov  ", "smirnov"},
		{"/volkov/", "volkov"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeIdentity(tc.in), "input %q", tc.in)
	}
}
