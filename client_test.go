package grist_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grist "github.com/tablesync/go-grist"
)

// recordedCall captures one request the fake document server saw.
type recordedCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// docServer fakes the document service: GET returns fetchData, inserts
// assign sequential row ids, everything else returns 200.
type docServer struct {
	calls     []recordedCall
	fetchData map[string]interface{}
	nextID    int64
	status    int
	errorBody string
}

func newDocServer(fetchData map[string]interface{}) *docServer {
	return &docServer{fetchData: fetchData, nextID: 1}
}

func (s *docServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.calls = append(s.calls, recordedCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})

	if s.status != 0 {
		w.WriteHeader(s.status)
		fmt.Fprint(w, s.errorBody)
		return
	}

	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(s.fetchData)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/data"):
		var td map[string][]interface{}
		_ = json.Unmarshal(body, &td)
		rows := 0
		for _, values := range td {
			rows = len(values)
			break
		}
		ids := make([]int64, rows)
		for i := range ids {
			ids[i] = s.nextID
			s.nextID++
		}
		_ = json.NewEncoder(w).Encode(ids)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *docServer) callsByMethod(method string) []recordedCall {
	var out []recordedCall
	for _, c := range s.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, srv *httptest.Server, config *grist.Config) *grist.Client {
	t.Helper()
	if config == nil {
		config = &grist.Config{}
	}
	if config.APIKey == nil {
		key := "test-key"
		config.APIKey = &key
	}
	if config.Logger == nil {
		config.Logger = quietLogger()
	}
	client, err := grist.New(srv.URL+"/doc/testdoc12345", config)
	require.NoError(t, err)
	return client
}

func TestClient_FetchTable(t *testing.T) {
	doc := newDocServer(map[string]interface{}{
		"id":   []interface{}{1, 2},
		"Name": []interface{}{"eggs", "milk"},
	})
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	records, err := client.FetchTable(context.Background(), "Inventory", nil)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "eggs", records[0].GetAsString("Name", ""))
	assert.Equal(t, "milk", records[1].GetAsString("Name", ""))

	require.Len(t, doc.calls, 1)
	assert.Equal(t, "/api/docs/testdoc12345/tables/Inventory/data", doc.calls[0].Path)
	assert.Equal(t, "Bearer test-key", doc.calls[0].Auth)
}

func TestClient_FetchTable_SendsFilterQuery(t *testing.T) {
	doc := newDocServer(map[string]interface{}{"id": []interface{}{}})
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	_, err := client.FetchTable(context.Background(), "Inventory", grist.Filter{"Name": {"eggs"}})
	require.NoError(t, err)

	require.Len(t, doc.calls, 1)
	assert.Contains(t, doc.calls[0].Query, "filter=")
	assert.Contains(t, doc.calls[0].Query, "eggs")
}

func TestClient_FetchTable_MissingIDColumn(t *testing.T) {
	doc := newDocServer(map[string]interface{}{
		"Name": []interface{}{"eggs"},
	})
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	_, err := client.FetchTable(context.Background(), "Inventory", nil)
	assert.ErrorIs(t, err, grist.ErrMalformedResponse)
}

func TestClient_AddRecords_Chunking(t *testing.T) {
	doc := newDocServer(nil)
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, &grist.Config{ChunkSize: 12})

	records := make([]grist.Record, 50)
	for i := range records {
		records[i] = grist.Record{"N": i}
	}

	ids, err := client.AddRecords(context.Background(), "Inventory", records)
	require.NoError(t, err)

	assert.Len(t, doc.calls, 5, "4x12 + 1x2 records should issue 5 insert calls")
	require.Len(t, ids, 50)
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id, "ids concatenate in input order")
	}
}

func TestClient_AddRecords_EmptyShortCircuits(t *testing.T) {
	doc := newDocServer(nil)
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	ids, err := client.AddRecords(context.Background(), "Inventory", nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
	assert.Empty(t, doc.calls)
}

func TestClient_UpdateRecords_Chunking(t *testing.T) {
	doc := newDocServer(nil)
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, &grist.Config{ChunkSize: 12})

	records := make([]grist.Record, 50)
	for i := range records {
		records[i] = grist.Record{"id": i + 1, "N": i}
	}

	require.NoError(t, client.UpdateRecords(context.Background(), "Inventory", records))
	assert.Len(t, doc.callsByMethod(http.MethodPatch), 5)
}

func TestClient_UpdateRecords_GroupsByColumnSet(t *testing.T) {
	doc := newDocServer(nil)
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	records := []grist.Record{
		{"id": 1, "A": "a1"},
		{"id": 2, "B": "b1"},
		{"id": 3, "A": "a2"},
	}

	require.NoError(t, client.UpdateRecords(context.Background(), "Inventory", records))

	patches := doc.callsByMethod(http.MethodPatch)
	require.Len(t, patches, 2, "one call per distinct column set")

	var first, second map[string][]interface{}
	require.NoError(t, json.Unmarshal(patches[0].Body, &first))
	require.NoError(t, json.Unmarshal(patches[1].Body, &second))

	assert.ElementsMatch(t, []string{"id", "A"}, mapKeys(first))
	assert.Len(t, first["id"], 2)
	assert.ElementsMatch(t, []string{"id", "B"}, mapKeys(second))
	assert.Len(t, second["id"], 1)
}

func TestClient_UpdateRecords_MissingID(t *testing.T) {
	doc := newDocServer(nil)
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	err := client.UpdateRecords(context.Background(), "Inventory", []grist.Record{{"A": "a"}})
	assert.ErrorIs(t, err, grist.ErrInvalidRecord)
	assert.Empty(t, doc.calls, "precondition failures must not reach the network")
}

func TestClient_DeleteRecords_Chunking(t *testing.T) {
	doc := newDocServer(nil)
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, &grist.Config{ChunkSize: 12})

	ids := make([]int64, 50)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	require.NoError(t, client.DeleteRecords(context.Background(), "Inventory", ids))

	require.Len(t, doc.calls, 5)
	assert.Equal(t, "/api/docs/testdoc12345/apply", doc.calls[0].Path)

	var actions [][]interface{}
	require.NoError(t, json.Unmarshal(doc.calls[4].Body, &actions))
	require.Len(t, actions, 1)
	assert.Equal(t, "BulkRemoveRecord", actions[0][0])
	assert.Equal(t, "Inventory", actions[0][1])
	assert.Len(t, actions[0][2], 2, "last chunk carries the remaining 2 ids")
}

func TestClient_DryRunSuppressesWrites(t *testing.T) {
	doc := newDocServer(map[string]interface{}{"id": []interface{}{1}})
	srv := httptest.NewServer(doc)
	defer srv.Close()
	client := newTestClient(t, srv, &grist.Config{DryRun: true})

	ids, err := client.AddRecords(context.Background(), "Inventory", []grist.Record{{"N": 1}})
	require.NoError(t, err)
	assert.Nil(t, ids)

	require.NoError(t, client.UpdateRecords(context.Background(), "Inventory", []grist.Record{{"id": 1, "N": 2}}))
	require.NoError(t, client.DeleteRecords(context.Background(), "Inventory", []int64{1}))
	assert.Empty(t, doc.calls, "dry run must not send modifying calls")

	// Reads still execute.
	records, err := client.FetchTable(context.Background(), "Inventory", nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, doc.calls, 1)
}

func TestClient_APIError(t *testing.T) {
	doc := newDocServer(nil)
	doc.status = http.StatusForbidden
	doc.errorBody = `{"error": "access denied"}`
	srv := httptest.NewServer(doc)
	defer srv.Close()

	t.Run("keyless client gets a credential hint", func(t *testing.T) {
		empty := ""
		client := newTestClient(t, srv, &grist.Config{APIKey: &empty})

		_, err := client.FetchTable(context.Background(), "Inventory", nil)
		var apiErr *grist.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, "access denied", apiErr.Message)
		assert.Contains(t, apiErr.Hint, "GRIST_API_KEY")
	})

	t.Run("keyed client gets no hint", func(t *testing.T) {
		client := newTestClient(t, srv, nil)

		_, err := client.FetchTable(context.Background(), "Inventory", nil)
		var apiErr *grist.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Empty(t, apiErr.Hint)
	})
}

func TestClient_NoAPIKeyAnywhere(t *testing.T) {
	t.Setenv("GRIST_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	doc := newDocServer(nil)
	srv := httptest.NewServer(doc)
	defer srv.Close()

	client, err := grist.New(srv.URL+"/doc/testdoc12345", &grist.Config{Logger: quietLogger()})
	require.NoError(t, err)

	_, err = client.FetchTable(context.Background(), "Inventory", nil)
	assert.ErrorIs(t, err, grist.ErrNoAPIKey)
	assert.Empty(t, doc.calls)
}

func mapKeys(m map[string][]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
