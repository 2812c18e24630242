package grist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Client provides record-oriented access to the tables of one document.
// Every operation issues its outbound calls sequentially; a failure
// aborts the remaining sequence and calls already applied stay applied.
type Client struct {
	server      string
	docID       string
	chunkSize   int // effective batch bound; math.MaxInt when unbounded
	dryRun      bool
	explicitKey *string
	httpClient  *http.Client
	logger      *logrus.Logger
	cred        credential
}

// New creates a client for the document addressed by docURLOrID, which
// is either a full document URL or a bare document id resolved against
// the configured (or default) server.
func New(docURLOrID string, config *Config) (*Client, error) {
	if config == nil {
		config = &Config{}
	}

	server, docID, err := parseDocID(docURLOrID, config.Server)
	if err != nil {
		return nil, err
	}

	chunkSize := config.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < 0 {
		chunkSize = math.MaxInt
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		server:      server,
		docID:       docID,
		chunkSize:   chunkSize,
		dryRun:      config.DryRun,
		explicitKey: config.APIKey,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// DocID returns the id of the target document.
func (c *Client) DocID() string { return c.docID }

// Server returns the base URL of the document server.
func (c *Client) Server() string { return c.server }

// FetchTable returns the records of a table, optionally restricted to
// rows whose filtered columns take one of the allowed values.
func (c *Client) FetchTable(ctx context.Context, table string, filters Filter) ([]Record, error) {
	var query url.Values
	if len(filters) > 0 {
		raw, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("encoding filter: %w", err)
		}
		query = url.Values{"filter": {string(raw)}}
	}

	var body map[string]interface{}
	if err := c.call(ctx, http.MethodGet, c.tablePath(table), query, nil, &body); err != nil {
		return nil, err
	}
	return tableDataFromResponse(body).Records()
}

// AddRecords inserts records and returns the new row ids in input
// order. Records may have heterogeneous column sets; columns a record
// lacks are sent as null. In dry-run mode no ids are returned.
func (c *Client) AddRecords(ctx context.Context, table string, records []Record) ([]int64, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var ids []int64
	for _, batch := range splitBatch(records, c.chunkSize) {
		var batchIDs []int64
		if err := c.call(ctx, http.MethodPost, c.tablePath(table), nil, RecordsToTableData(batch), &batchIDs); err != nil {
			return nil, err
		}
		ids = append(ids, batchIDs...)
	}
	return ids, nil
}

// UpdateRecords applies partial updates. Each record must carry a
// numeric id naming the row to change; only the columns a record
// mentions are modified. One call is issued per column-set group per
// chunk, in group first-appearance order.
func (c *Client) UpdateRecords(ctx context.Context, table string, records []Record) error {
	batches, err := groupForUpdate(records, c.chunkSize)
	if err != nil {
		return err
	}
	for _, batch := range batches {
		if err := c.call(ctx, http.MethodPatch, c.tablePath(table), nil, RecordsToTableData(batch), nil); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRecords removes rows by id, one call per chunk of ids.
func (c *Client) DeleteRecords(ctx context.Context, table string, ids []int64) error {
	path := fmt.Sprintf("/api/docs/%s/apply", c.docID)
	for _, batch := range splitBatch(ids, c.chunkSize) {
		actions := []interface{}{
			[]interface{}{"BulkRemoveRecord", table, batch},
		}
		if err := c.call(ctx, http.MethodPost, path, nil, actions, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) tablePath(table string) string {
	return fmt.Sprintf("/api/docs/%s/tables/%s/data", c.docID, table)
}

// call issues one HTTP request against the document server. Non-GET
// calls are logged and suppressed in dry-run mode, before credential
// resolution. A non-nil out receives the decoded JSON response.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	endpoint := c.server + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if c.dryRun && method != http.MethodGet {
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"url":    endpoint,
		}).Info("dry run, skipping call")
		return nil
	}

	httpClient, err := c.authClient(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return nil
}

// apiError shapes a non-success response into an APIError, surfacing
// any server-provided error text and hinting at credential setup when
// an authorization failure hits a keyless client.
func (c *Client) apiError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var shaped struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil && shaped.Error != "" {
		message = shaped.Error
	}

	apiErr := &APIError{StatusCode: status, Message: message}
	if (status == http.StatusUnauthorized || status == http.StatusForbidden) && c.keyless() {
		apiErr.Hint = fmt.Sprintf("no API key in use; pass Config.APIKey, set %s, or create ~/%s",
			apiKeyEnvVar, apiKeyFileName)
	}
	return apiErr
}
