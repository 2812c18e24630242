package grist

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultServer hosts documents addressed by a bare id.
	DefaultServer = "https://docs.getgrist.com"

	// DefaultChunkSize bounds how many records travel in one call when
	// the configuration does not say otherwise.
	DefaultChunkSize = 500
)

// Config carries construction-time options for the document client.
// Zero values select defaults.
type Config struct {
	// Server overrides the base URL when the document is addressed by a
	// bare id rather than a full URL.
	Server string

	// APIKey overrides credential resolution. Leave nil to resolve the
	// key from the GRIST_API_KEY environment variable or the
	// ~/.grist-api-key file; point at an empty string to deliberately
	// send no credential (public documents).
	APIKey *string

	// DryRun logs and suppresses every call that would modify the
	// document. Reads still execute.
	DryRun bool

	// ChunkSize bounds how many records travel in one call. Zero means
	// DefaultChunkSize; a negative value disables chunking.
	ChunkSize int

	// Logger receives dry-run notices and sync summaries. Defaults to
	// the logrus standard logger.
	Logger *logrus.Logger

	// HTTPClient is the base transport. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

var (
	docURLPattern = regexp.MustCompile(`^(https?://[^/]+(?:/o/[^/]+)?)/doc/([^/?#]+)`)
	docIDPattern  = regexp.MustCompile(`^[^/?#]{12,}$`)
)

// parseDocID decomposes a document URL, or a bare document id resolved
// against server, into the server base URL and the document id. A full
// URL wins over the server override.
func parseDocID(docURLOrID, server string) (string, string, error) {
	if m := docURLPattern.FindStringSubmatch(docURLOrID); m != nil {
		return m[1], m[2], nil
	}
	if docIDPattern.MatchString(docURLOrID) {
		if server == "" {
			server = DefaultServer
		}
		return server, docURLOrID, nil
	}
	return "", "", fmt.Errorf("not a document URL or id: %q", docURLOrID)
}
