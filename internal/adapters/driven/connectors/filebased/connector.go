// Package filebased implements the file_based_json connector: it reads
// one evidence document per *.json file from a local directory, the
// on-disk equivalent of a mailbox export used for bulk loads and tests.
package filebased

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.SourceConnector = (*Connector)(nil)
var _ driven.ConnectorBuilder = (*Builder)(nil)

// record is the on-disk shape of one *.json evidence file.
type record struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Date    string `json:"date"`
}

// Connector reads every *.json file under dataPath on each Fetch call.
// It has no incremental cursor: file_based_json is intended for one-shot
// bulk loads, not a live incremental source.
type Connector struct {
	name     string
	dataPath string
}

// New creates a file_based_json connector rooted at dataPath.
func New(name, dataPath string) *Connector {
	return &Connector{name: name, dataPath: dataPath}
}

func (c *Connector) Type() domain.ConnectorType {
	return domain.ConnectorTypeFileBasedJSON
}

// Fetch parses every *.json file in dataPath into a Document, skipping
// (with no error) any file that fails to parse per §4.3's ParseError
// policy: a malformed record is skipped, never aborts the connector.
func (c *Connector) Fetch(ctx context.Context, cursor string) ([]*domain.Document, string, error) {
	entries, err := os.ReadDir(c.dataPath)
	if err != nil {
		return nil, "", fmt.Errorf("read data path %q: %w", c.dataPath, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]*domain.Document, 0, len(names))
	for _, name := range names {
		select {
		case <-ctx.Done():
			return docs, "", ctx.Err()
		default:
		}

		path := filepath.Join(c.dataPath, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}

		doc := c.recordToDocument(name, rec)
		docs = append(docs, doc)
	}

	return docs, "", nil
}

func (c *Connector) recordToDocument(filename string, rec record) *domain.Document {
	collectedAt := time.Now()
	if rec.Date != "" {
		if t, err := time.Parse("2006-01-02", rec.Date); err == nil {
			collectedAt = t
		} else if t, err := time.Parse(time.RFC3339, rec.Date); err == nil {
			collectedAt = t
		}
	}

	custodianEmail := strings.ToLower(strings.TrimSpace(rec.From))
	if custodianEmail == "" {
		custodianEmail = "unknown@example.com"
	}
	custodianID := custodianEmail
	if at := strings.Index(custodianEmail, "@"); at > 0 {
		custodianID = custodianEmail[:at]
	}

	subject := rec.Subject
	if subject == "" {
		subject = "No Subject"
	}

	sum := sha256.Sum256([]byte(rec.Body))
	docID := fmt.Sprintf("%s-%s", c.name, strings.TrimSuffix(filename, ".json"))

	doc := &domain.Document{
		ID:          docID,
		Source:      c.name,
		ExternalID:  filename,
		CustodianID: custodianID,
		Subject:     subject,
		BodyText:    rec.Body,
		CollectedAt: collectedAt,
		SHA256:      hex.EncodeToString(sum[:]),
		Metadata: map[string]string{
			"from": rec.From,
			"to":   rec.To,
			"date": rec.Date,
		},
	}
	doc.AppendCustodyEvent("collected", string(domain.ConnectorTypeFileBasedJSON), time.Now(), map[string]string{"source_file": filename})
	return doc
}

// TestConnection verifies the configured data path exists and is readable.
func (c *Connector) TestConnection(ctx context.Context) error {
	info, err := os.Stat(c.dataPath)
	if err != nil {
		return fmt.Errorf("data path %q unreachable: %w", c.dataPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %q is not a directory", c.dataPath)
	}
	return nil
}

// Builder constructs file_based_json connectors.
type Builder struct{}

// NewBuilder creates the file_based_json connector builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Type() domain.ConnectorType {
	return domain.ConnectorTypeFileBasedJSON
}

func (b *Builder) Build(ctx context.Context, cfg domain.ConnectorConfig, tokenProvider driven.TokenProvider) (driven.SourceConnector, error) {
	dataPath := cfg.Params["data_path"]
	if dataPath == "" {
		return nil, fmt.Errorf("%w: file_based_json connector %q requires params.data_path", domain.ErrConfig, cfg.Name)
	}
	return New(cfg.Name, dataPath), nil
}

func (b *Builder) SupportsOAuth() bool {
	return false
}

func (b *Builder) OAuthConfig() *driven.OAuthConfig {
	return nil
}
