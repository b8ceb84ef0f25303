// Package mock implements the mock_email connector: a deterministic
// generator of sample evidence documents used for pipeline smoke tests
// (the "Mock-email run" scenario) without any external dependency.
package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.SourceConnector = (*Connector)(nil)
var _ driven.ConnectorBuilder = (*Builder)(nil)

// Connector produces batchSize deterministic sample documents per Fetch
// call. It never requires credentials and has no incremental cursor: a
// full pull happens on every call.
type Connector struct {
	name      string
	batchSize int
}

// New creates a mock_email connector. batchSize defaults to 10.
func New(name string, batchSize int) *Connector {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Connector{name: name, batchSize: batchSize}
}

func (c *Connector) Type() domain.ConnectorType {
	return domain.ConnectorTypeMockEmail
}

// Fetch ignores cursor and always returns a fresh batch of batchSize
// documents with distinct subjects, so no two documents share a
// content hash after deduplication.
func (c *Connector) Fetch(ctx context.Context, cursor string) ([]*domain.Document, string, error) {
	base := time.Now().Add(-24 * time.Hour)
	docs := make([]*domain.Document, 0, c.batchSize)

	for i := 0; i < c.batchSize; i++ {
		idx := strconv.Itoa(i)
		subject := fmt.Sprintf("Project Falcon Update #%d", i)
		body := "Team,\n\nAttached is the latest project status including risk flags. " +
			"Please review before tomorrow's standup.\n\nThanks,\nOps"

		attachmentPayload := []byte("status report body for update " + idx)
		sum := sha256.Sum256(attachmentPayload)

		collectedAt := base.Add(time.Duration(i) * time.Minute)
		doc := &domain.Document{
			ID:          fmt.Sprintf("mock-email-%s-%d", c.name, i),
			Source:      c.name,
			ExternalID:  "mock-" + idx,
			CustodianID: "custodian-" + idx,
			Subject:     subject,
			BodyText:    body,
			CollectedAt: collectedAt,
			Metadata: map[string]string{
				"message_id": fmt.Sprintf("<mock-%s@example.com>", idx),
				"thread_id":  "falcon-initiative",
			},
			Attachments: []*domain.Attachment{
				{
					Filename:    "status.txt",
					ContentType: "text/plain",
					SizeBytes:   int64(len(attachmentPayload)),
					Payload:     attachmentPayload,
					SHA256:      hex.EncodeToString(sum[:]),
				},
			},
		}
		doc.AppendCustodyEvent("collected", string(domain.ConnectorTypeMockEmail), time.Now(), map[string]string{"connector": c.name})
		docs = append(docs, doc)
	}

	return docs, "", nil
}

// TestConnection always succeeds; there is no external system to reach.
func (c *Connector) TestConnection(ctx context.Context) error {
	return nil
}

// Builder constructs mock_email connectors. It never requires OAuth.
type Builder struct{}

// NewBuilder creates the mock_email connector builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Type() domain.ConnectorType {
	return domain.ConnectorTypeMockEmail
}

func (b *Builder) Build(ctx context.Context, cfg domain.ConnectorConfig, tokenProvider driven.TokenProvider) (driven.SourceConnector, error) {
	batchSize := 10
	if v, ok := cfg.Params["batch_size"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			batchSize = n
		}
	}
	return New(cfg.Name, batchSize), nil
}

func (b *Builder) SupportsOAuth() bool {
	return false
}

func (b *Builder) OAuthConfig() *driven.OAuthConfig {
	return nil
}
