package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/lib/pq"
)

// Verify interface compliance
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore implements driven.MetadataStore using PostgreSQL, with
// pgvector backing the approximate-NN index over documents.embedding per
// §4.6's schema.
type MetadataStore struct {
	db *DB
}

// NewMetadataStore creates a new PostgreSQL-backed MetadataStore.
func NewMetadataStore(db *DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// Index upserts a single document via the same path as BulkIndex.
func (s *MetadataStore) Index(ctx context.Context, doc *domain.Document) error {
	return s.BulkIndex(ctx, []*domain.Document{doc})
}

// BulkIndex upserts a batch of documents in a single transaction: upsert
// each custodian, upsert the document, delete-then-insert its attachments,
// insert custody events (ON CONFLICT DO NOTHING). Rollback on any failure —
// no partial batch is visible.
func (s *MetadataStore) BulkIndex(ctx context.Context, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, doc := range docs {
			if err := upsertCustodian(ctx, tx, doc); err != nil {
				return fmt.Errorf("upsert custodian for document %q: %w", doc.ID, err)
			}
			if err := upsertDocument(ctx, tx, doc); err != nil {
				return fmt.Errorf("upsert document %q: %w", doc.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE document_id = $1`, doc.ID); err != nil {
				return fmt.Errorf("clear attachments for document %q: %w", doc.ID, err)
			}
			for _, att := range doc.Attachments {
				if err := insertAttachment(ctx, tx, doc.ID, att); err != nil {
					return fmt.Errorf("insert attachment for document %q: %w", doc.ID, err)
				}
			}
			for _, ev := range doc.CustodyEvents {
				if err := insertCustodyEvent(ctx, tx, doc.ID, ev); err != nil {
					return fmt.Errorf("insert custody event for document %q: %w", doc.ID, err)
				}
			}
		}
		return nil
	})
}

func upsertCustodian(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	if doc.CustodianID == "" {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO custodians (id, matter_id, identifier, display_name)
		VALUES ($1, $2, $1, $1)
		ON CONFLICT (matter_id, identifier) DO NOTHING
	`, doc.CustodianID, doc.MatterID)
	return err
}

func upsertDocument(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO documents (
			document_id, matter_id, tenant_id, source, external_id, custodian_id,
			subject, body_text, object_key, content_sha256,
			file_category, data_quality, collected_at, sent_at, metadata_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (document_id) DO UPDATE SET
			matter_id = EXCLUDED.matter_id,
			tenant_id = EXCLUDED.tenant_id,
			source = EXCLUDED.source,
			external_id = EXCLUDED.external_id,
			custodian_id = EXCLUDED.custodian_id,
			subject = EXCLUDED.subject,
			body_text = EXCLUDED.body_text,
			object_key = EXCLUDED.object_key,
			content_sha256 = EXCLUDED.content_sha256,
			file_category = EXCLUDED.file_category,
			data_quality = EXCLUDED.data_quality,
			collected_at = EXCLUDED.collected_at,
			sent_at = EXCLUDED.sent_at,
			metadata_json = EXCLUDED.metadata_json,
			indexed_at = NOW()
	`
	_, err = tx.ExecContext(ctx, query,
		doc.ID,
		doc.MatterID,
		doc.TenantID,
		doc.Source,
		doc.ExternalID,
		doc.CustodianID,
		doc.Subject,
		doc.BodyText,
		doc.ObjectKey,
		doc.SHA256,
		string(doc.FileCategory),
		string(doc.DataQuality),
		doc.CollectedAt,
		nullTime(doc.SentAt),
		metadataJSON,
	)
	return err
}

func insertAttachment(ctx context.Context, tx *sql.Tx, documentID string, att *domain.Attachment) error {
	category, quality := "", ""
	if att.FileAnalysis != nil {
		category = string(att.FileAnalysis.Category)
		quality = string(att.FileAnalysis.Quality)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO attachments (document_id, filename, content_type, size_bytes, checksum_sha256, object_key, file_category, data_quality)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, documentID, att.Filename, att.ContentType, att.SizeBytes, att.SHA256, att.ObjectKey, category, quality)
	return err
}

func insertCustodyEvent(ctx context.Context, tx *sql.Tx, documentID string, ev *domain.CustodyEvent) error {
	metadataJSON, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("marshal custody event metadata: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO custody_events (document_id, event_timestamp, actor, action, metadata_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id, event_timestamp, actor, action) DO NOTHING
	`, documentID, ev.Timestamp, ev.Actor, ev.Action, metadataJSON)
	return err
}

// GetDocument retrieves a document by its document_id, including
// attachments and custody events.
func (s *MetadataStore) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	query := `
		SELECT document_id, matter_id, tenant_id, source, external_id, custodian_id,
			   subject, body_text, object_key, content_sha256,
			   file_category, data_quality, collected_at, sent_at, metadata_json, indexed_at
		FROM documents
		WHERE document_id = $1
	`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, documentID))
	if err != nil {
		return nil, err
	}

	if err := s.loadAttachments(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.loadCustodyEvents(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocumentsByCustodian retrieves documents for a custodian with pagination.
func (s *MetadataStore) GetDocumentsByCustodian(ctx context.Context, custodianID string, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT document_id, matter_id, tenant_id, source, external_id, custodian_id,
			   subject, body_text, object_key, content_sha256,
			   file_category, data_quality, collected_at, sent_at, metadata_json, indexed_at
		FROM documents
		WHERE custodian_id = $1
		ORDER BY collected_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, custodianID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query documents by custodian: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Count returns the total indexed document count.
func (s *MetadataStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// UnenrichedDocumentIDs returns document ids with no ai_analysis row.
func (s *MetadataStore) UnenrichedDocumentIDs(ctx context.Context, matterID string, limit int) ([]string, error) {
	query := `
		SELECT d.document_id
		FROM documents d
		LEFT JOIN ai_analysis a ON a.document_id = d.document_id
		WHERE a.document_id IS NULL AND ($1 = '' OR d.matter_id = $1)
		ORDER BY d.collected_at ASC
		LIMIT $2
	`
	return s.queryDocumentIDs(ctx, query, matterID, limit)
}

// UnembeddedDocumentIDs returns document ids with a NULL embedding column.
func (s *MetadataStore) UnembeddedDocumentIDs(ctx context.Context, matterID string, limit int) ([]string, error) {
	query := `
		SELECT document_id
		FROM documents
		WHERE embedding IS NULL AND ($1 = '' OR matter_id = $1)
		ORDER BY collected_at ASC
		LIMIT $2
	`
	return s.queryDocumentIDs(ctx, query, matterID, limit)
}

func (s *MetadataStore) queryDocumentIDs(ctx context.Context, query, matterID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, matterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query document ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertEnrichment writes the ai_analysis row for a document.
func (s *MetadataStore) UpsertEnrichment(ctx context.Context, documentID string, enrichment *domain.Enrichment) error {
	entities, err := json.Marshal(enrichment.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	classification := "needs-review"
	switch {
	case enrichment.Responsive:
		classification = "relevant"
	case enrichment.Privileged:
		classification = "privileged"
	}

	relevance := 0
	if enrichment.Responsive {
		relevance = 100
	}
	privilegeRisk := 0
	if enrichment.Privileged {
		privilegeRisk = 100
	}

	query := `
		INSERT INTO ai_analysis (document_id, summary, entities, relevance_score, classification, privilege_risk, raw_llm_response, model, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			entities = EXCLUDED.entities,
			relevance_score = EXCLUDED.relevance_score,
			classification = EXCLUDED.classification,
			privilege_risk = EXCLUDED.privilege_risk,
			raw_llm_response = EXCLUDED.raw_llm_response,
			model = EXCLUDED.model,
			analyzed_at = EXCLUDED.analyzed_at
	`
	analyzedAt := enrichment.EnrichedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, query,
		documentID,
		enrichment.Summary,
		entities,
		relevance,
		classification,
		privilegeRisk,
		enrichment.RawLLMResponse,
		enrichment.Model,
		analyzedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert enrichment: %w", err)
	}

	if len(enrichment.Embedding) > 0 {
		if err := s.UpsertEmbedding(ctx, documentID, enrichment.Embedding, enrichment.Model); err != nil {
			return err
		}
	}
	return nil
}

// UpsertEmbedding writes the embedding vector and model name for a document.
func (s *MetadataStore) UpsertEmbedding(ctx context.Context, documentID string, embedding []float32, model string) error {
	query := `
		UPDATE documents
		SET embedding = $2::vector, embedding_model = $3, embedding_generated_at = NOW()
		WHERE document_id = $1
	`
	result, err := s.db.ExecContext(ctx, query, documentID, vectorLiteral(embedding), model)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendReviewNote appends text to user_review.review_notes, creating the
// row if absent, prefixed with a separator sentinel per §4.8 step 7.
func (s *MetadataStore) AppendReviewNote(ctx context.Context, documentID string, note string) error {
	const separator = "\n---\n"
	query := `
		INSERT INTO user_review (document_id, review_notes)
		VALUES ($1, $2)
		ON CONFLICT (document_id) DO UPDATE SET
			review_notes = CASE
				WHEN user_review.review_notes = '' THEN EXCLUDED.review_notes
				ELSE user_review.review_notes || $3 || EXCLUDED.review_notes
			END
	`
	_, err := s.db.ExecContext(ctx, query, documentID, note, separator)
	if err != nil {
		return fmt.Errorf("append review note: %w", err)
	}
	return nil
}

// InsertTags inserts classification/priority/topic tags for a document
// (ON CONFLICT DO NOTHING on (document_id, tag_name)).
func (s *MetadataStore) InsertTags(ctx context.Context, documentID string, tags []domain.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, tag := range tags {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO user_tags (document_id, tag_name, applied_by, created_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (document_id, tag_name) DO NOTHING
			`, documentID, tag.Label, tag.AppliedBy, firstNonZero(tag.AppliedAt))
			if err != nil {
				return fmt.Errorf("insert tag %q: %w", tag.Label, err)
			}
		}
		return nil
	})
}

func firstNonZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// HealthCheck verifies the backing store is reachable.
func (s *MetadataStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Search executes a text-rank search against documents.search_vector,
// combined with the query's filters. Unlike the Vespa SearchEngine, this
// backend has no access to a query embedding, so every result is scored by
// full-text rank (or left unranked when QueryText is empty) rather than by
// vector similarity.
func (s *MetadataStore) Search(ctx context.Context, query domain.SearchQuery, runtime *domain.RuntimeConfig) (*domain.SearchResult, error) {
	started := time.Now()
	if query.Limit <= 0 {
		query.Limit = 20
	}

	var (
		conditions []string
		args       []any
		scoreExpr  = "0"
		scoreKind  = "fallback"
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	selectCols := `d.document_id, d.matter_id, d.tenant_id, d.source, d.external_id, d.custodian_id,
		d.subject, d.body_text, d.object_key, d.content_sha256,
		d.file_category, d.data_quality, d.collected_at, d.sent_at, d.metadata_json, d.indexed_at`

	if query.HasTextQuery() {
		ph := arg(query.QueryText)
		scoreExpr = fmt.Sprintf("ts_rank(d.search_vector, plainto_tsquery('english', %s))", ph)
		scoreKind = "text"
		conditions = append(conditions, fmt.Sprintf("d.search_vector @@ plainto_tsquery('english', %s)", ph))
	}
	if query.Custodian != "" {
		conditions = append(conditions, fmt.Sprintf("d.custodian_id = %s", arg(query.Custodian)))
	}
	if query.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("d.collected_at >= %s", arg(*query.DateFrom)))
	}
	if query.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("d.collected_at <= %s", arg(*query.DateTo)))
	}
	if query.FileCategory != "" {
		conditions = append(conditions, fmt.Sprintf("d.file_category = %s", arg(string(query.FileCategory))))
	}
	if query.DataQuality != "" {
		conditions = append(conditions, fmt.Sprintf("d.data_quality = %s", arg(string(query.DataQuality))))
	}
	if query.Classification != "" {
		conditions = append(conditions, fmt.Sprintf("a.classification = %s", arg(query.Classification)))
	}
	if query.MinRelevance != nil {
		conditions = append(conditions, fmt.Sprintf("a.relevance_score >= %s", arg(*query.MinRelevance)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limitPH := arg(query.Limit)
	sqlQuery := fmt.Sprintf(`
		SELECT %s, %s AS score,
			   a.relevance_score, r.user_relevance_score, r.review_status,
			   COALESCE(array_agg(t.tag_name) FILTER (WHERE t.tag_name IS NOT NULL), '{}') AS tags
		FROM documents d
		LEFT JOIN ai_analysis a ON a.document_id = d.document_id
		LEFT JOIN user_review r ON r.document_id = d.document_id
		LEFT JOIN user_tags t ON t.document_id = d.document_id
		%s
		GROUP BY d.id, a.relevance_score, r.user_relevance_score, r.review_status
		ORDER BY score DESC, d.collected_at DESC
		LIMIT %s
	`, selectCols, scoreExpr, where, limitPH)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var hits []*domain.SearchHit
	for rows.Next() {
		var (
			doc           domain.Document
			tenantID      sql.NullString
			custodianID   sql.NullString
			subject       sql.NullString
			bodyText      sql.NullString
			objectKey     sql.NullString
			sha256        sql.NullString
			fileCategory  sql.NullString
			dataQuality   sql.NullString
			sentAt        sql.NullTime
			metadataJSON  []byte
			indexedAt     sql.NullTime
			score         float64
			aiRelevance   sql.NullInt32
			userRelevance sql.NullInt32
			reviewStatus  sql.NullString
			tags          []string
		)
		if err := rows.Scan(
			&doc.ID, &doc.MatterID, &tenantID, &doc.Source, &doc.ExternalID, &custodianID,
			&subject, &bodyText, &objectKey, &sha256,
			&fileCategory, &dataQuality, &doc.CollectedAt, &sentAt, &metadataJSON, &indexedAt,
			&score, &aiRelevance, &userRelevance, &reviewStatus, pq.Array(&tags),
		); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}

		doc.TenantID = tenantID.String
		doc.CustodianID = custodianID.String
		doc.Subject = subject.String
		doc.BodyText = bodyText.String
		doc.ObjectKey = objectKey.String
		doc.SHA256 = sha256.String
		doc.FileCategory = domain.FileCategory(fileCategory.String)
		doc.DataQuality = domain.DataQuality(dataQuality.String)
		if sentAt.Valid {
			doc.SentAt = &sentAt.Time
		}
		if indexedAt.Valid {
			doc.IndexedAt = &indexedAt.Time
		}
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &doc.Metadata)
		}

		hit := &domain.SearchHit{
			Document:  &doc,
			Score:     score,
			ScoreKind: scoreKind,
			Tags:      tags,
		}
		if aiRelevance.Valid {
			v := int(aiRelevance.Int32)
			hit.AIRelevance = &v
		}
		if userRelevance.Valid {
			v := int(userRelevance.Int32)
			hit.UserRelevance = &v
		}
		hit.ReviewStatus = reviewStatus.String
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search hits: %w", err)
	}

	total, err := s.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	return &domain.SearchResult{
		Query:      query,
		Hits:       hits,
		TotalCount: total,
		Took:       time.Since(started),
	}, nil
}

func (s *MetadataStore) loadAttachments(ctx context.Context, doc *domain.Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, content_type, size_bytes, checksum_sha256, object_key
		FROM attachments
		WHERE document_id = $1
	`, doc.ID)
	if err != nil {
		return fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		att := &domain.Attachment{ParentID: doc.ID}
		if err := rows.Scan(&att.Filename, &att.ContentType, &att.SizeBytes, &att.SHA256, &att.ObjectKey); err != nil {
			return fmt.Errorf("scan attachment: %w", err)
		}
		doc.Attachments = append(doc.Attachments, att)
	}
	return rows.Err()
}

func (s *MetadataStore) loadCustodyEvents(ctx context.Context, doc *domain.Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_timestamp, actor, action, metadata_json
		FROM custody_events
		WHERE document_id = $1
		ORDER BY event_timestamp ASC
	`, doc.ID)
	if err != nil {
		return fmt.Errorf("query custody events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev := &domain.CustodyEvent{DocumentID: doc.ID}
		var metadataJSON []byte
		if err := rows.Scan(&ev.Timestamp, &ev.Actor, &ev.Action, &metadataJSON); err != nil {
			return fmt.Errorf("scan custody event: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &ev.Metadata); err != nil {
				return fmt.Errorf("unmarshal custody event metadata: %w", err)
			}
		}
		doc.CustodyEvents = append(doc.CustodyEvents, ev)
	}
	return rows.Err()
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var tenantID, custodianID, subject, bodyText, objectKey, sha256 sql.NullString
	var fileCategory, dataQuality sql.NullString
	var sentAt, indexedAt sql.NullTime
	var metadataJSON []byte

	err := row.Scan(
		&doc.ID, &doc.MatterID, &tenantID, &doc.Source, &doc.ExternalID, &custodianID,
		&subject, &bodyText, &objectKey, &sha256,
		&fileCategory, &dataQuality, &doc.CollectedAt, &sentAt, &metadataJSON, &indexedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.TenantID = tenantID.String
	doc.CustodianID = custodianID.String
	doc.Subject = subject.String
	doc.BodyText = bodyText.String
	doc.ObjectKey = objectKey.String
	doc.SHA256 = sha256.String
	doc.FileCategory = domain.FileCategory(fileCategory.String)
	doc.DataQuality = domain.DataQuality(dataQuality.String)
	if sentAt.Valid {
		doc.SentAt = &sentAt.Time
	}
	if indexedAt.Valid {
		doc.IndexedAt = &indexedAt.Time
	}
	if len(metadataJSON) > 0 {
		_ = json.Unmarshal(metadataJSON, &doc.Metadata)
	}
	return &doc, nil
}

// vectorLiteral renders a float32 slice as a pgvector input literal
// ("[0.1,0.2,...]"), since lib/pq has no native vector codec.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
