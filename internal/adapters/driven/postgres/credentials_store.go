package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/lib/pq"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// credentialSecrets is the subset of domain.Credentials that gets
// encrypted into secret_blob; everything else is stored in the clear.
type credentialSecrets struct {
	AccessToken        string `json:"access_token,omitempty"`
	RefreshToken       string `json:"refresh_token,omitempty"`
	APIKey             string `json:"api_key,omitempty"`
	Username           string `json:"username,omitempty"`
	Password           string `json:"password,omitempty"`
	ServiceAccountJSON string `json:"service_account_json,omitempty"`
}

// CredentialsStore implements driven.CredentialsStore using PostgreSQL.
// It backs ad hoc API-key/basic-auth connector credentials, separately
// from the OAuth-installation flow's connector_installations table.
type CredentialsStore struct {
	db        *sql.DB
	encryptor *SecretEncryptor
}

// NewCredentialsStore creates a new PostgreSQL-backed credentials store.
func NewCredentialsStore(db *sql.DB, encryptor *SecretEncryptor) *CredentialsStore {
	return &CredentialsStore{db: db, encryptor: encryptor}
}

// Save stores or updates credentials, encrypting the sensitive fields.
func (s *CredentialsStore) Save(ctx context.Context, creds *domain.Credentials) error {
	blob, err := s.encryptor.Encrypt(credentialSecrets{
		AccessToken:        creds.AccessToken,
		RefreshToken:       creds.RefreshToken,
		APIKey:             creds.APIKey,
		Username:           creds.Username,
		Password:           creds.Password,
		ServiceAccountJSON: creds.ServiceAccountJSON,
	})
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}

	now := time.Now()
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}
	creds.UpdatedAt = now

	query := `
		INSERT INTO credentials (id, connector_type, auth_method, name, secret_blob, token_expiry, scopes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			connector_type = EXCLUDED.connector_type,
			auth_method = EXCLUDED.auth_method,
			name = EXCLUDED.name,
			secret_blob = EXCLUDED.secret_blob,
			token_expiry = EXCLUDED.token_expiry,
			scopes = EXCLUDED.scopes,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		creds.ID,
		string(creds.ConnectorType),
		string(creds.AuthMethod),
		creds.Name,
		blob,
		nullTime(creds.TokenExpiry),
		pq.Array(creds.Scopes),
		creds.CreatedAt,
		creds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Get retrieves credentials by ID with decrypted secrets.
func (s *CredentialsStore) Get(ctx context.Context, id string) (*domain.Credentials, error) {
	query := `
		SELECT id, connector_type, auth_method, name, secret_blob, token_expiry, scopes, created_at, updated_at
		FROM credentials
		WHERE id = $1
	`
	creds, err := s.scanRow(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// List retrieves all credentials (with decrypted secrets).
func (s *CredentialsStore) List(ctx context.Context) ([]*domain.Credentials, error) {
	query := `
		SELECT id, connector_type, auth_method, name, secret_blob, token_expiry, scopes, created_at, updated_at
		FROM credentials
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()
	return s.scanRows(rows)
}

// Delete removes credentials by ID.
func (s *CredentialsStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
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

// GetByConnectorType retrieves credentials for a connector type.
func (s *CredentialsStore) GetByConnectorType(ctx context.Context, connectorType domain.ConnectorType) ([]*domain.Credentials, error) {
	query := `
		SELECT id, connector_type, auth_method, name, secret_blob, token_expiry, scopes, created_at, updated_at
		FROM credentials
		WHERE connector_type = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(connectorType))
	if err != nil {
		return nil, fmt.Errorf("list credentials by connector type: %w", err)
	}
	defer rows.Close()
	return s.scanRows(rows)
}

func (s *CredentialsStore) scanRows(rows *sql.Rows) ([]*domain.Credentials, error) {
	var out []*domain.Credentials
	for rows.Next() {
		creds, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, creds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

// rowScanner abstracts over *sql.Row and *sql.Rows, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *CredentialsStore) scanRow(row rowScanner) (*domain.Credentials, error) {
	var creds domain.Credentials
	var connectorType, authMethod string
	var blob []byte
	var tokenExpiry sql.NullTime
	var scopes []string

	err := row.Scan(
		&creds.ID,
		&connectorType,
		&authMethod,
		&creds.Name,
		&blob,
		&tokenExpiry,
		pq.Array(&scopes),
		&creds.CreatedAt,
		&creds.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan credentials: %w", err)
	}

	creds.ConnectorType = domain.ConnectorType(connectorType)
	creds.AuthMethod = domain.AuthMethod(authMethod)
	if tokenExpiry.Valid {
		creds.TokenExpiry = &tokenExpiry.Time
	}
	creds.Scopes = scopes

	if len(blob) > 0 {
		var secrets credentialSecrets
		if err := s.encryptor.Decrypt(blob, &secrets); err != nil {
			return nil, fmt.Errorf("decrypt credentials: %w", err)
		}
		creds.AccessToken = secrets.AccessToken
		creds.RefreshToken = secrets.RefreshToken
		creds.APIKey = secrets.APIKey
		creds.Username = secrets.Username
		creds.Password = secrets.Password
		creds.ServiceAccountJSON = secrets.ServiceAccountJSON
	}

	return &creds, nil
}
