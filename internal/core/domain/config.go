package domain

// AppConfig is the root configuration tree, loadable from a JSON file with
// ${VAR} expansion applied before parsing.
type AppConfig struct {
	Connectors     []ConnectorConfig    `json:"connectors"`
	ObjectStore    ObjectStoreConfig    `json:"object_store"`
	MetadataStore  MetadataStoreConfig  `json:"metadata_store"`
	Processing     ProcessingConfig     `json:"processing"`
	Security       SecurityConfig       `json:"security"`
}

// ConnectorConfig describes one configured Source Connector instance.
// Type is one of: mock_email, file_based_json, mail_api, workspace_api,
// cloud_storage. Unknown types are an ErrConfig at load time.
type ConnectorConfig struct {
	Type    string            `json:"type"`
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Params  map[string]string `json:"params"`
}

// ObjectStoreConfig selects and configures the persisted-blob backend.
// Type is "local_fs" or "s3" (remote, S3-compatible).
type ObjectStoreConfig struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params"`
}

// MetadataStoreConfig selects and configures the relational/search backend.
// Type is "postgres", the only metadata store built in. Params may carry
// "search_backend" = "vespa" to route search to the alternate Vespa engine
// instead of Postgres's own tsvector/vector columns.
type MetadataStoreConfig struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params"`
}

// ProcessingConfig toggles which document processors run in the Pipeline
// Orchestrator's processing chain (§4.4). OCR, entity extraction, and
// privilege detection are stub processors in this implementation — they
// record a pass-through result rather than calling an external service.
type ProcessingConfig struct {
	EnableDeduplication      bool `json:"enable_deduplication"`
	EnableOCR                bool `json:"enable_ocr"`
	EnableEntityExtraction   bool `json:"enable_entity_extraction"`
	EnablePrivilegeDetection bool `json:"enable_privilege_detection"`
}

// SecurityConfig governs envelope encryption of secrets at rest and
// optional audit logging.
type SecurityConfig struct {
	EnvelopeEncryption  bool   `json:"envelope_encryption"`
	KMSKeyID            string `json:"kms_key_id,omitempty"`
	RBACPolicy          string `json:"rbac_policy,omitempty"`
	AuditLogDestination string `json:"audit_log_destination,omitempty"`
}
