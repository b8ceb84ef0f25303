package domain

// FileCategory classifies a document or attachment by what the File
// Analyzer actually found in its bytes, independent of the filename
// extension or declared content type. Mirrors the upstream ingestion
// project's FileCategory enum.
type FileCategory string

const (
	FileCategoryEmail        FileCategory = "email"
	FileCategoryDocument     FileCategory = "document"
	FileCategorySpreadsheet  FileCategory = "spreadsheet"
	FileCategoryPresentation FileCategory = "presentation"
	FileCategoryImage        FileCategory = "image"
	FileCategoryVideo        FileCategory = "video"
	FileCategoryAudio        FileCategory = "audio"
	FileCategoryArchive      FileCategory = "archive"
	FileCategoryDatabase     FileCategory = "database"
	FileCategoryCode         FileCategory = "code"
	FileCategoryUnknown      FileCategory = "unknown"
)

// DataQuality flags issues the File Analyzer found that affect whether a
// document is safely reviewable or searchable. Mirrors the upstream
// ingestion project's DataQuality enum.
type DataQuality string

const (
	DataQualityValid         DataQuality = "valid"          // intact and processable
	DataQualityCorrupted     DataQuality = "corrupted"      // header/structure damaged, or empty
	DataQualityEncrypted     DataQuality = "encrypted"      // password-protected
	DataQualityTruncated     DataQuality = "truncated"      // incomplete, unexpected EOF
	DataQualityInvalidFormat DataQuality = "invalid_format" // extension disagrees with content
	DataQualitySuspicious    DataQuality = "suspicious"     // potential malware pattern
)

// FileAnalysis is the File Analyzer's verdict on one binary payload: what
// it actually is (by magic bytes), how trustworthy it is, and whether it
// needs special handling downstream (e.g. skip OCR on an encrypted archive).
type FileAnalysis struct {
	DeclaredMimeType string            `json:"declared_mime_type"`
	DetectedMimeType string            `json:"detected_mime_type,omitempty"`
	Category         FileCategory      `json:"category"`
	Quality          DataQuality       `json:"quality"`
	QualityDetails   string            `json:"quality_details,omitempty"`
	IsProcessable    bool              `json:"is_processable"`
	SizeBytes        int64             `json:"size_bytes"`
	MD5              string            `json:"md5,omitempty"`
	IsContainer      bool              `json:"is_container"` // archive/compound doc with nested parts
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Reviewable reports whether a document with this analysis should proceed
// to enrichment, or be skipped with the quality flag recorded instead. A
// nil analysis (not yet run) is treated as reviewable so the pipeline
// doesn't stall ahead of the File Analyzer stage.
func (a *FileAnalysis) Reviewable() bool {
	if a == nil {
		return true
	}
	return a.IsProcessable
}
