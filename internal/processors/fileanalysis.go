package processors

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.Processor = (*FileAnalyzer)(nil)

const (
	sniffWindow      = 4096 // bytes probed for sub-format/encryption markers
	suspiciousWindow = 8192 // bytes scanned for suspicious patterns
)

// fileSignature is one entry in the magic-byte prefix table the File
// Analyzer probes against, ported from the upstream ingestion project's
// FILE_SIGNATURES table (_examples/original_source/ingestion/file_analyzer.py).
// The category each signature maps to there is discarded on read (the
// original iterates `for signature, (mime_type, _) in FILE_SIGNATURES`) —
// determineCategory resolves category from mimeToCategory instead, so
// only the MIME type is carried here.
type fileSignature struct {
	prefix   []byte
	mimeType string
}

// fileSignatures collapses the original's duplicate dict keys (RIFF,
// PK\x03\x04) to their last-write-wins value, since a Go slice can't
// carry the shadowing a Python dict literal does implicitly.
var fileSignatures = []fileSignature{
	{[]byte("%PDF"), "application/pdf"},
	{[]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}, "application/msword"},
	{[]byte{0xff, 0xd8, 0xff}, "image/jpeg"},
	{[]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, "image/png"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte("BM"), "image/bmp"},
	{[]byte("II*\x00"), "image/tiff"},
	{[]byte("MM\x00*"), "image/tiff"},
	{[]byte("\x00\x00\x00\x18ftypmp42"), "video/mp4"},
	{[]byte("\x00\x00\x00\x1cftypmp42"), "video/mp4"},
	{[]byte("RIFF"), "audio/wav"},
	{[]byte("ID3"), "audio/mpeg"},
	{[]byte{0xff, 0xfb}, "audio/mpeg"},
	{[]byte("fLaC"), "audio/flac"},
	{[]byte{0x52, 0x61, 0x72, 0x21}, "application/x-rar-compressed"},
	{[]byte{0x1f, 0x8b}, "application/gzip"},
	{[]byte("7z\xbc\xaf\x27\x1c"), "application/x-7z-compressed"},
	{[]byte("SQLite format 3"), "application/x-sqlite3"},
}

// mimeToCategory ports MIME_TO_CATEGORY.
var mimeToCategory = map[string]domain.FileCategory{
	"application/pdf":           domain.FileCategoryDocument,
	"application/msword":        domain.FileCategoryDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.FileCategoryDocument,
	"application/rtf": domain.FileCategoryDocument,
	"text/plain":      domain.FileCategoryDocument,
	"text/html":       domain.FileCategoryDocument,

	"application/vnd.ms-excel": domain.FileCategorySpreadsheet,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": domain.FileCategorySpreadsheet,
	"text/csv": domain.FileCategorySpreadsheet,

	"application/vnd.ms-powerpoint": domain.FileCategoryPresentation,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": domain.FileCategoryPresentation,

	"message/rfc822":             domain.FileCategoryEmail,
	"application/vnd.ms-outlook": domain.FileCategoryEmail,

	"image/jpeg":    domain.FileCategoryImage,
	"image/png":     domain.FileCategoryImage,
	"image/gif":     domain.FileCategoryImage,
	"image/bmp":     domain.FileCategoryImage,
	"image/tiff":    domain.FileCategoryImage,
	"image/svg+xml": domain.FileCategoryImage,
	"image/webp":    domain.FileCategoryImage,

	"video/mp4":        domain.FileCategoryVideo,
	"video/mpeg":       domain.FileCategoryVideo,
	"video/quicktime":  domain.FileCategoryVideo,
	"video/x-msvideo":  domain.FileCategoryVideo,
	"video/x-matroska": domain.FileCategoryVideo,

	"audio/mpeg": domain.FileCategoryAudio,
	"audio/wav":  domain.FileCategoryAudio,
	"audio/ogg":  domain.FileCategoryAudio,
	"audio/flac": domain.FileCategoryAudio,
	"audio/mp4":  domain.FileCategoryAudio,

	"application/zip":              domain.FileCategoryArchive,
	"application/x-rar-compressed": domain.FileCategoryArchive,
	"application/gzip":             domain.FileCategoryArchive,
	"application/x-7z-compressed":  domain.FileCategoryArchive,
	"application/x-tar":            domain.FileCategoryArchive,

	"application/x-sqlite3":     domain.FileCategoryDatabase,
	"application/vnd.ms-access": domain.FileCategoryDatabase,
}

// extensionCategory is the last-resort fallback when neither the detected
// nor the declared MIME type is recognized.
var extensionCategory = map[string]domain.FileCategory{
	".doc": domain.FileCategoryDocument, ".docx": domain.FileCategoryDocument, ".pdf": domain.FileCategoryDocument,
	".txt": domain.FileCategoryDocument, ".rtf": domain.FileCategoryDocument, ".odt": domain.FileCategoryDocument,

	".xls": domain.FileCategorySpreadsheet, ".xlsx": domain.FileCategorySpreadsheet,
	".csv": domain.FileCategorySpreadsheet, ".ods": domain.FileCategorySpreadsheet,

	".ppt": domain.FileCategoryPresentation, ".pptx": domain.FileCategoryPresentation, ".odp": domain.FileCategoryPresentation,

	".jpg": domain.FileCategoryImage, ".jpeg": domain.FileCategoryImage, ".png": domain.FileCategoryImage,
	".gif": domain.FileCategoryImage, ".bmp": domain.FileCategoryImage, ".tiff": domain.FileCategoryImage,
	".svg": domain.FileCategoryImage, ".webp": domain.FileCategoryImage,

	".mp4": domain.FileCategoryVideo, ".avi": domain.FileCategoryVideo, ".mov": domain.FileCategoryVideo,
	".mkv": domain.FileCategoryVideo, ".wmv": domain.FileCategoryVideo, ".flv": domain.FileCategoryVideo,

	".mp3": domain.FileCategoryAudio, ".wav": domain.FileCategoryAudio, ".ogg": domain.FileCategoryAudio,
	".flac": domain.FileCategoryAudio, ".m4a": domain.FileCategoryAudio, ".wma": domain.FileCategoryAudio,

	".zip": domain.FileCategoryArchive, ".rar": domain.FileCategoryArchive, ".7z": domain.FileCategoryArchive,
	".tar": domain.FileCategoryArchive, ".gz": domain.FileCategoryArchive, ".bz2": domain.FileCategoryArchive,

	".eml": domain.FileCategoryEmail, ".msg": domain.FileCategoryEmail, ".mbox": domain.FileCategoryEmail,

	".db": domain.FileCategoryDatabase, ".sqlite": domain.FileCategoryDatabase,
	".mdb": domain.FileCategoryDatabase, ".accdb": domain.FileCategoryDatabase,

	".py": domain.FileCategoryCode, ".java": domain.FileCategoryCode, ".cpp": domain.FileCategoryCode,
	".js": domain.FileCategoryCode, ".go": domain.FileCategoryCode, ".rs": domain.FileCategoryCode,
}

var suspiciousPatterns = [][]byte{
	[]byte("TVqQAAMAAAAEAAAA"), // base64-encoded PE header ("MZ...")
	[]byte("This program cannot be run in DOS mode"),
	[]byte("<script"),
}

// FileAnalyzer classifies each attachment's payload by magic bytes and
// assesses its quality (corruption, encryption, truncation, suspicious
// content), per §4.2. Quality assessment and category detection both
// operate on the actual bytes when Attachment.Payload is populated;
// attachments a connector surfaced without payload bytes (no byte-level
// pipe on that source) fall back to a declared-type-only classification
// so the pipeline never blocks on a connector gap.
type FileAnalyzer struct {
	mu    sync.Mutex
	stats map[domain.DataQuality]int64
}

// NewFileAnalyzer creates the file type/quality classification processor.
func NewFileAnalyzer() *FileAnalyzer {
	return &FileAnalyzer{stats: make(map[domain.DataQuality]int64)}
}

func (f *FileAnalyzer) Name() string {
	return "file_analysis"
}

// Stats returns a snapshot of how many attachments this analyzer has
// classified into each DataQuality since construction — e.g. scenario 4's
// "encrypted" count.
func (f *FileAnalyzer) Stats() map[domain.DataQuality]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[domain.DataQuality]int64, len(f.stats))
	for q, n := range f.stats {
		out[q] = n
	}
	return out
}

func (f *FileAnalyzer) record(q domain.DataQuality) {
	f.mu.Lock()
	f.stats[q]++
	f.mu.Unlock()
}

func (f *FileAnalyzer) Process(ctx context.Context, docs []*domain.Document) ([]*domain.Document, error) {
	for _, doc := range docs {
		doc.FileCategory, doc.DataQuality = classifyBody(doc)

		for _, att := range doc.Attachments {
			att.FileAnalysis = f.safeAnalyze(att)
			f.record(att.FileAnalysis.Quality)
		}
	}
	return docs, nil
}

// classifyBody analyzes the document's own body content (no attachments
// needed): a blank body with no attachments is unknown/corrupted,
// everything else is a valid email.
func classifyBody(doc *domain.Document) (domain.FileCategory, domain.DataQuality) {
	if strings.TrimSpace(doc.BodyText) == "" && len(doc.Attachments) == 0 {
		return domain.FileCategoryUnknown, domain.DataQualityCorrupted
	}
	return domain.FileCategoryEmail, domain.DataQualityValid
}

// safeAnalyze wraps analyzeAttachment so a panic deep in byte-parsing
// (malformed ZIP central directory, truncated slice index, etc.) never
// aborts the batch: per §4.2, analysis failures are never fatal — they
// degrade to a CORRUPTED, non-processable placeholder instead.
func (f *FileAnalyzer) safeAnalyze(att *domain.Attachment) (analysis *domain.FileAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			analysis = &domain.FileAnalysis{
				Category:       domain.FileCategoryUnknown,
				Quality:        domain.DataQualityCorrupted,
				QualityDetails: fmt.Sprintf("analysis failed: %v", r),
				IsProcessable:  false,
				SizeBytes:      att.SizeBytes,
			}
		}
	}()
	return analyzeAttachment(att)
}

// analyzeAttachment runs the full §4.2 algorithm against att.Payload. When
// no payload is available it falls back to a declared-MIME-only
// classification, since magic bytes, hashes, and corruption checks all
// require the actual bytes.
func analyzeAttachment(att *domain.Attachment) *domain.FileAnalysis {
	declared := normalizeMIME(att.ContentType)
	if declared == "" {
		declared = declaredMIMEFromFilename(att.Filename)
	}
	ext := strings.ToLower(filepath.Ext(att.Filename))

	if len(att.Payload) == 0 {
		category := determineCategory(declared, "", ext)
		quality, details := domain.DataQualityValid, ""
		if att.SizeBytes == 0 {
			quality, details = domain.DataQualityCorrupted, "File is empty"
		}
		return &domain.FileAnalysis{
			DeclaredMimeType: declared,
			Category:         category,
			Quality:          quality,
			QualityDetails:   details,
			IsProcessable:    quality == domain.DataQualityValid && att.SizeBytes > 0,
			SizeBytes:        att.SizeBytes,
			IsContainer:      category == domain.FileCategoryArchive,
		}
	}

	data := att.Payload
	detected := detectMIMEFromMagic(data)
	category := determineCategory(declared, detected, ext)
	quality, details := assessQuality(data, declared, detected)
	processable := (quality == domain.DataQualityValid || quality == domain.DataQualitySuspicious) && len(data) > 0

	md5Sum := md5.Sum(data)
	sha256Sum := sha256.Sum256(data)
	att.SHA256 = hex.EncodeToString(sha256Sum[:])

	return &domain.FileAnalysis{
		DeclaredMimeType: declared,
		DetectedMimeType: detected,
		Category:         category,
		Quality:          quality,
		QualityDetails:   details,
		IsProcessable:    processable,
		SizeBytes:        int64(len(data)),
		MD5:              hex.EncodeToString(md5Sum[:]),
		IsContainer:      category == domain.FileCategoryArchive,
		Metadata:         extractMetadata(data, category),
	}
}

func normalizeMIME(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return strings.ToLower(contentType)
}

func declaredMIMEFromFilename(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return "application/octet-stream"
	}
	if m := normalizeMIME(mime.TypeByExtension(ext)); m != "" {
		return m
	}
	return "application/octet-stream"
}

// detectMIMEFromMagic probes ZIP-prefixed bytes for Office Open XML
// sub-format markers before falling back to the generic signature table,
// since every OOXML file is itself a ZIP and would otherwise only ever
// resolve to the generic "application/zip" entry.
func detectMIMEFromMagic(data []byte) string {
	if bytes.HasPrefix(data, []byte{0x50, 0x4b, 0x03, 0x04}) {
		window := data
		if len(window) > sniffWindow {
			window = window[:sniffWindow]
		}
		switch {
		case bytes.Contains(window, []byte("word/")):
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		case bytes.Contains(window, []byte("xl/")):
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case bytes.Contains(window, []byte("ppt/")):
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		}
		return "application/zip"
	}
	for _, sig := range fileSignatures {
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.mimeType
		}
	}
	return ""
}

func determineCategory(declaredMime, detectedMime, ext string) domain.FileCategory {
	if detectedMime != "" {
		if cat, ok := mimeToCategory[detectedMime]; ok {
			return cat
		}
	}
	if cat, ok := mimeToCategory[declaredMime]; ok {
		return cat
	}
	if cat, ok := extensionCategory[ext]; ok {
		return cat
	}
	return domain.FileCategoryUnknown
}

// assessQuality runs the §4.2 step-5 classification, first match wins.
func assessQuality(data []byte, declaredMime, detectedMime string) (domain.DataQuality, string) {
	if len(data) == 0 {
		return domain.DataQualityCorrupted, "File is empty"
	}

	if detectedMime != "" && declaredMime != "application/octet-stream" {
		if !mimeTypesCompatible(declaredMime, detectedMime) {
			return domain.DataQualityInvalidFormat,
				fmt.Sprintf("Extension suggests %s but content is %s", declaredMime, detectedMime)
		}
	}

	if isEncrypted(data) {
		return domain.DataQualityEncrypted, "File appears to be password-protected"
	}

	if detectedMime != "" {
		if details := checkCorruption(data, detectedMime); details != "" {
			return domain.DataQualityCorrupted, details
		}
	}

	if isSuspicious(data) {
		return domain.DataQualitySuspicious, "File contains suspicious patterns"
	}

	return domain.DataQualityValid, "File appears intact"
}

// mimeTypesCompatible decides whether a declared and a detected MIME type
// describe the same underlying format closely enough to not flag
// INVALID_FORMAT: exact match, both archive-family, or one Office-binary
// against its Office-OpenXML counterpart.
func mimeTypesCompatible(a, b string) bool {
	if a == b {
		return true
	}
	archive := map[string]bool{"application/zip": true, "application/x-zip-compressed": true}
	if archive[a] && archive[b] {
		return true
	}
	if strings.Contains(a, "officedocument") && strings.Contains(b, "ms-") {
		return true
	}
	if strings.Contains(b, "officedocument") && strings.Contains(a, "ms-") {
		return true
	}
	return false
}

func isEncrypted(data []byte) bool {
	window := data
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	if bytes.HasPrefix(data, []byte("%PDF")) && bytes.Contains(window, []byte("/Encrypt")) {
		return true
	}
	if bytes.Contains(window, []byte("EncryptedPackage")) {
		return true
	}
	if bytes.HasPrefix(data, []byte{0x50, 0x4b, 0x03, 0x04}) && len(data) >= 8 && data[6]&0x01 != 0 {
		return true
	}
	return false
}

// checkCorruption applies the type-specific truncation checks. Returns ""
// when the file looks intact for its detected type.
func checkCorruption(data []byte, detectedMime string) string {
	switch detectedMime {
	case "application/pdf":
		if !bytes.HasSuffix(data, []byte("%%EOF\n")) && !bytes.HasSuffix(data, []byte("%%EOF")) {
			return "PDF missing EOF marker (possibly truncated)"
		}
	case "image/jpeg":
		if !bytes.HasSuffix(data, []byte{0xff, 0xd9}) {
			return "JPEG missing EOI marker (possibly truncated)"
		}
	case "image/png":
		if !bytes.HasSuffix(data, []byte{0x00, 0x00, 0x00, 0x00, 'I', 'E', 'N', 'D', 0xae, 0x42, 0x60, 0x82}) {
			return "PNG missing IEND chunk (possibly truncated)"
		}
	}
	if strings.Contains(strings.ToLower(detectedMime), "zip") && len(data) < 22 {
		return "ZIP file too small (corrupted)"
	}
	return ""
}

func isSuspicious(data []byte) bool {
	window := data
	if len(window) > suspiciousWindow {
		window = window[:suspiciousWindow]
	}
	for _, pattern := range suspiciousPatterns {
		if bytes.Contains(window, pattern) {
			return true
		}
	}
	return false
}

// extractMetadata pulls the light per-type metadata §4.2 step 7 names:
// PDF version from the header, PNG dimensions from the IHDR chunk.
func extractMetadata(data []byte, category domain.FileCategory) map[string]string {
	meta := map[string]string{}

	if category == domain.FileCategoryDocument && bytes.HasPrefix(data, []byte("%PDF")) {
		meta["pdf_version"] = extractPDFVersion(data)
	}
	if category == domain.FileCategoryImage {
		if width, height, ok := extractPNGDimensions(data); ok {
			meta["width"] = strconv.FormatUint(uint64(width), 10)
			meta["height"] = strconv.FormatUint(uint64(height), 10)
		}
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}

func extractPDFVersion(data []byte) string {
	header := data
	if len(header) > 20 {
		header = header[:20]
	}
	const marker = "%PDF-"
	idx := bytes.Index(header, []byte(marker))
	if idx == -1 {
		return "unknown"
	}
	rest := header[idx+len(marker):]
	if len(rest) > 3 {
		rest = rest[:3]
	}
	return string(rest)
}

// extractPNGDimensions reads width/height big-endian from the IHDR chunk,
// which always starts at byte 16 of a well-formed PNG.
func extractPNGDimensions(data []byte) (width, height uint32, ok bool) {
	pngSignature := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(data, pngSignature) || len(data) < 24 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint32(data[16:20]), binary.BigEndian.Uint32(data[20:24]), true
}
