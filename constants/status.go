package constants

// DocStatus is the canonical workflow status for a document record.
type DocStatus string

// Stable values (returned over the wire and logged as-is).
const (
	DocStatusPending           DocStatus = "PENDING"            // uploaded, no fields yet
	DocStatusExtracted         DocStatus = "EXTRACTED"          // extraction call succeeded
	DocStatusExtractedFallback DocStatus = "EXTRACTED_FALLBACK" // extraction failed, placeholder substituted
	DocStatusReviewed          DocStatus = "REVIEWED"           // reviewer committed the fields
)

// Editable reports whether a record in this status accepts a review commit.
func (s DocStatus) Editable() bool {
	switch s {
	case DocStatusExtracted, DocStatusExtractedFallback, DocStatusReviewed:
		return true
	}
	return false
}
