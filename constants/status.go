package constants

// ProcessingStatus is the terminal status of one document run.
type ProcessingStatus string

// Stable values (reported in batch results and the XLSX export).
const (
	StatusSuccess      ProcessingStatus = "SUCCESS"       // summary produced and validated
	StatusPartial      ProcessingStatus = "PARTIAL"       // summary produced, some chunks failed
	StatusEmptyContent ProcessingStatus = "EMPTY_CONTENT" // extraction yielded no usable text
	StatusError        ProcessingStatus = "ERROR"         // terminal failure
)
