// Package docmodel holds the data types shared across the document QA
// pipeline: the document, its chunks, embedded chunks, and the sanitizer's
// risk assessment.
package docmodel

import "time"

// DocType enumerates the document formats the extractor dispatcher
// recognises.
type DocType string

const (
	TypePDF   DocType = "pdf"
	TypeDOCX  DocType = "docx"
	TypeEmail DocType = "email"
	TypeImage DocType = "image"
	TypeXLSX  DocType = "xlsx"
	TypePPTX  DocType = "pptx"
	TypeBin   DocType = "bin"
	TypeZip   DocType = "zip"

	// TypeWeb marks a document synthesized from the WebContext collaborator
	// (§4.8 step 4's non-document branch). Not part of spec §3's
	// enumeration verbatim, but needed to route such documents onto the
	// retrieval path like any other multi-chunk document.
	TypeWeb DocType = "web"
)

// Document is the unified output of the extractor dispatch (C2).
//
// Invariant: len(PageTexts) == TotalPages. FullText == join(PageTexts,
// "\n---\n") modulo sanitization. For TypeBin/TypeZip, Chunks is empty and
// TotalPages is 0.
type Document struct {
	Filename   string
	Type       DocType
	TotalPages int
	FullText   string
	PageTexts  []string
	Chunks     []Chunk

	ExtractionTime time.Duration
	Library        string
	Method         string
}

// Chunk is a bounded-length fragment of a document's text, the unit of
// retrieval.
type Chunk struct {
	PageNumber int
	Content    string
	Metadata   ChunkMetadata
}

// ChunkMetadata carries strategy-specific positional information. Only the
// fields relevant to the producing strategy are populated.
type ChunkMetadata struct {
	ChunkType string // "page-wise" or "character-wise" (recursive reuses the latter, see spec open question)

	// page-wise
	ActualPageNumber int
	EndPageNumber    int
	PagesInChunk     int

	// character-wise / recursive
	StartIndex      int
	EndIndex        int
	CharacterCount  int
	IsCompleteLine  bool
	ParagraphBound  bool
}

// EmbeddedChunk pairs a chunk with its embedding vector. ChunkID is the
// chunk's index within the owning request's chunk slice.
type EmbeddedChunk struct {
	ChunkID int
	Vector  []float32
	Chunk   Chunk
}

// Risk bands a RiskAssessment falls into.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// RiskAssessment is the sanitizer's scoring output for a piece of text.
type RiskAssessment struct {
	Score            int
	Risk             Risk
	DetectedPatterns []string
}

// SecurityReport summarises a sanitizeForAI pass.
type SecurityReport struct {
	InitialRiskScore int
	FinalRiskScore   int
	RiskReductionPct float64
	IsSafe           bool
	AppliedFilters   []string
	Recommendations  []string
}
