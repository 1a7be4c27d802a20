package extract

// Record is the canonical extraction record every consumer works with,
// whether it came from a structured engine result or the textual fallback.
// Optional fields are nil when the source did not supply them.
type Record struct {
	ExtractionClass string           `json:"extraction_class"`
	ExtractionText  string           `json:"extraction_text"`
	Attributes      map[string]any   `json:"attributes"`
	CharInterval    *CharInterval    `json:"char_interval"`
	TokenInterval   *TokenInterval   `json:"token_interval"`
	AlignmentStatus *AlignmentStatus `json:"alignment_status"`
	ExtractionIndex *int             `json:"extraction_index"`
	GroupIndex      *int             `json:"group_index"`
	Description     *string          `json:"description"`
}

// Attr returns the attribute key as a trimmed string. Non-string values are
// formatted with their default representation.
func (r Record) Attr(key string) string {
	v, ok := r.Attributes[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}
