package driven

// SchemaGenerator produces the JSON schema documents shipped with exports.
type SchemaGenerator interface {
	// Schemas returns file name → schema document.
	Schemas() (map[string][]byte, error)
}
