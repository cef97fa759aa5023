package protocol

// ExpectedType tells the decoder what shape of result a command expects
// back from the service, since the wire format alone is not
// self-describing (a bare "Yes" and a bare "Done" are both single-line
// frames but decode into different Go types).
type ExpectedType int

const (
	// ExpectBool decodes a single Yes/No line into a bool.
	ExpectBool ExpectedType = iota

	// ExpectBoolList decodes a space-separated line of Yes/No tokens
	// into a map[string]bool keyed by the request's item arguments, in
	// wire order (bulk, multi).
	ExpectBoolList

	// ExpectConfirmation decodes a bare "Done" line into success, any
	// other line into an error.
	ExpectConfirmation

	// ExpectCreateConfirmation is ExpectConfirmation plus: the server
	// text "Exists" also counts as success (the filter is already
	// there, which satisfies the caller's intent).
	ExpectCreateConfirmation

	// ExpectDropConfirmation is ExpectConfirmation plus: the server
	// text "Filter does not exist" also counts as success (there is
	// nothing left to drop).
	ExpectDropConfirmation

	// ExpectFilterList decodes a START/END block response into a
	// []FilterInfo, one entry per line of the block.
	ExpectFilterList

	// ExpectInfo decodes a START/END block response of key/value pairs
	// into a single FilterInfo.
	ExpectInfo
)

// FilterInfo describes one filter as reported by the service's list or
// info commands. The schema the service reports is small and stable,
// but the service may add keys over time; unrecognized keys land in
// Extra rather than being dropped.
type FilterInfo struct {
	Name        string
	Probability float64
	Storage     uint64
	Capacity    uint64
	Size        uint64
	Checks      uint64
	CheckHits   uint64
	CheckMisses uint64
	Sets        uint64
	SetHits     uint64
	SetMisses   uint64
	PageIns     uint64
	PageOuts    uint64

	// Extra holds any key/value pair the decoder did not recognize,
	// verbatim as the server sent it.
	Extra map[string]string
}

// CreateOptions are the optional key/value arguments accepted by the
// create command, sent on the wire as "key=value" tokens.
type CreateOptions struct {
	Capacity    uint64
	Probability float64
	InMemory    bool
}
