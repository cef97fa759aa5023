package protocol

import (
	"bytes"
	"strconv"
)

// Decode converts a completed Frame into the Go value its originating
// command expects, per expected. keys is the original request's
// positional item arguments (bulk, multi) and is only
// consulted by ExpectBoolList, which needs it to turn the wire's
// positional Yes/No tokens back into a map keyed by the items the
// caller asked about. Every other expected type ignores keys.
//
// The returned value's concrete type is determined entirely by
// expected:
//
//	ExpectBool                bool
//	ExpectBoolList             map[string]bool
//	ExpectConfirmation         nil (error only)
//	ExpectCreateConfirmation   nil (error only)
//	ExpectDropConfirmation     nil (error only)
//	ExpectFilterList           []FilterInfo
//	ExpectInfo                 FilterInfo
func Decode(expected ExpectedType, frame *Frame, keys []string) (any, error) {
	switch expected {
	case ExpectBool:
		return decodeBool(frame)
	case ExpectBoolList:
		return decodeBoolList(frame, keys)
	case ExpectConfirmation:
		return nil, decodeConfirmation(frame, false, false)
	case ExpectCreateConfirmation:
		return nil, decodeConfirmation(frame, true, false)
	case ExpectDropConfirmation:
		return nil, decodeConfirmation(frame, false, true)
	case ExpectFilterList:
		return decodeFilterList(frame)
	case ExpectInfo:
		return decodeInfo(frame)
	default:
		return nil, &ParseError{Reason: "unknown expected type", Frame: joinLines(frame)}
	}
}

func decodeBool(frame *Frame) (bool, error) {
	if frame.Block || len(frame.Lines) != 1 {
		return false, &ParseError{Reason: "expected single-line bool response", Frame: joinLines(frame)}
	}
	return parseBoolToken(frame.Lines[0])
}

// decodeBoolList maps a bulk/multi response's positional Yes/No tokens
// back onto keys, the request's original item arguments, producing the
// set-membership map callers see. A bad token can't be resolved on its
// own, since the whole line might instead be a single server error
// line ("Filter does not exist") rather than a per-item answer, so any
// failure here is reported against the full line, never the offending
// token alone.
func decodeBoolList(frame *Frame, keys []string) (map[string]bool, error) {
	if frame.Block || len(frame.Lines) != 1 {
		return nil, &ParseError{Reason: "expected single-line bool-list response", Frame: joinLines(frame)}
	}
	line := frame.Lines[0]
	tokens := bytes.Fields(line)

	// Any token other than Yes/No means the line is a server error
	// message, which may be several words long ("Filter does not exist").
	for _, tok := range tokens {
		if s := string(tok); s != "Yes" && s != "No" {
			return nil, NewServerError(string(line))
		}
	}
	if len(tokens) != len(keys) {
		return nil, &ParseError{Reason: "bool-list response token count does not match request key count", Frame: line}
	}

	result := make(map[string]bool, len(tokens))
	for i, tok := range tokens {
		result[keys[i]] = string(tok) == "Yes"
	}
	return result, nil
}

func parseBoolToken(tok []byte) (bool, error) {
	switch string(tok) {
	case "Yes":
		return true, nil
	case "No":
		return false, nil
	default:
		if isErrorLine(tok) {
			return false, NewServerError(string(tok))
		}
		return false, &ParseError{Reason: "expected Yes/No", Frame: tok}
	}
}

// decodeConfirmation checks a bare "Done" line for success, treating
// "Exists" as success when acceptExists is set (create) and
// "Filter does not exist" as success when acceptMissing is set (drop).
func decodeConfirmation(frame *Frame, acceptExists, acceptMissing bool) error {
	if frame.Block || len(frame.Lines) != 1 {
		return &ParseError{Reason: "expected single-line confirmation", Frame: joinLines(frame)}
	}
	text := string(frame.Lines[0])
	switch text {
	case "Done":
		return nil
	case "Exists":
		if acceptExists {
			return nil
		}
	case "Filter does not exist", "No such filter":
		if acceptMissing {
			return nil
		}
	}
	return NewServerError(text)
}

func decodeFilterList(frame *Frame) ([]FilterInfo, error) {
	if !frame.Block {
		// A bare error line instead of a START/END block.
		if len(frame.Lines) == 1 && isErrorLine(frame.Lines[0]) {
			return nil, NewServerError(string(frame.Lines[0]))
		}
		return nil, &ParseError{Reason: "expected block response for list", Frame: joinLines(frame)}
	}

	filters := make([]FilterInfo, 0, len(frame.Lines))
	for _, line := range frame.Lines {
		fi, err := decodeFilterListLine(line)
		if err != nil {
			return nil, err
		}
		filters = append(filters, fi)
	}
	return filters, nil
}

// decodeFilterListLine decodes one "name probability storage capacity
// size" row of the list block. Columns beyond the fifth are ignored,
// and Extra is left nil.
func decodeFilterListLine(line []byte) (FilterInfo, error) {
	fields := bytes.Fields(line)
	if len(fields) < 2 {
		return FilterInfo{}, &ParseError{Reason: "malformed list row", Frame: line}
	}

	fi := FilterInfo{Name: string(fields[0])}
	if len(fields) > 1 {
		if v, err := strconv.ParseFloat(string(fields[1]), 64); err == nil {
			fi.Probability = v
		}
	}
	if len(fields) > 2 {
		if v, err := strconv.ParseUint(string(fields[2]), 10, 64); err == nil {
			fi.Storage = v
		}
	}
	if len(fields) > 3 {
		if v, err := strconv.ParseUint(string(fields[3]), 10, 64); err == nil {
			fi.Capacity = v
		}
	}
	if len(fields) > 4 {
		if v, err := strconv.ParseUint(string(fields[4]), 10, 64); err == nil {
			fi.Size = v
		}
	}
	return fi, nil
}

func decodeInfo(frame *Frame) (FilterInfo, error) {
	if !frame.Block {
		if len(frame.Lines) == 1 && isErrorLine(frame.Lines[0]) {
			return FilterInfo{}, NewServerError(string(frame.Lines[0]))
		}
		return FilterInfo{}, &ParseError{Reason: "expected block response for info", Frame: joinLines(frame)}
	}

	fi := FilterInfo{Extra: map[string]string{}}
	for _, line := range frame.Lines {
		key, value, ok := bytes.Cut(line, []byte(" "))
		if !ok {
			continue
		}
		k, v := string(key), string(value)
		switch k {
		case "name":
			fi.Name = v
		case "probability":
			fi.Probability, _ = strconv.ParseFloat(v, 64)
		case "storage":
			fi.Storage = parseUint(v)
		case "capacity":
			fi.Capacity = parseUint(v)
		case "size":
			fi.Size = parseUint(v)
		case "checks":
			fi.Checks = parseUint(v)
		case "check_hits":
			fi.CheckHits = parseUint(v)
		case "check_misses":
			fi.CheckMisses = parseUint(v)
		case "sets":
			fi.Sets = parseUint(v)
		case "set_hits":
			fi.SetHits = parseUint(v)
		case "set_misses":
			fi.SetMisses = parseUint(v)
		case "page_ins":
			fi.PageIns = parseUint(v)
		case "page_outs":
			fi.PageOuts = parseUint(v)
		default:
			fi.Extra[k] = v
		}
	}
	return fi, nil
}

func parseUint(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}

// isErrorLine reports whether line looks like a server error rather
// than one of the known success tokens. The wire protocol has no
// dedicated error marker, so this treats anything that is not a
// recognized positive token as an error line of its own text.
func isErrorLine(line []byte) bool {
	switch string(line) {
	case "Yes", "No", "Done", "Exists":
		return false
	default:
		return true
	}
}

func joinLines(frame *Frame) []byte {
	if frame == nil {
		return nil
	}
	return bytes.Join(frame.Lines, []byte("\n"))
}
