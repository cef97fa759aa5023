package protocol

import (
	"strconv"
	"strings"
)

// EncodeCreate builds the wire form of a create command: the filter
// name followed by any non-zero option as a "key=value" token.
func EncodeCreate(filter string, opts CreateOptions) []byte {
	var b strings.Builder
	b.WriteString("create ")
	b.WriteString(filter)

	if opts.Capacity > 0 {
		b.WriteString(" capacity=")
		b.WriteString(strconv.FormatUint(opts.Capacity, 10))
	}
	if opts.Probability > 0 {
		b.WriteString(" prob=")
		b.WriteString(strconv.FormatFloat(opts.Probability, 'g', -1, 64))
	}
	if opts.InMemory {
		b.WriteString(" in_memory=1")
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

// EncodeDrop builds the wire form of a drop command.
func EncodeDrop(filter string) []byte {
	return []byte("drop " + filter + "\n")
}

// EncodeClose builds the wire form of a close command.
func EncodeClose(filter string) []byte {
	return []byte("close " + filter + "\n")
}

// EncodeClear builds the wire form of a clear command.
func EncodeClear(filter string) []byte {
	return []byte("clear " + filter + "\n")
}

// EncodeFlush builds the wire form of a flush command. An empty filter
// flushes every filter known to the service.
func EncodeFlush(filter string) []byte {
	if filter == "" {
		return []byte("flush\n")
	}
	return []byte("flush " + filter + "\n")
}

// EncodeCheck builds the wire form of a single-item membership check.
func EncodeCheck(filter, item string) []byte {
	return []byte("check " + filter + " " + item + "\n")
}

// EncodeSet builds the wire form of adding a single item to a filter.
func EncodeSet(filter, item string) []byte {
	return []byte("set " + filter + " " + item + "\n")
}

// EncodeBulk builds the wire form of adding many items to a filter in
// one round trip.
func EncodeBulk(filter string, items []string) []byte {
	var b strings.Builder
	b.WriteString("bulk ")
	b.WriteString(filter)
	for _, item := range items {
		b.WriteByte(' ')
		b.WriteString(item)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// EncodeMulti builds the wire form of checking many items against a
// filter in one round trip.
func EncodeMulti(filter string, items []string) []byte {
	var b strings.Builder
	b.WriteString("multi ")
	b.WriteString(filter)
	for _, item := range items {
		b.WriteByte(' ')
		b.WriteString(item)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// EncodeList builds the wire form of the list command. An empty prefix
// lists every filter.
func EncodeList(prefix string) []byte {
	if prefix == "" {
		return []byte("list\n")
	}
	return []byte("list " + prefix + "\n")
}

// EncodeInfo builds the wire form of the info command for one filter.
func EncodeInfo(filter string) []byte {
	return []byte("info " + filter + "\n")
}
