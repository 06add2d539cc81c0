package scanner

// NextField returns the bytes before the first sep in payload and the remainder after it.
// more is false when payload holds no sep, in which case field is the whole payload.
func NextField(payload []byte, sep byte) (field []byte, rest []byte, more bool) {
	for i := 0; i < len(payload); i++ {
		if payload[i] == sep {
			return payload[:i], payload[i+1:], true
		}
	}
	return payload, nil, false
}

// CountFields reports how many sep-separated fields payload holds.
func CountFields(payload []byte, sep byte) int {
	n := 1
	for i := range payload {
		if payload[i] == sep {
			n++
		}
	}
	return n
}

// TrimLineEnding strips a single trailing "\n" or "\r\n".
func TrimLineEnding(payload []byte) []byte {
	n := len(payload)
	if n > 0 && payload[n-1] == '\n' {
		n--
		if n > 0 && payload[n-1] == '\r' {
			n--
		}
	}
	return payload[:n]
}

func HasPrefix(payload []byte, prefix []byte) bool {
	if len(prefix) > len(payload) {
		return false
	}
	for i := range prefix {
		if payload[i] != prefix[i] {
			return false
		}
	}
	return true
}
