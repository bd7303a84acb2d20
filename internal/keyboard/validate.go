package keyboard

import "strings"

// ValidateMessage checks a message before it is accepted for typing.
// Allowed content: printable ASCII (32–126) plus newline, carriage return
// and tab. Everything else — low control bytes, DEL, the 128–159 range —
// is rejected, since a keyboard channel would interpret such bytes as
// arbitrary key events on the peer.
func ValidateMessage(msg string) error {
	if len(msg) == 0 {
		return ErrEmpty
	}
	if len(msg) > MaxMessageLen {
		return ErrTooLong
	}
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if c < 32 && c != '\n' && c != '\r' && c != '\t' {
			return ErrInvalidChars
		}
		if c == 127 || (c >= 128 && c <= 159) {
			return ErrInvalidChars
		}
	}
	return nil
}

// SanitizeForLog truncates msg to maxLen bytes and escapes non-printable
// bytes so message content is safe to put in log output.
func SanitizeForLog(msg string, maxLen int) string {
	var b strings.Builder
	n := len(msg)
	if n > maxLen {
		n = maxLen
	}
	for i := 0; i < n; i++ {
		switch c := msg[i]; {
		case c >= 32 && c <= 126:
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte('.')
		}
	}
	if len(msg) > maxLen {
		b.WriteString("...")
	}
	return b.String()
}
