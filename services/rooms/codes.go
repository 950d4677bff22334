package rooms

import "math/rand"

// Room codes are short and human-typeable, so the charset drops visually
// ambiguous glyphs (0/O, 1/I/L).
const codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 6

func generateRoomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeCharset[rand.Intn(len(codeCharset))]
	}
	return string(b)
}
