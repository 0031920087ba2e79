package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// computeFingerprint hashes the document slice. It changes whenever any
// indexed text or the document order changes.
func computeFingerprint(docs []Doc) string {
	h := sha256.New()

	for _, doc := range docs {
		h.Write([]byte(doc.ID))
		h.Write([]byte{0})
		h.Write([]byte(doc.Name))
		h.Write([]byte{0})
		h.Write([]byte(doc.Path))
		h.Write([]byte{0})
		h.Write([]byte(doc.Description))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(doc.Fields, "\x01")))
		h.Write([]byte{0})
		h.Write([]byte(doc.Text))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
