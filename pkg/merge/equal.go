package merge

import (
	"bytes"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

// Equal reports whether two snapshots carry the same content. Revision and
// SavedAt are server bookkeeping and are ignored.
func Equal(a, b *models.Snapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	ac, bc := a.Clone(), b.Clone()
	ac.Revision, bc.Revision = 0, 0
	ac.SavedAt, bc.SavedAt = nil, nil

	ad, err := ac.Encode()
	if err != nil {
		return false
	}
	bd, err := bc.Encode()
	if err != nil {
		return false
	}
	return bytes.Equal(ad, bd)
}
