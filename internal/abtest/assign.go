// Package abtest contains the deterministic recipient-to-variation
// assignment and the funnel rate calculations.
package abtest

import (
	"crypto/md5"
	"encoding/binary"
	"strings"
)

// Assign deterministically maps an email address to one of the given
// variation names. The same email and the same ordered name list always
// produce the same result, independent of process restarts or the other
// recipients in the campaign.
//
// The hash function is fixed for the lifetime of the system: changing it
// would silently reassign recipients that already received a variation.
//
// names must be non-empty; the caller guarantees that.
func Assign(email string, names []string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	n := binary.BigEndian.Uint32(sum[:4])
	return names[n%uint32(len(names))]
}
