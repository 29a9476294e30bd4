// Package idgen produces booking identifiers.
package idgen

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPrefix = "BK"
	suffixLen     = 8
)

type Generator interface {
	NewID() (string, error)
}

// BookingIDs builds IDs as prefix + unix milliseconds + a random base36
// suffix. IDs sort by creation time; the suffix comes from crypto/rand via
// uuid v4, giving ~41 bits of entropy per millisecond.
type BookingIDs struct {
	prefix string
	now    func() time.Time
}

func NewBookingIDs(prefix string, now func() time.Time) *BookingIDs {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &BookingIDs{prefix: prefix, now: now}
}

func (g *BookingIDs) NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	suffix := strings.ToUpper(new(big.Int).SetBytes(u[:8]).Text(36))
	if len(suffix) < suffixLen {
		suffix = strings.Repeat("0", suffixLen-len(suffix)) + suffix
	}
	return g.prefix + strconv.FormatInt(g.now().UnixMilli(), 10) + suffix[len(suffix)-suffixLen:], nil
}

var _ Generator = (*BookingIDs)(nil)
