package sampler

import (
	"errors"
	"fmt"
)

// MaxChildID is the largest child identifier the issuer hands out.
const MaxChildID = 1_000_000

// ErrIdentitiesExhausted is returned once every child identifier is taken.
var ErrIdentitiesExhausted = errors.New("child identifiers exhausted")

// IdentityIssuer hands out child IDs and UPNs that are unique for the life
// of the issuer. It is not safe for concurrent use.
type IdentityIssuer struct {
	s    *Sampler
	ids  map[int]struct{}
	upns map[string]struct{}
}

// NewIdentityIssuer returns an issuer drawing from s.
func NewIdentityIssuer(s *Sampler) *IdentityIssuer {
	return &IdentityIssuer{s: s, ids: map[int]struct{}{}, upns: map[string]struct{}{}}
}

// ChildID returns an unused identifier in [0, MaxChildID].
func (i *IdentityIssuer) ChildID() (int, error) {
	if len(i.ids) > MaxChildID {
		return 0, ErrIdentitiesExhausted
	}
	for {
		id := i.s.IntRange(0, MaxChildID)
		if _, seen := i.ids[id]; seen {
			continue
		}
		i.ids[id] = struct{}{}
		return id, nil
	}
}

// UPN returns an unused 13-character unique pupil number: one upper-case
// letter followed by twelve digits.
func (i *IdentityIssuer) UPN() string {
	for {
		upn := fmt.Sprintf("%c%012d", i.s.Letter(), i.s.IntRange(1, 100_000_000_000))
		if _, seen := i.upns[upn]; seen {
			continue
		}
		i.upns[upn] = struct{}{}
		return upn
	}
}
