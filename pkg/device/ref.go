package device

import (
	"fmt"
	"strconv"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

type refKind uint8

const (
	refID refKind = iota
	refNickname
	refPosition
)

// ChildRef names a hub child or power strip socket.
type ChildRef struct {
	kind     refKind
	value    string
	position int
}

// ByID selects the child with the given device id.
func ByID(id string) ChildRef {
	return ChildRef{kind: refID, value: id}
}

// ByNickname selects a child by its decoded nickname. Nicknames are not
// unique; the child listed last wins.
func ByNickname(nickname string) ChildRef {
	return ChildRef{kind: refNickname, value: nickname}
}

// ByPosition selects a power strip socket by its 1-based position.
func ByPosition(position int) ChildRef {
	return ChildRef{kind: refPosition, position: position}
}

// String describes the reference.
func (r ChildRef) String() string {
	switch r.kind {
	case refNickname:
		return "nickname " + strconv.Quote(r.value)
	case refPosition:
		return fmt.Sprintf("position %d", r.position)
	default:
		return "id " + strconv.Quote(r.value)
	}
}

// childKey is what a ChildRef matches against.
type childKey struct {
	id       string
	nickname string
	position int
}

func (r ChildRef) matches(k childKey) bool {
	switch r.kind {
	case refNickname:
		return k.nickname == r.value
	case refPosition:
		return k.position != 0 && k.position == r.position
	default:
		return k.id == r.value
	}
}

// resolve returns the last item in listing order that ref matches.
func resolve[T any](items []T, ref ChildRef, key func(T) childKey) (T, error) {
	var (
		found T
		ok    bool
	)
	for _, it := range items {
		if ref.matches(key(it)) {
			found, ok = it, true
		}
	}
	if !ok {
		return found, errs.Newf(errs.KindNotFound, "resolve child", "no child with %s", ref)
	}
	return found, nil
}
