package origin

// Ordering is the result of a privilege comparison.
type Ordering int8

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// String returns the string representation of the Ordering.
func (o Ordering) String() string {
	switch o {
	case Less:
		return "Less"
	case Equal:
		return "Equal"
	case Greater:
		return "Greater"
	default:
		return "Unknown"
	}
}

// Comparator orders origins by privilege. ok is false when the two origins
// are incomparable.
type Comparator interface {
	Compare(a, b Origin) (ord Ordering, ok bool)
}

// ComparatorFunc adapts a function to the Comparator interface.
type ComparatorFunc func(a, b Origin) (Ordering, bool)

// Compare calls f(a, b).
func (f ComparatorFunc) Compare(a, b Origin) (Ordering, bool) {
	return f(a, b)
}

// EqualPrivilegeOnly treats identical origins as equal and everything else
// as incomparable.
var EqualPrivilegeOnly Comparator = ComparatorFunc(func(a, b Origin) (Ordering, bool) {
	if Same(a, b) {
		return Equal, true
	}
	return 0, false
})

// Ranked orders Root above Signed above None. Two different signed
// accounts are incomparable.
var Ranked Comparator = ComparatorFunc(func(a, b Origin) (Ordering, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	ra, rb := rank(a.Kind()), rank(b.Kind())
	switch {
	case ra < rb:
		return Less, true
	case ra > rb:
		return Greater, true
	}
	if a.Kind() == KindSigned && !Same(a, b) {
		return 0, false
	}
	return Equal, true
})

func rank(k Kind) int {
	switch k {
	case KindRoot:
		return 2
	case KindSigned:
		return 1
	default:
		return 0
	}
}

// Allows reports whether caller may act on a task created by owner:
// the caller's privilege must not be less than the owner's.
func Allows(cmp Comparator, caller, owner Origin) bool {
	ord, ok := cmp.Compare(caller, owner)
	return ok && ord != Less
}
