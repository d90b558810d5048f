package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alice() Signed {
	var s Signed
	s.Account[0] = 0xA1
	return s
}

func bob() Signed {
	var s Signed
	s.Account[0] = 0xB0
	return s
}

func TestDecode_RoundTrip(t *testing.T) {
	for _, o := range []Origin{Root{}, None{}, alice()} {
		got, err := Decode(o.Encode())
		require.NoError(t, err)
		assert.True(t, Same(o, got), o.String())
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidOrigin)

	_, err = Decode([]byte{byte(KindSigned), 1, 2})
	assert.ErrorIs(t, err, ErrInvalidOrigin)

	_, err = Decode([]byte{9})
	assert.ErrorIs(t, err, ErrInvalidOrigin)
}

func TestParse(t *testing.T) {
	o, err := Parse("Root")
	require.NoError(t, err)
	assert.Equal(t, KindRoot, o.Kind())

	o, err = Parse(alice().String())
	require.NoError(t, err)
	assert.True(t, Same(alice(), o))

	_, err = Parse("signed:abcd")
	assert.ErrorIs(t, err, ErrInvalidOrigin)

	_, err = Parse("council")
	assert.ErrorIs(t, err, ErrInvalidOrigin)
}

func TestEqualPrivilegeOnly(t *testing.T) {
	ord, ok := EqualPrivilegeOnly.Compare(alice(), alice())
	require.True(t, ok)
	assert.Equal(t, Equal, ord)

	_, ok = EqualPrivilegeOnly.Compare(Root{}, alice())
	assert.False(t, ok)

	assert.True(t, Allows(EqualPrivilegeOnly, alice(), alice()))
	assert.False(t, Allows(EqualPrivilegeOnly, bob(), alice()))
}

func TestRanked(t *testing.T) {
	ord, ok := Ranked.Compare(Root{}, alice())
	require.True(t, ok)
	assert.Equal(t, Greater, ord)

	ord, ok = Ranked.Compare(None{}, alice())
	require.True(t, ok)
	assert.Equal(t, Less, ord)

	_, ok = Ranked.Compare(alice(), bob())
	assert.False(t, ok)

	assert.True(t, Allows(Ranked, Root{}, alice()))
	assert.False(t, Allows(Ranked, None{}, Root{}))
	assert.False(t, Allows(Ranked, bob(), alice()))
}
