package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/values"
)

func TestDeclare_CasesInOrder(t *testing.T) {
	suit, err := Declare("Suit", "Hearts", "Diamonds", "Clubs", "Spades")
	require.NoError(t, err)

	cases := suit.Cases()
	require.Len(t, cases, 4)
	var names []string
	for _, v := range cases {
		c, ok := v.(*Case)
		require.True(t, ok)
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"Hearts", "Diamonds", "Clubs", "Spades"}, names)
	assert.Equal(t, 4, suit.Len())
}

func TestCases_AreSingletons(t *testing.T) {
	suit, err := Declare("Suit", "Hearts", "Spades")
	require.NoError(t, err)

	hearts, ok := suit.Case("Hearts")
	require.True(t, ok)
	assert.Same(t, hearts, suit.Cases()[0])
	assert.Same(t, hearts, suit.Cases()[0])
	assert.Same(t, suit, hearts.Enum())
	assert.Equal(t, "Suit::Hearts", hearts.Qualified())

	_, ok = suit.Case("Joker")
	assert.False(t, ok)
}

func TestCases_ReturnsFreshSlice(t *testing.T) {
	e, err := Declare("Status", "On", "Off")
	require.NoError(t, err)

	got := e.Cases()
	got[0] = values.Null{}
	assert.IsType(t, &Case{}, e.Cases()[0])
}

func TestDeclare_Errors(t *testing.T) {
	_, err := Declare("")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = Declare("Suit", "Hearts", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = Declare("Suit", "Hearts", "Hearts")
	assert.ErrorIs(t, err, ErrDuplicateCase)
	assert.Contains(t, err.Error(), "Suit::Hearts")
}

func TestDeclare_Empty(t *testing.T) {
	e, err := Declare("Nothing")
	require.NoError(t, err)
	assert.Empty(t, e.Cases())
}

func TestEnumContracts(t *testing.T) {
	e, err := Declare("Suit", "Hearts")
	require.NoError(t, err)
	assert.True(t, contracts.Implements(e, contracts.NameUnitEnum))

	c, _ := e.Case("Hearts")
	assert.Equal(t, "Suit", values.TypeName(c))
	assert.Empty(t, contracts.Satisfies(c))
	_, err = contracts.ToString(c)
	assert.True(t, contracts.HasCode(err, contracts.ErrCodeNotStringable))
}
