package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New("America/Chicago")
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", c.Location().String())
	assert.Equal(t, c.Location(), c.Now().Location())

	_, err = New("Mars/Olympus")
	assert.Error(t, err)
}
