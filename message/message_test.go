package message

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailed(t *testing.T) {
	cause := errors.New("fetch http://example.com: 404 Not Found")
	resp := Failed(cause)

	assert.Equal(t, "fetch http://example.com: 404 Not Found", resp.Error)
	assert.ErrorIs(t, resp.Err, cause)
	assert.Empty(t, resp.Links)
}
