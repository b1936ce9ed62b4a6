package conduit_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conduit"
)

func TestResponseConstructors(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		res := conduit.Text("hello")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "hello", string(res.Body))
		assert.Equal(t, "text/plain; charset=utf-8", res.Header.Get("Content-Type"))
	})

	t.Run("html", func(t *testing.T) {
		t.Parallel()

		res := conduit.HTML("<p>hi</p>")
		assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		res, err := conduit.JSON(map[string]int{"n": 1})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.JSONEq(t, `{"n":1}`, string(res.Body))
		assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))
	})

	t.Run("json_marshal_error", func(t *testing.T) {
		t.Parallel()

		_, err := conduit.JSON(make(chan int))
		require.Error(t, err)
	})

	t.Run("status_and_no_content", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, http.StatusTeapot, conduit.Status(http.StatusTeapot).StatusCode)
		assert.Equal(t, http.StatusNoContent, conduit.NoContent().StatusCode)
	})

	t.Run("redirect", func(t *testing.T) {
		t.Parallel()

		res := conduit.Redirect("/login", http.StatusFound)
		assert.Equal(t, http.StatusFound, res.StatusCode)
		assert.Equal(t, "/login", res.Header.Get("Location"))
	})
}

func TestResponse_Clone(t *testing.T) {
	t.Parallel()

	original := conduit.Text("body")
	original.Header.Set("X-Key", "v")

	clone := original.Clone()
	clone.Header.Set("X-Key", "changed")
	clone.Body[0] = 'B'

	assert.Equal(t, "v", original.Header.Get("X-Key"))
	assert.Equal(t, "body", string(original.Body))
	assert.Equal(t, "Body", string(clone.Body))
}

func TestResponse_Opaque(t *testing.T) {
	t.Parallel()

	res := conduit.Opaque(http.StatusOK, nil, []byte("x"))
	assert.True(t, res.IsOpaque())

	clone := res.Clone()
	assert.False(t, clone.IsOpaque(), "clones are mutable")
}
