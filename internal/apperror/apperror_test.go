package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClass(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{NotFound, ClassUser},
		{Unauthorized, ClassUser},
		{ValidationError, ClassUser},
		{UserError, ClassUser},
		{StorageFailure, ClassApp},
		{AppError, ClassApp},
		{Kind("bogus"), ClassApp},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Class(tt.kind))
		})
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := Wrap(StorageFailure, "put record", errors.New("disk full"))
	wrapped := fmt.Errorf("create publisher: %w", base)

	assert.Equal(t, StorageFailure, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, StorageFailure))
	assert.False(t, IsKind(wrapped, NotFound))
	assert.Equal(t, "put record: disk full", base.Error())

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, "put record", got.Message)
}

func TestKindOfUnknownError(t *testing.T) {
	assert.Equal(t, AppError, KindOf(errors.New("boom")))
	assert.Nil(t, As(errors.New("boom")))
}

func TestWithDetailsCopies(t *testing.T) {
	e := New(Unauthorized, "not an editor")
	withCaller := e.With("caller", "bob")
	withBoth := withCaller.With("entity", "abc")

	assert.Nil(t, e.Details)
	assert.Equal(t, map[string]string{"caller": "bob"}, withCaller.Details)
	assert.Equal(t, map[string]string{"caller": "bob", "entity": "abc"}, withBoth.Details)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, Unauthorized.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, ValidationError.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, StorageFailure.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, AppError.HTTPStatus())
}
