package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type hijackableRecorder struct {
	*httptest.ResponseRecorder
}

func (hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, nil
}

func TestStatusRecorder(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusInternalServerError)
	_, _ = rec.Write([]byte("abc"))

	assert.Equal(t, http.StatusCreated, rec.status)
	assert.Equal(t, 3, rec.bytes)
	assert.Same(t, rec, newStatusRecorder(rec))

	_, _, err := rec.Hijack()
	assert.Error(t, err)

	hj := newStatusRecorder(hijackableRecorder{httptest.NewRecorder()})
	_, _, err = hj.Hijack()
	assert.NoError(t, err)

	var _ http.Flusher = rec
	rec.Flush()
}
