package dispatch

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerServeEnqueuesFramedRequest(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan *Transaction, 1)
	pool := NewPool(4, 1, func(tx *Transaction) {
		received <- tx
	})
	defer pool.Close()

	l := NewListener(pool)
	go func() { _ = l.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	body := []byte("node-id")
	header := make([]byte, HeaderSize)
	EncodeHeader(header, uint32(len(body)))
	_, err = conn.Write(append(header, body...))
	require.NoError(t, err)

	select {
	case tx := <-received:
		assert.Equal(t, body, tx.Body)
		assert.NotEmpty(t, tx.ConnID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for enqueued transaction")
	}
}

func TestListenerServeClosesConnectionOnMalformedHeader(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	pool := NewPool(4, 1, func(tx *Transaction) {})
	defer pool.Close()

	l := NewListener(pool)
	go func() { _ = l.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0})
	require.NoError(t, err)

	buf := make([]byte, 1)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}
