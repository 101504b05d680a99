package handlers

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.cloudfoundry.org/picogorouter/response"
)

func syncWriteFrame(w io.Writer) func(response.Opcode, []byte) error {
	var mu sync.Mutex
	return func(op response.Opcode, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if err := response.WriteFrame(w, &response.Frame{FIN: true, Opcode: op, Payload: payload}); err != nil {
			return err
		}
		if bw, ok := w.(*bufio.Writer); ok {
			return bw.Flush()
		}
		return nil
	}
}

func TestRunEchoLoopEchoesTextMessage(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, response.WriteFrame(&in, &response.Frame{FIN: true, Opcode: response.OpText, Payload: []byte("hi")}))

	var out bytes.Buffer
	err := runEchoLoop(&in, syncWriteFrame(&out))
	require.ErrorIs(t, err, io.EOF)

	msg, err := response.ReadMessage(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), `"echo"`)
	assert.Contains(t, string(msg.Data), "hi")
}

func TestRunEchoLoopAnswersPing(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, response.WriteFrame(&in, &response.Frame{FIN: true, Opcode: response.OpPing, Payload: []byte("ping-data")}))

	var out bytes.Buffer
	err := runEchoLoop(&in, syncWriteFrame(&out))
	require.ErrorIs(t, err, io.EOF)

	msg, err := response.ReadMessage(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, response.OpPong, msg.Opcode)
	assert.Equal(t, "ping-data", string(msg.Data))
}

func TestRunEchoLoopReturnsOnClientClose(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, response.WriteFrame(&in, &response.Frame{FIN: true, Opcode: response.OpClose, Payload: response.ClosePayload(1000, "bye")}))

	var out bytes.Buffer
	err := runEchoLoop(&in, syncWriteFrame(&out))
	assert.ErrorIs(t, err, errClientClosed)
}

func TestRunCounterLoopStopsOnContextCancel(t *testing.T) {
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	err := runCounterLoop(ctx, time.Millisecond, syncWriteFrame(&out))
	require.NoError(t, err)
	assert.NotZero(t, out.Len())
}

func TestServeEchoSendsShutdownCloseOnContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	w := bufio.NewWriter(&out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := serveEcho(ctx, w, pr, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	r := bytes.NewReader(out.Bytes())
	var last *response.Message
	for {
		msg, err := response.ReadMessage(r)
		if err != nil {
			break
		}
		last = msg
	}

	require.NotNil(t, last)
	assert.Equal(t, response.OpClose, last.Opcode)
	code, reason, ok := response.CloseStatus(last.Data)
	require.True(t, ok)
	assert.Equal(t, uint16(1001), code)
	assert.Equal(t, "Server is shutting down", reason)
}
