package kaiawallet

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxAttempts int, interval time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "Kakao Bot", 1001, WithPolling(maxAttempts, interval))
}

func TestPollResultExhaustsBudgetOnPending(t *testing.T) {
	var calls int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		fmt.Fprint(w, `{"status":"pending","type":"auth","request_key":"key1"}`)
	}, 5, time.Millisecond)

	result, err := client.PollResult(context.Background(), "key1")
	require.NoError(t, err)
	assert.Nil(t, result, "exhausted budget must yield an unknown outcome")
	assert.EqualValues(t, 5, atomic.LoadInt64(&calls), "exactly maxAttempts calls")
}

func TestPollResultStopsOnTerminalStatus(t *testing.T) {
	var calls int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n < 3 {
			fmt.Fprint(w, `{"status":"pending","type":"auth","request_key":"key1"}`)
			return
		}
		fmt.Fprint(w, `{"status":"canceled","type":"auth","request_key":"key1"}`)
	}, 30, time.Millisecond)

	result, err := client.PollResult(context.Background(), "key1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StatusCanceled, result.Status)
	assert.EqualValues(t, 3, atomic.LoadInt64(&calls), "no call after the terminal status")
}

func TestPollResultReturnsCompletedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, resultPath+"key1", r.URL.Path)
		fmt.Fprint(w, `{"status":"completed","type":"auth","request_key":"key1","result":{"klaytn_address":"0xabc"}}`)
	}, 30, time.Millisecond)

	result, err := client.PollResult(context.Background(), "key1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "0xabc", result.Result.KlaytnAddress)
}

func TestPollResultRetriesTransportErrors(t *testing.T) {
	var calls int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		switch n {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			fmt.Fprint(w, `not json`)
		default:
			fmt.Fprint(w, `{"status":"completed","type":"send_klay","request_key":"key1","result":{"tx_hash":"0xhash"}}`)
		}
	}, 30, time.Millisecond)

	result, err := client.PollResult(context.Background(), "key1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "0xhash", result.Result.TxHash)
	assert.EqualValues(t, 3, atomic.LoadInt64(&calls), "errors consume one attempt each")
}

func TestPollResultHonorsContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"pending","type":"auth","request_key":"key1"}`)
	}, 30, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var result *Result
	var err error
	go func() {
		result, err = client.PollResult(ctx, "key1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop on context cancellation")
	}
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}
