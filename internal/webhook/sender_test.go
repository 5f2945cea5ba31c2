package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSender() *Sender {
	return NewSender(2*time.Second, log.New(io.Discard, "", 0))
}

func TestSendSuccess(t *testing.T) {
	var gotPath string
	var gotBody notification

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testSender().Send(context.Background(), srv.URL, 42, domain.StatusResolved, "the answer")
	require.NoError(t, err)

	assert.Equal(t, "/42", gotPath)
	assert.Equal(t, int64(42), gotBody.RequestID)
	assert.Equal(t, "resolved", gotBody.Status)
	assert.Equal(t, "the answer", gotBody.Answer)
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testSender().Send(context.Background(), srv.URL, 1, domain.StatusResolved, "answer")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testSender().Send(context.Background(), srv.URL, 1, domain.StatusResolved, "answer")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeDeliveryFailed, domainErr.Code)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := testSender().Send(context.Background(), srv.URL, 1, domain.StatusResolved, "answer")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testSender().Send(context.Background(), srv.URL+"/", 9, domain.StatusUnresolved, "")
	require.NoError(t, err)
	assert.Equal(t, "/9", gotPath)
}
