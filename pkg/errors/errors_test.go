package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	err := StatusError(404)
	assert.Equal(t, "HTTP 404", err.Message)
	assert.Equal(t, 404, err.Code)
	assert.Equal(t, ErrorTypeStatus, TypeOf(err))
	assert.Equal(t, "HTTP 404", Reason(err))
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("start run: %w", ErrBusy)
	assert.True(t, Is(wrapped, ErrBusy))
	assert.False(t, Is(wrapped, ErrNotRunning))

	copyOfBusy := New(ErrorTypeConflict, "Scraping already in progress")
	assert.True(t, Is(copyOfBusy, ErrBusy))
}

func TestReasonUnwrapsNetworkCause(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(ErrorTypeNetwork, "request failed", cause)
	assert.Equal(t, "dial tcp: connection refused", Reason(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "plain", Reason(stderrors.New("plain")))
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(New(ErrorTypeInput, "Search query is required")))
	assert.False(t, IsUserError(ErrBusy))
	assert.False(t, IsUserError(stderrors.New("boom")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "status error (code 500): HTTP 500", StatusError(500).Error())
	assert.Equal(t, "browser error: Chrome driver not found", ErrDriverUnavailable.Error())
	assert.Equal(t, "storage error: write failed: disk full",
		Wrap(ErrorTypeStorage, "write failed", stderrors.New("disk full")).Error())
}
