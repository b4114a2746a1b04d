package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/linkboard/internal/github"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error", nil, ""},
		{"invalid credentials", fmt.Errorf("match: %w", ErrInvalidCredentials), "AUTH001"},
		{"missing username", ErrUsernameRequired, "AUTH002"},
		{"missing password", ErrPasswordRequired, "AUTH002"},
		{"unknown link", fmt.Errorf("%w for ID: abc", ErrLinkNotFound), "LINK001"},
		{"button without name", &LinkValidationError{Fields: []ButtonFieldError{{Index: 1, Field: "buttonName", Message: "Button Name is required"}}}, "LINK002"},
		{"button without url", &LinkValidationError{Fields: []ButtonFieldError{{Index: 1, Field: "url", Message: "URL is required"}}}, "LINK002"},
		{"no buttons", ErrNoButtons, "LINK002"},
		{"bad redirect", ErrInvalidURL, "LINK003"},
		{"file too large", errors.New("file too large: exceeds 10 bytes"), "FILE001"},
		{"not csv", ErrNotCSV, "FILE002"},
		{"no file", ErrNoFile, "FILE003"},
		{"empty dataset", &StageError{Stage: StageParse, Err: ErrEmptyDataset}, "DATA001"},
		{"nothing loaded", ErrNoDataset, "DATA002"},
		{"token endpoint", errors.New("fetch token: status 502"), "GH001"},
		{"unauthorized", &StageError{Stage: StageWrite, Err: github.ErrUnauthorized}, "GH002"},
		{"not found", github.ErrNotFound, "GH003"},
		{"other github", &github.StatusError{Method: "PUT", Path: "Data.json", Code: 409}, "GH004"},
		{"busy", ErrTooManyUploads, "UPL002"},
		{"cancelled", context.Canceled, "UPL004"},
		{"timeout", context.DeadlineExceeded, "UPL005"},
		{"bad body", errors.New("invalid request body: unexpected EOF"), "REQ001"},
		{"rate limited", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, MapError(tt.err).Code)
		})
	}
}

func TestMapError_InvalidURLMessage(t *testing.T) {
	assert.Equal(t, "Invalid URL received.", MapError(ErrInvalidURL).Message)
}

func TestFormatUserError(t *testing.T) {
	assert.Empty(t, FormatUserError(nil))
	assert.Equal(t,
		"No data has been uploaded yet (Code: DATA002). Upload a CSV file first",
		FormatUserError(ErrNoDataset))
}

func TestIsUserFacing(t *testing.T) {
	assert.False(t, IsUserFacing(nil))
	assert.False(t, IsUserFacing(errors.New("nil pointer dereference")))
	assert.True(t, IsUserFacing(ErrNoFile))
}

func TestUserError(t *testing.T) {
	assert.Nil(t, NewUserError(nil))

	ue := NewUserError(ErrNotCSV)
	assert.Equal(t, "Please upload a valid CSV file", ue.Error())
	assert.ErrorIs(t, ue, ErrNotCSV)
	assert.Equal(t, "FILE002", ue.User.Code)
}
