package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigninPromptsForPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s3cret-pass", body["password"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"token":"tok","expiresIn":3600,"user":{"username":"alice"}}`))
	}))
	defer srv.Close()

	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("s3cret-pass"), nil }
	defer func() { readPassword = orig }()

	var out bytes.Buffer
	err := run(context.Background(), "signin", []string{"--base-url", srv.URL, "-i", "alice"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"token": "tok"`)
}

func TestSendJoinsArgs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send-message", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bob", body["username"])
		assert.Equal(t, "you are doing great", body["content"])
		_, _ = w.Write([]byte(`{"success":true,"message":"Message sent successfully"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run(context.Background(), "send", []string{"--base-url", srv.URL, "--to", "bob", "you", "are", "doing", "great"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Message sent successfully")
}

func TestOwnerCommandsNeedToken(t *testing.T) {
	t.Setenv("INKCTL_TOKEN", "")
	for _, cmd := range []string{"inbox", "accept"} {
		err := run(context.Background(), cmd, []string{"--base-url", "http://127.0.0.1:1"}, &bytes.Buffer{})
		require.Error(t, err, cmd)
		assert.Contains(t, err.Error(), "token")
	}
}

func TestAcceptToggle(t *testing.T) {
	state := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			var body struct {
				AcceptMessages bool `json:"acceptMessages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			state = body.AcceptMessages
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "isAcceptingMessage": state})
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run(context.Background(), "accept", []string{"--base-url", srv.URL, "--token", "tok", "--off"}, &out)
	require.NoError(t, err)
	assert.False(t, state)
	assert.Contains(t, out.String(), `"isAcceptingMessage": false`)
}

func TestUnknownCommand(t *testing.T) {
	err := run(context.Background(), "nope", nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUsage)
}
