package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	patterns := StandardPatterns()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"token_assignment", "token=abc123 next", "token=*** next"},
		{"token_colon_case", "TOKEN: abc123", "TOKEN: ***"},
		{"password", "user=bob password=hunter2", "user=bob password=***"},
		{"secret", `secret="s3cr3t"`, `secret="***"`},
		{"client_secret", "client_secret=s3cr3t", "client_secret=***"},
		{"api_key_json", `{"api_key":"abcd1234","msg":"x"}`, `{"api_key":"***","msg":"x"}`},
		{"bearer", "Authorization: Bearer eyJ.abc.def", "Authorization: Bearer ***"},
		{"token_scheme", "authorization: Token abc123", "authorization: Token ***"},
		{"token_list", `{"token":["a","b"],"page":["2"]}`, `{"token":["***"],"page":["2"]}`},
		{"key_list_bracket_in_value", `{"api_key":["x]y"],"msg":"x"}`, `{"api_key":["***"],"msg":"x"}`},
		{"untouched", "fetched 3 detections", "fetched 3 detections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redact(tt.in, patterns...))
		})
	}
}

func TestRedactingWriter_KeepsJSONValid(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewRedactingWriter(buf, StandardPatterns()...)

	line := []byte(`{"level":"info","token":"abc","password":"p@ss","message":"ok"}` + "\n")
	n, err := w.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "***", decoded["token"])
	assert.Equal(t, "***", decoded["password"])
	assert.Equal(t, "ok", decoded["message"])
}

func TestRedactingWriter_QueryValues(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(NewRedactingWriter(buf, StandardPatterns()...))

	params := url.Values{
		"token":   {"s3cr3tvalue"},
		"api_key": {"k3yvalue", "other"},
		"page":    {"2"},
	}
	logger.Info().Interface("params", params).Msg("request")

	out := buf.String()
	assert.NotContains(t, out, "s3cr3tvalue")
	assert.NotContains(t, out, "k3yvalue")
	assert.NotContains(t, out, "other")

	var decoded struct {
		Params  map[string][]string `json:"params"`
		Message string              `json:"message"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"***"}, decoded.Params["token"])
	assert.Equal(t, []string{"***"}, decoded.Params["api_key"])
	assert.Equal(t, []string{"2"}, decoded.Params["page"])
	assert.Equal(t, "request", decoded.Message)
}

func TestRedactingWriter_Passthrough(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewRedactingWriter(buf)

	_, err := w.Write([]byte("token=abc"))
	require.NoError(t, err)
	assert.Equal(t, "token=abc", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRedactingWriter_Error(t *testing.T) {
	w := NewRedactingWriter(failingWriter{}, StandardPatterns()...)

	n, err := w.Write([]byte("hello"))
	assert.Error(t, err)
	assert.Zero(t, n)
}
