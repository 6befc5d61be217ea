package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/llm"
	"github.com/dgallion1/docqa/internal/pipeline"
)

type fakeSummarizer struct {
	got     string
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.got = text
	return f.summary, f.err
}

type fakeReplier struct {
	got   string
	reply string
	err   error
}

func (f *fakeReplier) Reply(_ context.Context, message string) (string, error) {
	f.got = message
	return f.reply, f.err
}

func testServer(sum Summarizer, chat Replier, client *llm.Client, cfg config.Config) *Server {
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 1 << 20
	}
	return NewServer(sum, chat, client, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func uploadRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv := testServer(&fakeSummarizer{}, &fakeReplier{}, nil, config.Config{APIKey: "secret"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUpload_Summarizes(t *testing.T) {
	sum := &fakeSummarizer{summary: "short version"}
	srv := testServer(sum, &fakeReplier{}, nil, config.Config{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "file", "notes.txt", "text/plain", []byte("Long document text.")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"summary": "short version"}, decode(t, rec))
	assert.Equal(t, "Long document text.", sum.got)
}

func TestUpload_ExtractsByContentType(t *testing.T) {
	sum := &fakeSummarizer{summary: "ok"}
	srv := testServer(sum, &fakeReplier{}, nil, config.Config{})

	page := []byte("<html><body><h1>Title</h1><p>Body text.</p></body></html>")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "file", "page", "text/html", page))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Title\n\nBody text.", sum.got)
}

func TestUpload_NoFile(t *testing.T) {
	srv := testServer(&fakeSummarizer{}, &fakeReplier{}, nil, config.Config{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "attachment", "notes.txt", "text/plain", []byte("text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": "No file provided"}, decode(t, rec))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	sum := &fakeSummarizer{}
	srv := testServer(sum, &fakeReplier{}, nil, config.Config{MaxUploadBytes: 10})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "file", "big.txt", "text/plain", bytes.Repeat([]byte("x"), 100)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, sum.got)
}

func TestUpload_PipelineFailure(t *testing.T) {
	sum := &fakeSummarizer{err: &llm.StatusError{StatusCode: http.StatusTooManyRequests}}
	srv := testServer(sum, &fakeReplier{}, nil, config.Config{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "file", "notes.txt", "text/plain", []byte("text")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Error processing file"}, decode(t, rec))
}

func TestUpload_ExtractionFailure(t *testing.T) {
	sum := &fakeSummarizer{}
	srv := testServer(sum, &fakeReplier{}, nil, config.Config{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "file", "scan.pdf", "application/pdf", []byte("not really a pdf")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Error processing file"}, decode(t, rec))
	assert.Empty(t, sum.got)
}

func TestUpload_EmptyDocument(t *testing.T) {
	sum := &fakeSummarizer{err: pipeline.ErrEmptyDocument}
	srv := testServer(sum, &fakeReplier{}, nil, config.Config{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "file", "blank.txt", "text/plain", []byte("   ")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func chatRequestBody(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChat_Success(t *testing.T) {
	rep := &fakeReplier{reply: "Hi! How can I help?"}
	srv := testServer(&fakeSummarizer{}, rep, nil, config.Config{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, chatRequestBody(`{"message":"hello"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"response": "Hi! How can I help?", "status": "success"}, decode(t, rec))
	assert.Equal(t, "hello", rep.got)
}

func TestChat_BadRequests(t *testing.T) {
	srv := testServer(&fakeSummarizer{}, &fakeReplier{}, nil, config.Config{})

	for _, body := range []string{`{}`, `{"message":""}`, `{"message":"  "}`, `not json`} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, chatRequestBody(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "error", decode(t, rec)["status"], body)
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"too large", &llm.StatusError{StatusCode: http.StatusRequestEntityTooLarge}, http.StatusRequestEntityTooLarge, "Message too long. Please try a shorter message."},
		{"rate limited", &llm.StatusError{StatusCode: http.StatusTooManyRequests}, http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again."},
		{"server error", &llm.StatusError{StatusCode: http.StatusBadGateway}, http.StatusInternalServerError, "Error processing chat request"},
		{"transport", errors.New("connection refused"), http.StatusInternalServerError, "Error processing chat request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(&fakeSummarizer{}, &fakeReplier{err: tt.err}, nil, config.Config{})
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, chatRequestBody(`{"message":"hello"}`))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, map[string]any{"error": tt.msg, "status": "error"}, decode(t, rec))
		})
	}
}

func TestAuth(t *testing.T) {
	rep := &fakeReplier{reply: "ok"}
	srv := testServer(&fakeSummarizer{}, rep, nil, config.Config{APIKey: "secret"})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, chatRequestBody(`{"message":"hello"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := chatRequestBody(`{"message":"hello"}`)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = chatRequestBody(`{"message":"hello"}`)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLLMStats(t *testing.T) {
	srv := testServer(&fakeSummarizer{}, &fakeReplier{}, nil, config.Config{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	client := llm.NewClient(llm.Options{APIKey: "k", Model: "llama-3.3-70b-versatile"})
	client.Stats.Record(120)
	srv = testServer(&fakeSummarizer{}, &fakeReplier{}, client, config.Config{})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "llama-3.3-70b-versatile", body["model"])
	assert.Contains(t, body, "stats")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", sanitizeFilename("../../etc/report.pdf"))
	assert.Equal(t, "notes.txt", sanitizeFilename(`C:\Users\me\notes.txt`))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
}
