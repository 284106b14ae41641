package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-chat-be/internal/apperror"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"
	"doc-chat-be/pkg/llm"
)

type fakeIngestService struct {
	lastSession string
	deleted     int
}

func (f *fakeIngestService) IngestFile(ctx context.Context, sessionID, fileName string, data []byte) (*dto.IngestResponse, error) {
	f.lastSession = sessionID
	return &dto.IngestResponse{Success: true, Source: dto.IngestedSource{
		Id: "1", Name: fileName, Type: "text", DocumentsIndexed: 2, ExtractedWords: 10,
	}}, nil
}

func (f *fakeIngestService) IngestURL(ctx context.Context, sessionID, url string) (*dto.IngestResponse, error) {
	f.lastSession = sessionID
	return &dto.IngestResponse{Success: true, Source: dto.IngestedSource{Id: "2", Name: url, Type: "web"}}, nil
}

func (f *fakeIngestService) IngestText(ctx context.Context, sessionID, title, text string) (*dto.IngestResponse, error) {
	f.lastSession = sessionID
	return &dto.IngestResponse{Success: true, Source: dto.IngestedSource{Id: "3", Name: title, Type: "text"}}, nil
}

func (f *fakeIngestService) DeleteSource(ctx context.Context, sessionID, sourceName string) (*dto.DeleteSourceResponse, error) {
	f.lastSession = sessionID
	return &dto.DeleteSourceResponse{Success: true, Deleted: f.deleted}, nil
}

type fakeChatService struct {
	exhausted bool
	remaining int
	tokens    []string
}

func (f *fakeChatService) Ask(ctx context.Context, sessionID string, req *dto.ChatRequest) (*service.ChatAnswer, error) {
	if f.exhausted {
		return nil, apperror.New(apperror.KindQuotaExhausted, "message quota exhausted for this session")
	}
	events := make(chan llm.StreamEvent, len(f.tokens)+1)
	for _, tok := range f.tokens {
		events <- llm.StreamEvent{Delta: tok}
	}
	events <- llm.StreamEvent{Done: true}
	close(events)
	return &service.ChatAnswer{RemainingQuota: f.remaining, Events: events}, nil
}

type fakeSessionService struct{}

func (fakeSessionService) GetInfo(ctx context.Context, sessionID string) (*dto.SessionInfoResponse, error) {
	return &dto.SessionInfoResponse{Tokens: 7, Files: []dto.SessionFile{{Id: "1", Name: "a.txt"}}}, nil
}

func (fakeSessionService) Delete(ctx context.Context, sessionID string) (*dto.DeleteSessionResponse, error) {
	return &dto.DeleteSessionResponse{Success: true}, nil
}

func (fakeSessionService) ResetQuota(ctx context.Context, sessionID string) (*dto.ResetQuotaResponse, error) {
	return &dto.ResetQuotaResponse{Tokens: 10}, nil
}

func newTestApp(ingest service.IIngestService, chat service.IChatService, sess service.ISessionService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	app.Use(serverutils.SessionMiddleware)

	api := app.Group("/api")
	NewHealthController("test").RegisterRoutes(api)
	NewIngestController(ingest).RegisterRoutes(api)
	NewChatController(chat).RegisterRoutes(api)
	NewSessionController(sess).RegisterRoutes(api)
	return app
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestIngestFileUpload(t *testing.T) {
	ingest := &fakeIngestService{}
	app := newTestApp(ingest, &fakeChatService{}, fakeSessionService{})

	body, contentType := multipartBody(t, nil, "notes.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(serverutils.SessionHeader, "s1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "s1", ingest.lastSession)

	var out dto.IngestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, "notes.txt", out.Source.Name)
}

func TestIngestRequiresExactlyOneInput(t *testing.T) {
	app := newTestApp(&fakeIngestService{}, &fakeChatService{}, fakeSessionService{})

	// Nothing provided.
	body, contentType := multipartBody(t, nil, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Both url and text provided.
	body, contentType = multipartBody(t, map[string]string{"url": "http://x.test", "text": "hi"}, "", nil)
	req = httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestMissingSessionHeaderFallsBackToDefault(t *testing.T) {
	ingest := &fakeIngestService{}
	app := newTestApp(ingest, &fakeChatService{}, fakeSessionService{})

	body, contentType := multipartBody(t, map[string]string{"text": "pasted", "title": "t"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, serverutils.DefaultSessionID, ingest.lastSession)
}

func TestDeleteSourceEndpoint(t *testing.T) {
	ingest := &fakeIngestService{deleted: 3}
	app := newTestApp(ingest, &fakeChatService{}, fakeSessionService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/ingest?fileName=notes.txt", nil)
	req.Header.Set(serverutils.SessionHeader, "s1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.DeleteSourceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, 3, out.Deleted)
}

func TestChatStreamsAnswerWithQuotaHeader(t *testing.T) {
	chat := &fakeChatService{remaining: 4, tokens: []string{"Based on your documents, ", "yes."}}
	app := newTestApp(&fakeIngestService{}, chat, fakeSessionService{})

	payload := `{"question":"is it so?","sources":["a.txt"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(serverutils.SessionHeader, "s1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "4", resp.Header.Get(quotaRemainingHeader))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Based on your documents, yes.", string(body))
}

func TestChatQuotaExhaustedReturns429(t *testing.T) {
	chat := &fakeChatService{exhausted: true}
	app := newTestApp(&fakeIngestService{}, chat, fakeSessionService{})

	payload := `{"question":"one more?","sources":["a.txt"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var out dto.ChatErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 0, out.Tokens)
	assert.NotEmpty(t, out.Error)
}

func TestChatRejectsMissingFields(t *testing.T) {
	app := newTestApp(&fakeIngestService{}, &fakeChatService{}, fakeSessionService{})

	payload := `{"question":"no sources here"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionEndpoints(t *testing.T) {
	app := newTestApp(&fakeIngestService{}, &fakeChatService{}, fakeSessionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info dto.SessionInfoResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, 7, info.Tokens)
	require.Len(t, info.Files, 1)

	req = httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/session/reset-quota", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var reset dto.ResetQuotaResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reset))
	assert.Equal(t, 10, reset.Tokens)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&fakeIngestService{}, &fakeChatService{}, fakeSessionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
