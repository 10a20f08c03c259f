package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/slotflow/chat-server/apperrors"
	"github.com/slotflow/chat-server/models"
	"github.com/slotflow/chat-server/uploads"
)

type fakeStore struct {
	created  []models.Message
	existing []models.Message
}

func (s *fakeStore) Create(_ context.Context, senderID, receiverID, text, imageKey string) (models.Message, error) {
	if text == "" && imageKey == "" {
		return models.Message{}, apperrors.Validationf("message needs text or an image")
	}
	now := time.Now().UTC()
	msg := models.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      imageKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.created = append(s.created, msg)
	return msg, nil
}

func (s *fakeStore) Conversation(_ context.Context, _, _ string) ([]models.Message, error) {
	return s.existing, nil
}

type fakeUploader struct {
	uploads int
}

func (u *fakeUploader) Upload(_ context.Context, namespace, ownerID string, file uploads.File) (string, error) {
	u.uploads++
	io.Copy(io.Discard, file.Body)
	return namespace + "/" + ownerID + "_" + file.Name, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, key string) (string, error) {
	return "https://signed.example.com/" + key, nil
}

type fakePusher struct {
	pushed []models.Message
}

func (p *fakePusher) PushMessage(_ context.Context, _ string, msg models.Message) {
	p.pushed = append(p.pushed, msg)
}

type fixture struct {
	app      *fiber.App
	store    *fakeStore
	uploader *fakeUploader
	pusher   *fakePusher
}

func newFixture() *fixture {
	f := &fixture{
		app:      fiber.New(),
		store:    &fakeStore{},
		uploader: &fakeUploader{},
		pusher:   &fakePusher{},
	}
	h := NewMessageHandler(f.store, f.uploader, fakeResolver{}, f.pusher, slog.Default())
	f.app.Post("/messages", h.SendMessage)
	f.app.Get("/conversation/:userA/:userB", h.GetConversation)
	return f
}

func postForm(t *testing.T, app *fiber.App, values url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Data
}

func Test_SendMessage_TextOnly(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	resp := postForm(t, f.app, url.Values{
		"senderId":   {"u1"},
		"receiverId": {"u2"},
		"text":       {"hello"},
	})
	req.Equal(http.StatusOK, resp.StatusCode)

	msg := decodeData[models.Message](t, resp)
	req.Equal("hello", msg.Text)
	req.Empty(msg.Image)

	req.Zero(f.uploader.uploads)
	req.Len(f.pusher.pushed, 1)
}

func Test_SendMessage_WithFile(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	req.NoError(w.WriteField("senderId", "u1"))
	req.NoError(w.WriteField("receiverId", "u2"))
	part, err := w.CreateFormFile("file", "pic.png")
	req.NoError(err)
	_, err = part.Write([]byte("png-bytes"))
	req.NoError(err)
	req.NoError(w.Close())

	httpReq := httptest.NewRequest(http.MethodPost, "/messages", &buf)
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := f.app.Test(httpReq)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	msg := decodeData[models.Message](t, resp)
	// Response carries the signed URL, not the raw key.
	req.True(strings.HasPrefix(msg.Image, "https://signed.example.com/chat-u1-u2/"), msg.Image)

	req.Equal(1, f.uploader.uploads)
	req.Len(f.store.created, 1)
	// The stored row keeps the key.
	req.Equal("chat-u1-u2/u1_pic.png", f.store.created[0].Image)
	req.Len(f.pusher.pushed, 1)
	req.Equal(msg.Image, f.pusher.pushed[0].Image)
}

func Test_SendMessage_RejectsEmptyPayload(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	resp := postForm(t, f.app, url.Values{
		"senderId":   {"u1"},
		"receiverId": {"u2"},
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	// Nothing was uploaded, stored or pushed.
	req.Zero(f.uploader.uploads)
	req.Empty(f.store.created)
	req.Empty(f.pusher.pushed)
}

func Test_SendMessage_RejectsMissingParticipants(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	resp := postForm(t, f.app, url.Values{"text": {"hi"}})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_GetConversation_ResolvesImages(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.store.existing = []models.Message{
		{SenderID: "u1", ReceiverID: "u2", Text: "hi"},
		{SenderID: "u2", ReceiverID: "u1", Image: "chat-u1-u2/img.png"},
	}

	httpReq := httptest.NewRequest(http.MethodGet, "/conversation/u1/u2", nil)
	resp, err := f.app.Test(httpReq)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	messages := decodeData[[]models.Message](t, resp)
	req.Len(messages, 2)
	req.Empty(messages[0].Image)
	req.Equal("https://signed.example.com/chat-u1-u2/img.png", messages[1].Image)
}

func Test_GetConversation_EmptyIsAnEmptyList(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	httpReq := httptest.NewRequest(http.MethodGet, "/conversation/u1/u9", nil)
	resp, err := f.app.Test(httpReq)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.JSONEq(`{"data":[]}`, string(raw))
}
