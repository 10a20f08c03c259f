package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/slotflow/chat-server/apperrors"
	"github.com/slotflow/chat-server/models"
	"github.com/slotflow/chat-server/uploads"
)

// MessageStore persists and retrieves conversation history.
type MessageStore interface {
	Create(ctx context.Context, senderID, receiverID, text, imageKey string) (models.Message, error)
	Conversation(ctx context.Context, userA, userB string) ([]models.Message, error)
}

// AttachmentUploader stores a binary attachment and returns its object key.
type AttachmentUploader interface {
	Upload(ctx context.Context, namespace, ownerID string, file uploads.File) (string, error)
}

// URLResolver maps an object key to a time-limited access URL.
type URLResolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// MessagePusher delivers a message to the recipient's live connection, if any.
type MessagePusher interface {
	PushMessage(ctx context.Context, toUserID string, msg models.Message)
}

// MessageHandler is the messaging facade: it composes the store, the
// attachment pipeline, the signed-URL resolver and the gateway.
type MessageHandler struct {
	Store    MessageStore
	Uploader AttachmentUploader
	Resolver URLResolver
	Pusher   MessagePusher
	Log      *slog.Logger

	validate *validator.Validate
}

func NewMessageHandler(store MessageStore, up AttachmentUploader, res URLResolver, pusher MessagePusher, log *slog.Logger) *MessageHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MessageHandler{
		Store:    store,
		Uploader: up,
		Resolver: res,
		Pusher:   pusher,
		Log:      log,
		validate: validator.New(),
	}
}

type sendMessageRequest struct {
	SenderID   string `form:"senderId" validate:"required"`
	ReceiverID string `form:"receiverId" validate:"required"`
	Text       string `form:"text" validate:"omitempty,min=1,max=500"`
}

// SendMessage handles POST /messages (multipart when a file is attached).
// Order matters: the attachment is uploaded before the message row is
// written, so a failed upload never leaves a dangling image key. Push to the
// recipient is best-effort and never fails the request.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.Wrap(apperrors.ErrValidation, "malformed request body", err))
	}
	if err := h.validate.Struct(req); err != nil {
		return h.fail(c, apperrors.Wrap(apperrors.ErrValidation, "invalid request", err))
	}

	fileHeader, fErr := c.FormFile("file")
	if req.Text == "" && fErr != nil {
		return h.fail(c, apperrors.Validationf("message needs text or a file"))
	}

	ctx := c.Context()

	var imageKey string
	if fErr == nil {
		f, err := fileHeader.Open()
		if err != nil {
			return h.fail(c, apperrors.Wrap(apperrors.ErrUpload, "failed to open attachment", err))
		}
		defer f.Close()

		namespace := fmt.Sprintf("chat-%s-%s", req.SenderID, req.ReceiverID)
		imageKey, err = h.Uploader.Upload(ctx, namespace, req.SenderID, uploads.File{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Body:        f,
		})
		if err != nil {
			return h.fail(c, err)
		}
	}

	msg, err := h.Store.Create(ctx, req.SenderID, req.ReceiverID, req.Text, imageKey)
	if err != nil {
		return h.fail(c, err)
	}

	if msg.Image != "" {
		url, err := h.Resolver.Resolve(ctx, msg.Image)
		if err != nil {
			return h.fail(c, err)
		}
		msg.Image = url
	}

	h.Pusher.PushMessage(ctx, msg.ReceiverID, msg)

	return c.JSON(fiber.Map{"data": msg})
}

// GetConversation handles GET /conversation/:userA/:userB. Messages come back
// ascending by creation time with image keys pre-resolved to signed URLs.
func (h *MessageHandler) GetConversation(c *fiber.Ctx) error {
	userA := c.Params("userA")
	userB := c.Params("userB")
	if userA == "" || userB == "" {
		return h.fail(c, apperrors.Validationf("both participants are required"))
	}

	ctx := c.Context()

	messages, err := h.Store.Conversation(ctx, userA, userB)
	if err != nil {
		return h.fail(c, err)
	}
	for i := range messages {
		if messages[i].Image == "" {
			continue
		}
		url, err := h.Resolver.Resolve(ctx, messages[i].Image)
		if err != nil {
			return h.fail(c, err)
		}
		messages[i].Image = url
	}
	if messages == nil {
		messages = []models.Message{}
	}

	return c.JSON(fiber.Map{"data": messages})
}

func (h *MessageHandler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = fiber.StatusNotFound
	}
	if status >= 500 {
		h.Log.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
