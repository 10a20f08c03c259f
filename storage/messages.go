package storage

import (
	"context"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/slotflow/chat-server/apperrors"
	"github.com/slotflow/chat-server/models"
)

// MessageStore owns the messages collection. Messages are immutable: create
// and read only.
type MessageStore struct {
	coll     *mongo.Collection
	validate *validator.Validate
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{
		coll:     db.Collection(messagesCollection),
		validate: newMessageValidator(),
	}
}

// textCharsRe limits message text to letters, digits, punctuation and spaces.
var textCharsRe = regexp.MustCompile(`^[\p{L}\p{N}\p{P}\p{Zs}]+$`)

func newMessageValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("msgchars", func(fl validator.FieldLevel) bool {
		return textCharsRe.MatchString(fl.Field().String())
	})
	return v
}

type createMessageInput struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required"`
	Text       string `validate:"omitempty,min=1,max=500,msgchars"`
}

// Create persists a message with a server-assigned id and timestamps.
// At least one of text/imageKey must be present.
func (s *MessageStore) Create(ctx context.Context, senderID, receiverID, text, imageKey string) (models.Message, error) {
	if text == "" && imageKey == "" {
		return models.Message{}, apperrors.Validationf("message needs text or an image")
	}
	in := createMessageInput{SenderID: senderID, ReceiverID: receiverID, Text: text}
	if err := s.validate.Struct(in); err != nil {
		return models.Message{}, apperrors.Wrap(apperrors.ErrValidation, "invalid message", err)
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
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return models.Message{}, apperrors.Wrap(apperrors.ErrStorage, "failed to insert message", err)
	}
	return msg, nil
}

// Conversation returns every message exchanged between the two users in
// either direction, ascending by creation time with ties broken by id.
func (s *MessageStore) Conversation(ctx context.Context, userA, userB string) ([]models.Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"senderId": userA, "receiverId": userB},
			bson.M{"senderId": userB, "receiverId": userA},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to query conversation", err)
	}
	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to decode conversation", err)
	}
	return messages, nil
}
