package notifications

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMMessenger delivers messages through Firebase Cloud Messaging.
type FCMMessenger struct {
	client *messaging.Client
}

// NewFCMMessenger initialises the Firebase app from a service account file.
// It is built once at startup and handed to the Dispatcher.
func NewFCMMessenger(ctx context.Context, credentialsFile, projectID string) (*FCMMessenger, error) {
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging client: %w", err)
	}
	return &FCMMessenger{client: client}, nil
}

func (m *FCMMessenger) Send(ctx context.Context, msg Message) (string, error) {
	return m.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
}
