package messaging

import (
	"context"
	"fmt"
	"os"
	"strconv"

	firebase "firebase.google.com/go/v4"
	fcm "firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMSender delivers envelopes to real devices through Firebase Cloud
// Messaging. Only addressed message envelopes can be sent this way.
type FCMSender struct {
	client *fcm.Client
}

func NewFCMSender(ctx context.Context, credentialsPath string) (*FCMSender, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, env Envelope) error {
	msg, err := ToFCM(env)
	if err != nil {
		return err
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending fcm message: %w", err)
	}
	return nil
}

// ToFCM maps an envelope onto an FCM message. Background envelopes become
// data-only messages.
func ToFCM(env Envelope) (*fcm.Message, error) {
	if env.Kind != KindMessage && env.Kind != KindBackground {
		return nil, fmt.Errorf("%s envelopes cannot be sent through fcm", env.Kind)
	}
	if env.To == "" {
		return nil, fmt.Errorf("fcm requires a device token")
	}
	if env.Message == nil {
		return nil, fmt.Errorf("%s envelope without message", env.Kind)
	}
	data := make(map[string]string, len(env.Message.Data)+2)
	for k, v := range env.Message.Data {
		data[k] = v
	}
	data["id"] = env.Message.ID
	if !env.Message.SentAt.IsZero() {
		data["sentAt"] = strconv.FormatInt(env.Message.SentAt.UnixMilli(), 10)
	}
	msg := &fcm.Message{
		Token: env.To,
		Data:  data,
	}
	if env.Kind == KindMessage {
		msg.Notification = &fcm.Notification{
			Title: env.Message.Title,
			Body:  env.Message.Body,
		}
	}
	return msg, nil
}
