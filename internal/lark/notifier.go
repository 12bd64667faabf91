package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

const msgTypeText = "text"

// MessageSender is the part of MessageAPI the notifier needs
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Notifier delivers workflow notifications to the group chat of their target role
type Notifier struct {
	messages    MessageSender
	roleChats   map[string]string
	defaultChat string
	baseURL     string
	logger      *zap.Logger
}

// NewNotifier creates a notifier. baseURL prefixes notification action links.
func NewNotifier(messages MessageSender, cfg Config, baseURL string, logger *zap.Logger) *Notifier {
	return &Notifier{
		messages:    messages,
		roleChats:   cfg.RoleChats,
		defaultChat: cfg.DefaultChat,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// Send posts n as a text message. Notifications with no routable chat are
// skipped; the in-app feed still carries them.
func (n *Notifier) Send(ctx context.Context, notification entity.Notification) error {
	chatID := n.chatFor(notification.TargetRole)
	if chatID == "" {
		n.logger.Debug("No chat configured for notification",
			zap.String("notification_id", notification.ID),
			zap.String("target_role", notification.TargetRole))
		return nil
	}

	content, err := textContent(notification, n.baseURL)
	if err != nil {
		return err
	}

	if _, err := n.messages.SendMessage(ctx, ReceiveIDChat, chatID, msgTypeText, content); err != nil {
		return fmt.Errorf("lark notification %s: %w", notification.ID, err)
	}
	return nil
}

func (n *Notifier) chatFor(role string) string {
	if chat, ok := n.roleChats[role]; ok && chat != "" {
		return chat
	}
	return n.defaultChat
}

func textContent(notification entity.Notification, baseURL string) (string, error) {
	text := fmt.Sprintf("[%s] %s", notification.Type, notification.Message)
	if notification.ActionLink != "" {
		text += "\n" + baseURL + notification.ActionLink
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("encode message content: %w", err)
	}
	return string(body), nil
}
