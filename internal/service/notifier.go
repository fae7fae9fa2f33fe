package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceNormal Importance = "normal"
	ImportanceHigh   Importance = "high"
)

// Notification уведомление для участника или общего чата (TargetUserID == nil)
type Notification struct {
	Title        string
	Body         string
	TargetUserID *uint
	Importance   Importance
}

// Notifier доставка уведомлений; ошибки доставки только логируются вызывающей стороной
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// LogNotifier пишет уведомления в лог, используется без токена бота
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: newLogger()}
}

func (n *LogNotifier) Send(_ context.Context, notification Notification) error {
	fields := logrus.Fields{
		"title":      notification.Title,
		"importance": notification.Importance,
	}
	if notification.TargetUserID != nil {
		fields["target_user_id"] = *notification.TargetUserID
	}
	n.logger.WithFields(fields).Info(notification.Body)
	return nil
}

// MessageSender отправка текста в чат (pkg/telegram.Client)
type MessageSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// ChatNotifier отправляет уведомления в один служебный чат
type ChatNotifier struct {
	sender MessageSender
	chatID int64
}

func NewChatNotifier(sender MessageSender, chatID int64) *ChatNotifier {
	return &ChatNotifier{sender: sender, chatID: chatID}
}

func (n *ChatNotifier) Send(ctx context.Context, notification Notification) error {
	if err := n.sender.SendText(ctx, n.chatID, FormatNotification(notification)); err != nil {
		return fmt.Errorf("send notification to chat %d: %w", n.chatID, err)
	}
	return nil
}

// FormatNotification текст сообщения в формате Markdown
func FormatNotification(n Notification) string {
	var b strings.Builder
	if n.Importance == ImportanceHigh {
		b.WriteString("❗ ")
	} else {
		b.WriteString("🔔 ")
	}
	b.WriteString("*")
	b.WriteString(n.Title)
	b.WriteString("*")
	if n.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(n.Body)
	}
	if n.TargetUserID != nil {
		fmt.Fprintf(&b, "\n\nУчастник: %d", *n.TargetUserID)
	}
	return b.String()
}
