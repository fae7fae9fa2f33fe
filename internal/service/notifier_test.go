package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studio-attendance/internal/service"
)

type fakeSender struct {
	chatID int64
	text   string
	err    error
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) error {
	f.chatID = chatID
	f.text = text
	return f.err
}

func TestChatNotifierSendsFormattedText(t *testing.T) {
	sender := &fakeSender{}
	notifier := service.NewChatNotifier(sender, -1001)
	student := uint(42)

	err := notifier.Send(context.Background(), service.Notification{
		Title:        "Скоро начало",
		Body:         "Начало в 09:00",
		TargetUserID: &student,
		Importance:   service.ImportanceHigh,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sender.chatID != -1001 {
		t.Fatalf("chat id = %d", sender.chatID)
	}
	for _, part := range []string{"❗", "*Скоро начало*", "Начало в 09:00", "Участник: 42"} {
		if !strings.Contains(sender.text, part) {
			t.Fatalf("text %q does not contain %q", sender.text, part)
		}
	}
}

func TestChatNotifierWrapsSenderError(t *testing.T) {
	failure := errors.New("network down")
	notifier := service.NewChatNotifier(&fakeSender{err: failure}, 1)

	err := notifier.Send(context.Background(), service.Notification{Title: "x"})
	if !errors.Is(err, failure) {
		t.Fatalf("error = %v, want wrapped sender error", err)
	}
}

func TestErrorKindSeparatesSystemErrors(t *testing.T) {
	sys := &service.SystemError{Op: "save", Err: errors.New("disk full")}
	if service.IsBusinessError(sys) {
		t.Fatal("system error classified as business error")
	}
	if got := service.ErrorKind(sys); got != "system" {
		t.Fatalf("ErrorKind(system) = %q", got)
	}
	transition := &service.TransitionError{From: "leave", To: "present"}
	if got := service.ErrorKind(transition); got != "invalid_transition" {
		t.Fatalf("ErrorKind(transition) = %q", got)
	}
	if !strings.Contains(transition.Error(), "leave -> present") {
		t.Fatalf("transition message %q lacks both states", transition.Error())
	}
}
