package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordingSender struct {
	msgs []*EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg *EmailMessage) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestSendTemplateRendersReminder(t *testing.T) {
	sender := &recordingSender{}
	svc, err := NewService(sender)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.SendTemplate(context.Background(), "ada@example.com", "Ada", TemplateQuietBlockReminder, "Starts soon", ReminderData{
		Name:         "Ada",
		Title:        "Deep <work>",
		StartsAt:     "2026-10-19T10:00:00Z",
		EndsAt:       "2026-10-19T11:00:00Z",
		MinutesUntil: 10,
		DashboardURL: "http://localhost:3000/dashboard",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.msgs))
	}

	msg := sender.msgs[0]
	if !strings.Contains(msg.HTMLContent, "Deep &lt;work&gt;") {
		t.Fatal("expected escaped title in html body")
	}
	if !strings.Contains(msg.TextContent, `"Deep <work>" begins in about 10 minutes`) {
		t.Fatalf("unexpected text body: %q", msg.TextContent)
	}
}

func TestSendTemplatePropagatesTransportError(t *testing.T) {
	boom := errors.New("boom")
	svc, _ := NewService(&recordingSender{err: boom})

	err := svc.SendTemplate(context.Background(), "a@b.c", "", TemplateQuietBlockReminder, "s", ReminderData{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSendTemplateUnknownTemplate(t *testing.T) {
	svc, _ := NewService(&recordingSender{})
	if err := svc.SendTemplate(context.Background(), "a@b.c", "", "missing", "s", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestSendGridClientSend(t *testing.T) {
	var got SendGridRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewSendGridClient(SendGridConfig{APIKey: "key", FromEmail: "from@x.y", BaseURL: srv.URL + "/"})
	err := client.Send(context.Background(), &EmailMessage{To: "to@x.y", Subject: "hi", HTMLContent: "<p>x</p>", TextContent: "x"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(got.Content) != 2 || got.Content[0].Type != "text/plain" {
		t.Fatalf("unexpected content order: %+v", got.Content)
	}
	if got.Personalizations[0].To[0].Email != "to@x.y" {
		t.Fatalf("unexpected recipient: %+v", got.Personalizations)
	}
}

func TestSendGridClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors":[]}`))
	}))
	defer srv.Close()

	client := NewSendGridClient(SendGridConfig{APIKey: "key", BaseURL: srv.URL})
	err := client.Send(context.Background(), &EmailMessage{To: "to@x.y"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
}

func TestSendGridClientRequiresKey(t *testing.T) {
	client := NewSendGridClient(SendGridConfig{})
	if err := client.Send(context.Background(), &EmailMessage{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
