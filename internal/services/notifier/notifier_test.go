package notifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libsmtp "github.com/otcpublishing/writing-detector/internal/lib/smtp"
	"github.com/otcpublishing/writing-detector/internal/models"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

type fakeWriteCloser struct {
	buf *bytes.Buffer
}

func (f *fakeWriteCloser) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *fakeWriteCloser) Close() error                { return nil }

type fakeClient struct {
	from  string
	rcpts []string
	body  *bytes.Buffer
}

func (f *fakeClient) Mail(from string) error { f.from = from; return nil }
func (f *fakeClient) Rcpt(to string) error   { f.rcpts = append(f.rcpts, to); return nil }
func (f *fakeClient) Data() (io.WriteCloser, error) {
	return &fakeWriteCloser{buf: f.body}, nil
}
func (f *fakeClient) Quit() error  { return nil }
func (f *fakeClient) Close() error { return nil }

type fakeTransport struct {
	client     *fakeClient
	connectErr error
}

func (f *fakeTransport) Connect() (libsmtp.Client, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return f.client, nil
}

func (f *fakeTransport) GetSMTPUser() string { return "noreply@example.com" }

func testUser() models.User {
	return models.User{
		UUID:         "uid-1",
		Email:        "new@example.com",
		TrialStart:   time.Now(),
		TrialExpires: time.Now().AddDate(0, 0, 3),
	}
}

func TestSendWelcomeEmail(t *testing.T) {
	client := &fakeClient{body: &bytes.Buffer{}}
	transport := &fakeTransport{client: client}
	svc := New(transport, "AI Writing Detector", slog.New(discardHandler{}))

	err := svc.SendWelcomeEmail(testUser())
	require.NoError(t, err)

	assert.Equal(t, "noreply@example.com", client.from)
	assert.Equal(t, []string{"new@example.com"}, client.rcpts)

	msg := client.body.String()
	assert.Contains(t, msg, "Subject: Welcome to AI Writing Detector")
	assert.Contains(t, msg, "Content-Type: multipart/alternative")
	assert.Contains(t, msg, "free trial")
	assert.Contains(t, msg, "<html>")
}

func TestSendWelcomeEmail_ConnectError(t *testing.T) {
	transport := &fakeTransport{connectErr: errors.New("dial tcp: refused")}
	svc := New(transport, "AI Writing Detector", slog.New(discardHandler{}))

	err := svc.SendWelcomeEmail(testUser())
	require.Error(t, err)
}
