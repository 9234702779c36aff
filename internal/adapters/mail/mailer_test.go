package mail

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/contactbook/backend/internal/infra/config"
)

func newTestMailer(t *testing.T, host string, port int) *SMTPMailer {
	t.Helper()
	m, err := NewSMTPMailer(&config.Config{
		SMTPHost:     host,
		SMTPPort:     port,
		MailFrom:     "noreply@contactbook.local",
		MailFromName: "Contact Book",
	})
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	return m
}

func TestSend_UnknownTemplate(t *testing.T) {
	m := newTestMailer(t, "localhost", 2525)

	err := m.Send(context.Background(), "user@example.com", "nope", nil)
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestSend_DeadlineBoundsDelivery(t *testing.T) {
	// a listener that accepts but never sends the SMTP greeting, so the
	// client blocks until the caller's deadline fires
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	m := newTestMailer(t, host, port)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = m.Send(ctx, "user@example.com", "verify_email", map[string]any{
		"username": "agent008", "token": "tok", "host": "http://localhost",
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Send ignored the deadline, took %v", elapsed)
	}
}
