package smtp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	rmail "github.com/Rajat069/leetcode-reminder-bot/internal/mail"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// fakeServer is a minimal plaintext SMTP server that records one
// message per session.
type fakeServer struct {
	ln net.Listener

	mu       sync.Mutex
	from     string
	rcpt     []string
	messages [][]byte
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	tp := textproto.NewConn(conn)
	reply := func(line string) { _ = tp.PrintfLine("%s", line) }

	reply("220 localhost ESMTP fake")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.Fields(line + " x")[0])
		switch verb {
		case "EHLO", "HELO":
			reply("250-localhost")
			reply("250 8BITMIME")
		case "MAIL":
			s.mu.Lock()
			s.from = line
			s.mu.Unlock()
			reply("250 OK")
		case "RCPT":
			if strings.Contains(line, "reject@") {
				reply("550 mailbox unavailable")
				continue
			}
			s.mu.Lock()
			s.rcpt = append(s.rcpt, line)
			s.mu.Unlock()
			reply("250 OK")
		case "DATA":
			reply("354 go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.messages = append(s.messages, data)
			s.mu.Unlock()
			reply("250 queued")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func (s *fakeServer) Messages() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

func newTestMailer(t *testing.T, s *fakeServer) *Mailer {
	t.Helper()
	addr := s.ln.Addr().(*net.TCPAddr)
	m, err := New(Config{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		From:     "bot@example.com",
		Security: SecurityNone,
		Timeout:  5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestSend(t *testing.T) {
	t.Parallel()

	s := newFakeServer(t)
	m := newTestMailer(t, s)

	err := m.Send(context.Background(), rmail.Message{
		To:      "alice@example.com",
		Subject: rmail.SubjectSolved,
		HTML:    "<h1>Great Job</h1>",
		Text:    "Great Job",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	parsed, err := mail.ReadMessage(strings.NewReader(string(msgs[0])))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if from := parsed.Header.Get("From"); !strings.Contains(from, "LeetCode Reminder Bot") || !strings.Contains(from, "<bot@example.com>") {
		t.Errorf("From = %q", from)
	}
	dec := new(mime.WordDecoder)
	subject, _ := dec.DecodeHeader(parsed.Header.Get("Subject"))
	if subject != rmail.SubjectSolved {
		t.Errorf("Subject = %q, want %q", subject, rmail.SubjectSolved)
	}

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/alternative" {
		t.Fatalf("Content-Type = %q (%v)", mediaType, err)
	}
	mr := multipart.NewReader(parsed.Body, params["boundary"])
	var types []string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		types = append(types, p.Header.Get("Content-Type"))
		body, _ := io.ReadAll(p)
		if strings.HasPrefix(p.Header.Get("Content-Type"), "text/html") && !strings.Contains(string(body), "<h1>Great Job</h1>") {
			t.Errorf("html part = %q", body)
		}
	}
	if len(types) != 2 || !strings.HasPrefix(types[0], "text/plain") || !strings.HasPrefix(types[1], "text/html") {
		t.Errorf("parts = %v", types)
	}
}

func TestSend_RecipientRejected(t *testing.T) {
	t.Parallel()

	s := newFakeServer(t)
	m := newTestMailer(t, s)

	err := m.Send(context.Background(), rmail.Message{To: "reject@example.com", Subject: "x", HTML: "x"})
	if !errors.Is(err, potd.ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
	if len(s.Messages()) != 0 {
		t.Error("no message should be accepted")
	}
}

func TestSend_InvalidRecipient(t *testing.T) {
	t.Parallel()

	s := newFakeServer(t)
	m := newTestMailer(t, s)

	if err := m.Send(context.Background(), rmail.Message{To: "not an address"}); !errors.Is(err, potd.ErrDelivery) {
		t.Errorf("err = %v, want ErrDelivery", err)
	}
}

func TestSend_Unreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	m, err := New(Config{Host: "127.0.0.1", Port: port, From: "bot@example.com", Security: SecurityNone, Timeout: time.Second}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Send(context.Background(), rmail.Message{To: "a@example.com"}); !errors.Is(err, potd.ErrDelivery) {
		t.Errorf("err = %v, want ErrDelivery", err)
	}
}

func TestSend_StartTLSRequired(t *testing.T) {
	t.Parallel()

	s := newFakeServer(t)
	addr := s.ln.Addr().(*net.TCPAddr)
	m, err := New(Config{Host: "127.0.0.1", Port: addr.Port, From: "bot@example.com", Timeout: time.Second}, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = m.Send(context.Background(), rmail.Message{To: "a@example.com"})
	if err == nil || !strings.Contains(err.Error(), "STARTTLS") {
		t.Errorf("err = %v, want STARTTLS failure", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"gmail defaults", Config{Username: "me@gmail.com", Password: "app-pass"}, true},
		{"no sender", Config{}, false},
		{"password without user", Config{From: "bot@example.com", Password: "x"}, false},
		{"bad security", Config{From: "bot@example.com", Security: "ssl3"}, false},
		{"bad from", Config{From: "nope"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tt.cfg
			cfg.Defaults()
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestBuildMessage_Headers(t *testing.T) {
	t.Parallel()

	from := mail.Address{Name: "LeetCode Reminder Bot", Address: "bot@example.com"}
	raw, err := buildMessage(from, rmail.Message{To: "a@example.com", Subject: "plain", HTML: "<p>hi</p>"}, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	r := textproto.NewReader(bufio.NewReader(strings.NewReader(string(raw))))
	h, err := r.ReadMIMEHeader()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(h.Get("Message-Id"), "@example.com>") {
		t.Errorf("Message-ID = %q", h.Get("Message-Id"))
	}
	if h.Get("Date") != "Tue, 10 Mar 2026 00:00:00 +0000" {
		t.Errorf("Date = %q", h.Get("Date"))
	}
	if !strings.Contains(string(raw), "requires HTML support") {
		t.Error("empty text part should get the fallback body")
	}
}
