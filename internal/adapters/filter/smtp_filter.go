package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"go.uber.org/zap"
)

// HeaderNames names the headers added to relayed mail
type HeaderNames struct {
	Spam  string
	Score string
	Words string
}

// SMTPFilter implements an SMTP content filter that explains each message,
// annotates it with spam headers and relays it onwards
type SMTPFilter struct {
	service         *core.ExplainerService
	logger          *zap.Logger
	listenAddr      string
	server          *smtp.Server
	blockSpam       bool
	headers         HeaderNames
	relayAddr       string
	relayEnabled    bool
	readTimeout     time.Duration
	writeTimeout    time.Duration
	maxMessageBytes int64
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *core.ExplainerService,
	logger *zap.Logger,
	listenAddr string,
	blockSpam bool,
	headers HeaderNames,
	relayAddr string,
	relayEnabled bool,
	readTimeout time.Duration,
	writeTimeout time.Duration,
	maxMessageBytes int64,
) *SMTPFilter {
	return &SMTPFilter{
		service:         service,
		logger:          logger,
		listenAddr:      listenAddr,
		blockSpam:       blockSpam,
		headers:         headers,
		relayAddr:       relayAddr,
		relayEnabled:    relayEnabled,
		readTimeout:     readTimeout,
		writeTimeout:    writeTimeout,
		maxMessageBytes: maxMessageBytes,
	}
}

// Start starts the SMTP filter service
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = f.readTimeout
	f.server.WriteTimeout = f.writeTimeout
	f.server.MaxMessageBytes = f.maxMessageBytes
	f.server.MaxRecipients = 50

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessMessage explains a message with the configured defaults
func (f *SMTPFilter) ProcessMessage(ctx context.Context, msg *core.Message) (*core.ExplanationResult, error) {
	return f.service.Explain(ctx, msg, 0)
}

// annotate prepends the spam headers to a raw message, leaving the original
// headers and body untouched
func (f *SMTPFilter) annotate(raw []byte, result *core.ExplanationResult, analysisErr error) []byte {
	var out bytes.Buffer

	if analysisErr != nil {
		fmt.Fprintf(&out, "X-Spam-Analysis-Error: %s\r\n", sanitizeHeader(analysisErr.Error()))
	} else {
		fmt.Fprintf(&out, "%s: %t\r\n", f.headers.Spam, result.Prediction.IsSpam)
		fmt.Fprintf(&out, "%s: %.4f\r\n", f.headers.Score, result.Prediction.Probability)
		if words := explain.Words(result.Contributions); len(words) > 0 {
			fmt.Fprintf(&out, "%s: %s\r\n", f.headers.Words, sanitizeHeader(strings.Join(words, ", ")))
		}
	}

	out.Write(raw)
	return out.Bytes()
}

// sanitizeHeader keeps a header value on a single line
func sanitizeHeader(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// relay sends the processed message on to the next hop using go-smtp
func (f *SMTPFilter) relay(sender string, recipients []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", f.relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message has already been accepted
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data explains the message, then rejects or annotates and relays it
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	var result *core.ExplanationResult
	text, analysisErr := messageText(raw)
	if analysisErr == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		result, analysisErr = f.service.Explain(ctx, &core.Message{Sender: s.sender, Text: text}, 0)
		cancel()
	}

	if analysisErr != nil {
		// Mail is never lost because the explainer failed
		f.logger.Error("Failed to explain message",
			zap.Error(analysisErr),
			zap.String("sender", s.sender))
	} else if result.Prediction.IsSpam && f.blockSpam {
		f.logger.Info("Rejecting spam message",
			zap.String("from", s.sender),
			zap.Float64("probability", result.Prediction.Probability),
			zap.Strings("top_words", explain.Words(result.Contributions)))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as spam (probability: %.2f)", result.Prediction.Probability),
		}
	}

	annotated := f.annotate(raw, result, analysisErr)

	if !f.relayEnabled {
		f.logger.Warn("Relay disabled, annotated message dropped", zap.String("from", s.sender))
		return nil
	}

	if err := f.relay(s.sender, s.recipients, annotated); err != nil {
		f.logger.Error("Failed to relay message", zap.Error(err), zap.String("sender", s.sender))
		return err
	}

	if result != nil {
		f.logger.Info("Processed message",
			zap.String("from", s.sender),
			zap.Bool("is_spam", result.Prediction.IsSpam),
			zap.Float64("probability", result.Prediction.Probability),
			zap.String("model", result.ModelUsed))
	}

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
