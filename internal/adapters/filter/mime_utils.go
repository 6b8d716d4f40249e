package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// wordDecoder decodes RFC 2047 encoded words in any charset x/text knows
var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeEncodedHeader decodes an RFC 2047 header value
func decodeEncodedHeader(value string) (string, error) {
	return wordDecoder.DecodeHeader(value)
}

// decodePart converts a text part to UTF-8 according to its charset parameter
func decodePart(r io.Reader, params map[string]string) ([]byte, error) {
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return io.ReadAll(r)
	}
	decoded, err := charsetReader(charset, r)
	if err != nil {
		return io.ReadAll(r)
	}
	return io.ReadAll(decoded)
}

// transferDecoder undoes a Content-Transfer-Encoding. Identity encodings
// and unknown values pass the body through untouched.
func transferDecoder(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &base64Cleaner{r: r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// base64Cleaner drops line breaks and other whitespace the base64 decoder rejects
type base64Cleaner struct {
	r io.Reader
}

func (c *base64Cleaner) Read(p []byte) (int, error) {
	for {
		n, err := c.r.Read(p)
		kept := 0
		for _, b := range p[:n] {
			switch b {
			case '\r', '\n', ' ', '\t':
				continue
			}
			p[kept] = b
			kept++
		}
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}

// textMediaType parses a Content-Type header. An absent header means
// text/plain in US-ASCII.
func textMediaType(header string) (string, map[string]string, error) {
	if strings.TrimSpace(header) == "" {
		return "text/plain", map[string]string{}, nil
	}
	return mime.ParseMediaType(header)
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages only text/plain parts are kept.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	mediaType, params, err := textMediaType(msg.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		body, err := decodePart(transferDecoder(msg.Body, msg.Header.Get("Content-Transfer-Encoding")), params)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	return extractMultipart(multipart.NewReader(msg.Body, boundary))
}

func extractMultipart(mr *multipart.Reader) (string, error) {
	var textContent bytes.Buffer
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep what was read before the malformed part
			if textContent.Len() > 0 {
				return textContent.String(), nil
			}
			return "", fmt.Errorf("failed to read multipart body: %w", err)
		}

		mediaType, params, err := textMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}

		switch {
		case mediaType == "text/plain":
			// multipart.Reader already strips quoted-printable, so only
			// base64 is left to undo here
			partBytes, err := decodePart(transferDecoder(part, part.Header.Get("Content-Transfer-Encoding")), params)
			if err != nil {
				continue
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		case strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "":
			nested, err := extractMultipart(multipart.NewReader(part, params["boundary"]))
			if err == nil && nested != "" {
				textContent.WriteString(nested)
			}
		}
		// Attachments and other parts are skipped
	}

	return textContent.String(), nil
}

// messageText parses a raw RFC 5322 message and returns the text used for
// classification: the decoded subject followed by the plain text body
func messageText(raw []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse email message: %w", err)
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return "", fmt.Errorf("failed to extract text content: %w", err)
	}

	return strings.TrimSpace(subject + "\n" + body), nil
}
