package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a message sender is trusted. Entries are either
// exact sender identifiers (phone numbers, short codes, alphanumeric sender
// IDs) or "@domain" / "domain" entries matched against email senders.
type Checker struct {
	senders map[string]struct{}
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new trusted sender checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	c := &Checker{
		senders: make(map[string]struct{}),
		logger:  logger,
	}

	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, "@") {
			c.domains = append(c.domains, strings.TrimPrefix(entry, "@"))
			continue
		}
		if strings.Contains(entry, ".") && !strings.Contains(entry, "@") {
			c.domains = append(c.domains, entry)
			continue
		}
		c.senders[normalizeSender(entry)] = struct{}{}
	}

	if (len(c.senders) > 0 || len(c.domains) > 0) && logger != nil {
		logger.Info("Initialized trusted sender checker",
			zap.Int("senders", len(c.senders)),
			zap.Strings("domains", c.domains))
	}

	return c
}

// IsWhitelisted checks if the sender is trusted
func (c *Checker) IsWhitelisted(sender string) bool {
	sender = strings.ToLower(strings.TrimSpace(sender))
	if sender == "" {
		return false
	}

	if _, ok := c.senders[normalizeSender(sender)]; ok {
		c.debug("Sender is trusted", sender)
		return true
	}

	parts := strings.Split(sender, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.TrimSuffix(parts[1], ">")

	for _, trusted := range c.domains {
		if trusted == domain {
			c.debug("Sender domain is trusted", sender)
			return true
		}
	}

	return false
}

func (c *Checker) debug(msg, sender string) {
	if c.logger != nil {
		c.logger.Debug(msg, zap.String("sender", sender))
	}
}

// normalizeSender drops the formatting characters phone numbers are often
// written with. Email addresses are matched exactly.
func normalizeSender(s string) string {
	if strings.Contains(s, "@") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
}
