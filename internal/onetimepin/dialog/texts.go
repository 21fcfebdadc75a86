package dialog

import (
	"strconv"
	"strings"
)

// TextKey names a user-facing text.
type TextKey string

const (
	TextCountdown          TextKey = "countdown"
	TextExpired            TextKey = "expired"
	TextSent               TextKey = "sent"
	TextInvalidPin         TextKey = "invalid_pin"
	TextValidated          TextKey = "validated"
	TextInputCheckedErrors TextKey = "input_checked_with_errors"
	TextErrorOccurred      TextKey = "error_occurred"
	TextSocketTimeout      TextKey = "socket_timeout"
)

// Texts resolves a key to display text, substituting {0}, {1}, ... with args.
type Texts interface {
	Text(key TextKey, args ...string) string
}

// DefaultTexts are the English templates.
var DefaultTexts = map[TextKey]string{
	TextCountdown:          "Enter in the next {0} seconds...",
	TextExpired:            "One-time pin expired, please request a new one",
	TextSent:               "One-time pin sent successfully to {0}",
	TextInvalidPin:         "Invalid one-time pin entered, please try again",
	TextValidated:          "One-time pin validated successfully",
	TextInputCheckedErrors: "Please check your input, it contains errors",
	TextErrorOccurred:      "An error occurred",
	TextSocketTimeout:      "The service took too long to respond, please try again",
}

// Catalog is a flat template map with English fallbacks.
type Catalog struct {
	templates map[TextKey]string
}

// NewCatalog returns DefaultTexts with overrides applied. Unknown keys are kept
// so a deployment can reword any text.
func NewCatalog(overrides map[string]string) *Catalog {
	templates := make(map[TextKey]string, len(DefaultTexts)+len(overrides))
	for k, v := range DefaultTexts {
		templates[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) != "" {
			templates[TextKey(k)] = v
		}
	}
	return &Catalog{templates: templates}
}

// Text implements Texts. A missing key renders as the key itself.
func (c *Catalog) Text(key TextKey, args ...string) string {
	tpl, ok := c.templates[key]
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tpl
	}

	pairs := make([]string, 0, len(args)*2)
	for i, arg := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", arg)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
