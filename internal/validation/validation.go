// Package validation implements the input gate applied to every chat request
// before routing: structural validation of the message and identifiers,
// injection/abuse detection, and markup sanitization. All functions are pure
// and perform no I/O.
package validation

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxMessageLength is the hard cap on message size, in characters.
	MaxMessageLength = 10000

	// suspicionLength short-circuits injection detection: anything longer
	// is flagged regardless of content.
	suspicionLength = 5000
)

// Validation error codes surfaced to callers.
const (
	CodeEmptyMessage          = "EMPTY_MESSAGE"
	CodeMessageTooLong        = "MESSAGE_TOO_LONG"
	CodeInvalidUserID         = "INVALID_USER_ID"
	CodeInvalidConversationID = "INVALID_CONVERSATION_ID"
	CodeSecurityViolation     = "SECURITY_VIOLATION"
)

// Error is a user-correctable validation failure. The Message is safe to
// return to the caller verbatim.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	userIDRegex         = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
	conversationIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

	controlCharRegex = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	nonWordRegex     = regexp.MustCompile(`[^\w\s]`)
	base64RunRegex   = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)

	// strictPolicy strips every tag and attribute; no markup is permitted
	// in chat input.
	strictPolicy = bluemonday.StrictPolicy()
)

// injectionPattern pairs a pattern class (logged internally, never returned
// to the caller) with its compiled expression.
type injectionPattern struct {
	class string
	re    *regexp.Regexp
}

var injectionPatterns = compileInjectionPatterns()

func compileInjectionPatterns() []injectionPattern {
	classes := map[string][]string{
		"instruction_override": {
			`ignore\s+previous\s+instructions`,
			`forget\s+everything`,
			`disregard\s+all\s+previous`,
			`override\s+system`,
			`new\s+instructions`,
		},
		"role_manipulation": {
			`system\s*:`,
			`assistant\s*:`,
			`human\s*:`,
			`user\s*:`,
			`ai\s*:`,
			`you\s+are\s+now`,
			`act\s+as\s+if`,
			`pretend\s+to\s+be`,
		},
		"code_injection": {
			`<\s*script\s*>`,
			`javascript\s*:`,
			`eval\s*\(`,
			`exec\s*\(`,
			`function\s*\(`,
			`<\s*iframe`,
			`<\s*object`,
			`<\s*embed`,
		},
		"prompt_breaking": {
			"```" + `\s*system`,
			"```" + `\s*assistant`,
			`---\s*system`,
			`###\s*system`,
			`\[\s*system\s*\]`,
			`\(\s*system\s*\)`,
		},
		"exfiltration": {
			`show\s+me\s+your\s+prompt`,
			`what\s+are\s+your\s+instructions`,
			`reveal\s+your\s+system`,
			`display\s+your\s+rules`,
		},
		"jailbreak": {
			`developer\s+mode`,
			`debug\s+mode`,
			`admin\s+mode`,
			`god\s+mode`,
			`unrestricted\s+mode`,
		},
	}

	var patterns []injectionPattern
	for class, exprs := range classes {
		for _, expr := range exprs {
			patterns = append(patterns, injectionPattern{
				class: class,
				re:    regexp.MustCompile(`(?i)` + expr),
			})
		}
	}
	return patterns
}

// ValidateUserID reports whether id is a well-formed user identifier:
// alphanumeric with optional hyphens/underscores, 1-50 characters.
func ValidateUserID(id string) bool {
	return userIDRegex.MatchString(id)
}

// ValidateConversationID reports whether id is a well-formed conversation
// identifier: alphanumeric with optional hyphens/underscores, 1-100 characters.
func ValidateConversationID(id string) bool {
	return conversationIDRegex.MatchString(id)
}

// DetectInjection reports whether text matches any known injection or abuse
// pattern. The returned reason identifies the matched class for internal
// logging only; it must never be surfaced to the caller.
func DetectInjection(text string) (bool, string) {
	if utf8.RuneCountInString(text) > suspicionLength {
		return true, "oversized_message"
	}

	normalized := whitespaceRegex.ReplaceAllString(strings.ToLower(text), " ")
	normalized = strings.TrimSpace(normalized)

	for _, p := range injectionPatterns {
		if p.re.MatchString(normalized) {
			return true, p.class
		}
	}

	// Excessive special characters suggest obfuscation.
	if len(text) > 0 {
		special := len(nonWordRegex.FindAllString(text, -1))
		if float64(special)/float64(len(text)) > 0.3 {
			return true, "special_char_ratio"
		}
	}

	// Heavily repeated tokens suggest prompt stuffing. Only tokens longer
	// than 3 characters count, and only for messages with more than 10.
	words := strings.Fields(normalized)
	if len(words) > 10 {
		counts := make(map[string]int)
		maxCount := 0
		for _, w := range words {
			if len(w) > 3 {
				counts[w]++
				if counts[w] > maxCount {
					maxCount = counts[w]
				}
			}
		}
		if float64(maxCount) > float64(len(words))*0.2 {
			return true, "token_repetition"
		}
	}

	// Long base64-shaped runs suggest an encoded payload.
	if base64RunRegex.MatchString(text) {
		return true, "base64_payload"
	}

	return false, ""
}

// sanitizeOnce applies a single pass of the sanitization pipeline: strip all
// markup, decode entities, drop control characters, collapse whitespace.
func sanitizeOnce(text string) string {
	text = strictPolicy.Sanitize(text)
	text = html.UnescapeString(text)
	text = controlCharRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Sanitize strips markup, entities, control characters, and redundant
// whitespace from text. Entity decoding can expose new markup, so the pass
// is iterated until the output is a fixed point: Sanitize(Sanitize(x)) is
// always equal to Sanitize(x).
func Sanitize(text string) string {
	for range 10 {
		next := sanitizeOnce(text)
		if next == text {
			return text
		}
		text = next
	}
	return text
}

// ValidateMessage checks the structural constraints on message content.
// It does not run injection detection; see DetectInjection.
func ValidateMessage(content string) *Error {
	if strings.TrimSpace(content) == "" {
		return &Error{Code: CodeEmptyMessage, Message: "message cannot be empty"}
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return &Error{
			Code:    CodeMessageTooLong,
			Message: fmt.Sprintf("message too long, maximum length is %d characters", MaxMessageLength),
		}
	}
	return nil
}

// ValidateRequest validates all chat request fields: message structure,
// injection detection, and identifier formats. It returns the first failure
// with a caller-safe message; the injection reason is discarded here and
// must be re-derived by callers that want to log it.
func ValidateRequest(message, userID, conversationID string) *Error {
	if err := ValidateMessage(message); err != nil {
		return err
	}
	if flagged, _ := DetectInjection(message); flagged {
		return &Error{
			Code:    CodeSecurityViolation,
			Message: "potentially malicious content detected",
		}
	}
	if !ValidateUserID(userID) {
		return &Error{Code: CodeInvalidUserID, Message: "invalid user ID format"}
	}
	if !ValidateConversationID(conversationID) {
		return &Error{Code: CodeInvalidConversationID, Message: "invalid conversation ID format"}
	}
	return nil
}
