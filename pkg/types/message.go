package types

import "fmt"

// MessageLevel grades a ValidationMessage.
type MessageLevel string

const (
	LevelError   MessageLevel = "ERROR"
	LevelWarning MessageLevel = "WARNING"
	LevelInfo    MessageLevel = "INFO"
)

// ValidationMessage is one load-time or run-time diagnostic, optionally
// scoped to a rule name. Bad rules and skipped files are reported this
// way instead of aborting the run.
type ValidationMessage struct {
	Level  MessageLevel
	Rule   string
	Detail string
}

// String renders the message for terminal display.
func (m ValidationMessage) String() string {
	if m.Rule != "" {
		return fmt.Sprintf("%s [%s]: %s", m.Level, m.Rule, m.Detail)
	}
	return fmt.Sprintf("%s: %s", m.Level, m.Detail)
}

// ErrorMessage builds an ERROR message scoped to a rule.
func ErrorMessage(rule, format string, args ...interface{}) ValidationMessage {
	return ValidationMessage{Level: LevelError, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// WarningMessage builds a WARNING message scoped to a rule (may be empty).
func WarningMessage(rule, format string, args ...interface{}) ValidationMessage {
	return ValidationMessage{Level: LevelWarning, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// InfoMessage builds an INFO message scoped to a rule (may be empty).
func InfoMessage(rule, format string, args ...interface{}) ValidationMessage {
	return ValidationMessage{Level: LevelInfo, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any message in the list is an ERROR.
func HasErrors(msgs []ValidationMessage) bool {
	for _, m := range msgs {
		if m.Level == LevelError {
			return true
		}
	}
	return false
}
