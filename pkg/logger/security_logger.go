package logger

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.=]+`)
	secretPattern = regexp.MustCompile(`(?i)(token|password|secret)("?\s*[=:]\s*"?)[^\s",}]+`)
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// SecurityLogger logs with credentials, emails and endpoints masked.
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger wraps an existing logger.
func NewSecurityLogger(base *Logger) *SecurityLogger {
	if base == nil {
		base = GetLogger()
	}
	return &SecurityLogger{Logger: base}
}

// Fingerprint returns the first 8 hex chars of the sha256 of data.
func Fingerprint(data string) string {
	if data == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum[:4])
}

// MaskToken replaces a token with a short fingerprint.
func (sl *SecurityLogger) MaskToken(token string) string {
	if token == "" {
		return ""
	}
	return "token#" + Fingerprint(token)
}

// MaskEmail keeps the first character of the local part and the domain.
func (sl *SecurityLogger) MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskIdentifier masks an email or username used to log in.
func (sl *SecurityLogger) MaskIdentifier(identifier string) string {
	if strings.Contains(identifier, "@") {
		return sl.MaskEmail(identifier)
	}
	if len(identifier) <= 2 {
		return "***"
	}
	return identifier[:2] + "***"
}

// MaskAPIEndpoint keeps the host and hides the path.
func (sl *SecurityLogger) MaskAPIEndpoint(apiURL string) string {
	if apiURL == "" {
		return ""
	}
	parsedURL, err := url.Parse(apiURL)
	if err != nil || parsedURL.Host == "" {
		return "api-endpoint#" + Fingerprint(apiURL)
	}
	return fmt.Sprintf("%s/api#%s", parsedURL.Host, Fingerprint(apiURL))
}

// MaskLogMessage strips bearer tokens, inline secrets and emails from free text.
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := bearerPattern.ReplaceAllString(message, "Bearer ***")
	masked = secretPattern.ReplaceAllString(masked, "${1}${2}***")
	return emailPattern.ReplaceAllStringFunc(masked, sl.MaskEmail)
}

// MaskSensitiveData masks values whose keys look sensitive.
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))
	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)
		switch {
		case !isString:
			masked[key] = value
		case strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "authorization"):
			masked[key] = sl.MaskToken(str)
		case strings.Contains(lowerKey, "password") || strings.Contains(lowerKey, "secret"):
			masked[key] = "***"
		case strings.Contains(lowerKey, "email"):
			masked[key] = sl.MaskEmail(str)
		case strings.Contains(lowerKey, "identifier") || strings.Contains(lowerKey, "username"):
			masked[key] = sl.MaskIdentifier(str)
		case strings.Contains(lowerKey, "url") || strings.Contains(lowerKey, "endpoint"):
			masked[key] = sl.MaskAPIEndpoint(str)
		default:
			masked[key] = sl.MaskLogMessage(str)
		}
	}
	return masked
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
}

// SafeWarn logs warning with automatic sensitive data masking
func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Warn(sl.MaskLogMessage(msg))
}

// SafeDebug logs debug with automatic sensitive data masking
func (sl *SecurityLogger) SafeDebug(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Debug(sl.MaskLogMessage(msg))
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	masked := sl.MaskSensitiveData(fields)
	if err != nil {
		masked["error"] = sl.MaskLogMessage(err.Error())
	}
	sl.Logger.WithFields(masked).Error(sl.MaskLogMessage(msg))
}
