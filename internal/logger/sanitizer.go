package logger

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// Sanitizer 遮罩日誌中的遠端憑證
//
// 訊息與字串參數套用 Rule 清單（URL 帳密、OAuth/S3 token、家目錄）；
// 敏感 key（password、secret_key、authorization…）的值整體遮罩，只保留
// 前兩個字元方便辨識是哪一組設定。
type Sanitizer struct {
	mu    sync.RWMutex
	rules []Rule
}

// Rule 一條具名的替換規則
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

func rule(name, pattern, replacement string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Replacement: replacement}
}

// sensitiveKeys 以子字串比對 (小寫)
var sensitiveKeys = []string{
	"password", "passwd",
	"secret", "token", "authorization", "cookie",
	"credential", "access_key", "api_key", "apikey",
}

// NewSanitizer 建立含預設規則的 sanitizer
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		rules: []Rule{
			// webdav / s3 endpoint 內嵌帳密
			rule("url-userinfo", `(?i)([a-z][a-z0-9+.-]*://)[^/\s:@]+:[^/\s@]+@`, "${1}***:***@"),
			rule("password-param", `(?i)\b(password|passwd|pwd)=[^\s&]+`, "${1}=***"),

			// Google Drive OAuth
			rule("oauth-param", `(?i)\b(access_token|refresh_token|token)=[^\s&]+`, "${1}=***"),
			rule("oauth-code", `([?&])code=[^\s&]+`, "${1}code=***"),
			rule("client-secret", `(?i)\bclient_secret=[^\s&]+`, "client_secret=***"),
			rule("google-access-token", `\bya29\.[\w.-]+`, "ya29.***"),
			rule("bearer", `(?i)\bbearer\s+\S+`, "bearer ***"),
			rule("basic-auth", `(?i)\bbasic\s+[A-Za-z0-9+/=]{8,}`, "basic ***"),

			// S3 / MinIO
			rule("s3-presign", `(?i)\b(X-Amz-Credential|X-Amz-Signature|X-Amz-Security-Token)=[^\s&]+`, "${1}=***"),
			rule("aws-access-key-id", `\b(AKIA|ASIA)[A-Z0-9]{16}\b`, "${1}***"),

			rule("home-dir", `(/home|/Users)/[^/\s]+`, "${1}/***"),
		},
	}
}

// Rules returns the names of the active rules in application order
func (s *Sanitizer) Rules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Sanitize applies every rule to the input
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apply(input)
}

func (s *Sanitizer) apply(input string) string {
	for _, r := range s.rules {
		input = r.Pattern.ReplaceAllString(input, r.Replacement)
	}
	return input
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Values of
// sensitive keys are masked; other string, error and Stringer values go
// through the rules. Time, level and source are left alone.
func (s *Sanitizer) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.SourceKey:
			return a
		}
	}

	a.Value = a.Value.Resolve()
	var text string
	switch a.Value.Kind() {
	case slog.KindString:
		text = a.Value.String()
	case slog.KindAny:
		var ok bool
		if text, ok = textOf(a.Value.Any()); !ok {
			return a
		}
	default:
		return a
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, maskValue(text))
	}
	return slog.String(a.Key, s.Sanitize(text))
}

func textOf(v any) (string, bool) {
	switch v := v.(type) {
	case error:
		return v.Error(), true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if strings.Contains(key, sk) {
			return true
		}
	}
	return false
}

// maskValue 保留前兩字元，短值完全遮罩
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:2] + "***"
}

// AddRule 新增自訂規則 (例如公司內部的分享連結格式)
func (s *Sanitizer) AddRule(name, pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern for rule %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{Name: name, Pattern: re, Replacement: replacement})
	return nil
}
