package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// minSecretLen 過短的秘密值（例如預設 FTP 密碼 "1"）不做字面遮罩，否則會破壞一般訊息
const minSecretLen = 4

// Sanitizer 負責過濾日誌中的敏感資訊
//
// 三層處理：
//   - 規則：正規表示式套用在訊息與字串值上（password=、ftp://user:pass@ 等）
//   - 敏感鍵：password、token 等鍵的值一律遮罩
//   - 秘密值：執行時登錄的字面值（設定檔中的 FTP 密碼），出現在任何位置都會遮罩
type Sanitizer struct {
	mu      sync.RWMutex
	rules   []SanitizeRule
	keys    []string
	secrets []string
}

// SanitizeRule 單一過濾規則
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

var defaultSensitiveKeys = []string{"password", "passwd", "pwd", "token", "secret", "credential"}

// NewSanitizer 建立預設 sanitizer
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		rules: defaultSanitizeRules(),
		keys:  append([]string(nil), defaultSensitiveKeys...),
	}
}

func defaultSanitizeRules() []SanitizeRule {
	rule := func(pattern, replacement string) SanitizeRule {
		return SanitizeRule{Pattern: regexp.MustCompile(pattern), Replacement: replacement}
	}
	return []SanitizeRule{
		rule(`(?i)(password|passwd|pwd|token)=\S+`, "$1=***"),

		// FTP 帳密：URL 形式與 PASS 指令
		rule(`(?i)(ftps?://[^:/@\s]+):[^@\s]+@`, "$1:***@"),
		rule(`(?m)^PASS \S+`, "PASS ***"),

		// 本機使用者名稱（輸出目錄與狀態目錄常在家目錄下）
		rule(`(?i)[A-Z]:\\Users\\[^\\]+`, `***:\Users\***`),
		rule(`/home/[^/]+`, "/home/***"),
		rule(`/Users/[^/]+`, "/Users/***"),
	}
}

// Sanitize 對字串套用秘密值與所有規則
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sanitize(input)
}

func (s *Sanitizer) sanitize(input string) string {
	result := input
	for _, secret := range s.secrets {
		result = strings.ReplaceAll(result, secret, "***")
	}
	for _, rule := range s.rules {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// SanitizeArgs 處理 key-value 參數：敏感鍵的值遮罩，其他字串與 error 值套用規則
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}

		var value string
		switch v := result[i+1].(type) {
		case string:
			value = v
		case error:
			value = v.Error()
		default:
			// 其他型別（數字、時間）不含敏感資訊
			continue
		}

		if s.isSensitiveKey(key) {
			result[i+1] = s.maskValue(value)
		} else if clean := s.sanitize(value); clean != value {
			result[i+1] = clean
		}
	}

	return result
}

func (s *Sanitizer) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, k := range s.keys {
		if strings.Contains(lowerKey, k) {
			return true
		}
	}
	return false
}

// maskValue 遮蔽值，長值保留首尾各 1 字元
func (s *Sanitizer) maskValue(value string) string {
	switch {
	case len(value) <= 2:
		return "***"
	case len(value) <= 8:
		return value[:1] + "***"
	default:
		return value[:1] + "***" + value[len(value)-1:]
	}
}

// AddRule 新增自訂過濾規則
func (s *Sanitizer) AddRule(pattern string, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, SanitizeRule{Pattern: re, Replacement: replacement})
	return nil
}

// AddSensitiveKey 新增敏感鍵（子字串、不分大小寫）
func (s *Sanitizer) AddSensitiveKey(key string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
}

// AddSecret 登錄字面秘密值；短於 minSecretLen 的值會被忽略並回傳 false
func (s *Sanitizer) AddSecret(secret string) bool {
	if len(secret) < minSecretLen {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.secrets {
		if existing == secret {
			return true
		}
	}
	s.secrets = append(s.secrets, secret)
	return true
}
