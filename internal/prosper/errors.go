package prosper

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthentication 表示 OAuth 令牌获取失败。
	ErrAuthentication = errors.New("prosper authentication failed")
	// ErrDecode 表示响应体无法解析为预期结构。
	ErrDecode = errors.New("prosper response decode failed")
)

// UpstreamError 描述一次平台调用失败，调用方负责告警。
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("prosper %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("prosper %s: status %d: %s", e.Op, e.StatusCode, truncate(e.Body, 256))
	default:
		return fmt.Sprintf("prosper %s: %v", e.Op, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// isAuthFailure 判断错误是否为令牌获取失败、令牌过期或无权限。
func isAuthFailure(err error) bool {
	if errors.Is(err, ErrAuthentication) {
		return true
	}
	var upstream *UpstreamError
	return errors.As(err, &upstream) && isAuthStatus(upstream.StatusCode)
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
