package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	sessionCookieName = "workbridge_session"
	minSecretLen      = 32
)

var (
	ErrSessionMalformed = errors.New("auth: malformed session token")
	ErrSessionSignature = errors.New("auth: invalid session signature")
	ErrSessionExpired   = errors.New("auth: session expired")
)

// テストで差し替える
var sessionNow = time.Now

// CreateSessionToken は "<base64 userID>.<有効期限 unix>.<署名>" 形式のトークンを生成する
func CreateSessionToken(userID string, ttl time.Duration, secret []byte) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(userID)) + "." +
		strconv.FormatInt(sessionNow().Add(ttl).Unix(), 10)
	return payload + "." + sign(payload, secret)
}

// VerifySessionToken は署名と有効期限を検証しユーザーIDを返す
func VerifySessionToken(token string, secret []byte) (string, error) {
	i := strings.LastIndexByte(token, '.')
	if i < 0 {
		return "", ErrSessionMalformed
	}
	payload, sig := token[:i], token[i+1:]
	if !hmac.Equal([]byte(sign(payload, secret)), []byte(sig)) {
		return "", ErrSessionSignature
	}

	encodedID, expRaw, ok := strings.Cut(payload, ".")
	if !ok {
		return "", ErrSessionMalformed
	}
	exp, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return "", ErrSessionMalformed
	}
	if !sessionNow().Before(time.Unix(exp, 0)) {
		return "", ErrSessionExpired
	}
	id, err := base64.RawURLEncoding.DecodeString(encodedID)
	if err != nil || len(id) == 0 {
		return "", ErrSessionMalformed
	}
	return string(id), nil
}

func sign(payload string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// SessionCookieName はセッションクッキー名
func SessionCookieName() string {
	return sessionCookieName
}

// SessionSecretBytes は 32 バイトに満たない秘密鍵をゼロ埋めする
func SessionSecretBytes(s string) []byte {
	b := []byte(s)
	if len(b) >= minSecretLen {
		return b
	}
	out := make([]byte, minSecretLen)
	copy(out, b)
	return out
}
