package app

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keyLength 派生密钥长度（字节）
const keyLength = 32

// HKDF info 标签，每个用途一个，互不复用
const (
	keyInfoCSRF = "gymcore/csrf/v1"
)

// Keys 由 SECRET_KEY 派生的各用途密钥
type Keys struct {
	CSRF []byte
}

// DeriveKeys 使用 HKDF-SHA256 从密钥派生各用途子密钥
func DeriveKeys(secret string) (*Keys, error) {
	if secret == "" {
		return nil, fmt.Errorf("derive keys: empty secret")
	}
	csrf, err := deriveKey(secret, keyInfoCSRF)
	if err != nil {
		return nil, err
	}
	return &Keys{CSRF: csrf}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
