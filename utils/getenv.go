package utils

import (
	"os"
	"strings"
)

// GetEnvDefault は環境変数の値を前後の空白を除いて返します。未設定か空白だけの場合は defaultValue です。
// .env の行末に残った空白で設定値が変わらないようにしています。
func GetEnvDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}
