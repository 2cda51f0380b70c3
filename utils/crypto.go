package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var nipFormat = regexp.MustCompile(`^\d{4,6}$`)

// ValidNIPFormat проверяет формат НИП: от 4 до 6 цифр
func ValidNIPFormat(nip string) bool {
	return nipFormat.MatchString(nip)
}

// HashNIP создает bcrypt-хеш НИП (соль включена в хеш)
func HashNIP(nip string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(nip), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("не удалось захешировать НИП: %v", err)
	}
	return string(hashed), nil
}

// CompareNIP сверяет НИП с хешем
func CompareNIP(hash, nip string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(nip)) == nil
}

// CalculateHMAC вычисляет HMAC-SHA256 для данных
func CalculateHMAC(data string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateHMAC проверяет подпись HMAC
func ValidateHMAC(data, signature string, key []byte) bool {
	expected := CalculateHMAC(data, key)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// GenerateDigits генерирует строку из length случайных цифр
func GenerateDigits(length int) string {
	var number strings.Builder
	for i := 0; i < length; i++ {
		number.WriteString(strconv.Itoa(mrand.Intn(10)))
	}
	return number.String()
}
