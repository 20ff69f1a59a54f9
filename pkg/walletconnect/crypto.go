package walletconnect

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"

	"github.com/da1suk8/donation-demo/pkg/errors"
)

// Payload crypto for the bridge transport: AES-256-CBC with PKCS#7
// padding, authenticated with HMAC-SHA256 over cipher||iv.

func Aes256Encrypt(content, encryptionKey, iv []byte) ([]byte, error) {
	padded := pkcs7Padding(content, aes.BlockSize)
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func Aes256Decrypt(cipherText, encryptionKey, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	if len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("cipher text is not block aligned")
	}
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(cipherText, cipherText)
	return pkcs7Unpadding(cipherText)
}

func pkcs7Padding(content []byte, blockSize int) []byte {
	padding := blockSize - len(content)%blockSize
	padText := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(content, padText...)
}

func pkcs7Unpadding(content []byte) ([]byte, error) {
	if len(content) == 0 {
		return nil, errors.New("empty plain text")
	}
	padding := int(content[len(content)-1])
	if padding == 0 || padding > len(content) {
		return nil, errors.New("malformed pkcs7 padding")
	}
	return content[:len(content)-padding], nil
}

func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func HmacSha256(data, secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return h.Sum(nil)
}

// VerifyHmacSha256 compares the expected payload hmac in constant time.
func VerifyHmacSha256(data, secret, expected []byte) bool {
	return hmac.Equal(HmacSha256(data, secret), expected)
}
