package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"stemmix/pkg/spec"
)

// DeriveKey menghasilkan kunci 32-byte dari password dan salt
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, 4096, 32, sha256.New)
}

// Encrypt mengenkripsi data menggunakan AES-GCM dengan Random Nonce
func Encrypt(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt mendekripsi data menggunakan AES-GCM
func Decrypt(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, io.ErrUnexpectedEOF
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// CreateKeyLocker membuat file _keys.dat berisi password bundle yang
// dienkripsi dengan Master Key
func CreateKeyLocker(bundlePath, password string) error {
	keyForDat := DeriveKey(spec.MasterBfKey, []byte(spec.Salt))

	encryptedPass, err := Encrypt([]byte(password), keyForDat)
	if err != nil {
		return err
	}

	datPath := LockerPath(bundlePath)

	f, err := os.Create(datPath)
	if err != nil {
		return err
	}
	defer f.Close()

	f.Write([]byte(spec.LockerMagicV1))
	f.Write(encryptedPass)

	return nil
}

// UnlockKeyLocker membuka _keys.dat dan mengembalikan password bundle
func UnlockKeyLocker(lockerPath string) (string, error) {
	data, err := os.ReadFile(lockerPath)
	if err != nil {
		return "", err
	}

	if len(data) < 8 || string(data[:8]) != spec.LockerMagicV1 {
		return "", fmt.Errorf("bukan file key locker stemmix yang valid")
	}

	keyForDat := DeriveKey(spec.MasterBfKey, []byte(spec.Salt))
	dec, err := Decrypt(data[8:], keyForDat)
	if err != nil {
		return "", err
	}

	return string(dec), nil
}

// RandomPassword menghasilkan password hex acak untuk bundle tanpa
// password eksplisit
func RandomPassword() string {
	b := make([]byte, spec.RandomPasswordLen/2)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// LockerPath memetakan nama bundle .stmx ke file locker pendampingnya
func LockerPath(bundlePath string) string {
	return strings.TrimSuffix(bundlePath, ".stmx") + "_keys.dat"
}
