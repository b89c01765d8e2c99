package syncbridge

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrBadPassphrase is returned when a blob cannot be opened with the supplied
// passphrase.
var ErrBadPassphrase = errors.New("syncbridge: wrong passphrase or corrupted blob")

const saltLength = 16

// deriveKey stretches the passphrase into an XChaCha20-Poly1305 key.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 3, 64*1024, 2, chacha20poly1305.KeySize)
}

// seal encrypts plaintext under the passphrase. The output layout is
// salt || nonce || ciphertext.
func seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltLength+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// open decrypts a blob produced by seal.
func open(blob []byte, passphrase string) ([]byte, error) {
	if len(blob) < saltLength+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: blob too short", ErrBadPassphrase)
	}

	salt := blob[:saltLength]
	nonce := blob[saltLength : saltLength+chacha20poly1305.NonceSizeX]
	ciphertext := blob[saltLength+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return plaintext, nil
}
