package record

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/crypto/pbkdf2"

	"github.com/yimin-chang/librabft-simulator/basetime"
)

// keystoreEntry is one author's encrypted private key, as stored on disk.
type keystoreEntry struct {
	Author     int    `json:"author"`
	PubKey     string `json:"pub_key"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipher_text"`
}

type keystoreFile struct {
	Entries []keystoreEntry `json:"entries"`
}

// SaveKeystore encrypts every author's private key under password and
// writes the result to path as a single JSON file, one entry per author.
func SaveKeystore(path, password string, keys map[basetime.Author]ed25519.PrivateKey) error {
	authors := make([]basetime.Author, 0, len(keys))
	for a := range keys {
		authors = append(authors, a)
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i] < authors[j] })

	file := keystoreFile{Entries: make([]keystoreEntry, 0, len(authors))}
	for _, a := range authors {
		priv := keys[a]
		salt := make([]byte, 16)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("record: generating keystore salt: %w", err)
		}
		key := deriveKey(password, salt)

		block, err := aes.NewCipher(key)
		if err != nil {
			return fmt.Errorf("record: creating cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return fmt.Errorf("record: creating GCM: %w", err)
		}
		nonce := make([]byte, gcm.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return fmt.Errorf("record: generating nonce: %w", err)
		}
		cipherText := gcm.Seal(nil, nonce, priv, nil)

		pub := priv.Public().(ed25519.PublicKey)
		file.Entries = append(file.Entries, keystoreEntry{
			Author:     int(a),
			PubKey:     hex.EncodeToString(pub),
			Salt:       hex.EncodeToString(salt),
			Nonce:      hex.EncodeToString(nonce),
			CipherText: hex.EncodeToString(cipherText),
		})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("record: marshaling keystore: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// LoadKeystore decrypts every entry in the keystore at path using password.
func LoadKeystore(path, password string) (map[basetime.Author]ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("record: reading keystore %s: %w", path, err)
	}
	var file keystoreFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("record: parsing keystore %s: %w", path, err)
	}

	out := make(map[basetime.Author]ed25519.PrivateKey, len(file.Entries))
	for _, e := range file.Entries {
		salt, err := hex.DecodeString(e.Salt)
		if err != nil {
			return nil, fmt.Errorf("record: decoding salt for author %d: %w", e.Author, err)
		}
		nonce, err := hex.DecodeString(e.Nonce)
		if err != nil {
			return nil, fmt.Errorf("record: decoding nonce for author %d: %w", e.Author, err)
		}
		cipherText, err := hex.DecodeString(e.CipherText)
		if err != nil {
			return nil, fmt.Errorf("record: decoding ciphertext for author %d: %w", e.Author, err)
		}

		key := deriveKey(password, salt)
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("record: creating cipher for author %d: %w", e.Author, err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("record: creating GCM for author %d: %w", e.Author, err)
		}
		privBytes, err := gcm.Open(nil, nonce, cipherText, nil)
		if err != nil {
			return nil, errors.New("record: wrong password or corrupted keystore entry")
		}
		out[basetime.Author(e.Author)] = ed25519.PrivateKey(privBytes)
	}
	return out, nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, 210_000, 32, sha256.New)
}
