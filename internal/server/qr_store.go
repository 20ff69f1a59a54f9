package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/da1suk8/donation-demo/pkg/errors"
)

// qrTTL bounds how long a pairing QR stays servable; pairing attempts
// time out well before this.
const qrTTL = 10 * time.Minute

type qrEntry struct {
	png      []byte
	expireAt time.Time
}

// QRStore holds freshly generated pairing QR codes in memory so chat
// cards can reference them by URL.
type QRStore struct {
	mu      sync.Mutex
	entries map[string]qrEntry
}

func NewQRStore() *QRStore {
	return &QRStore{
		entries: make(map[string]qrEntry),
	}
}

// Put encodes content as a QR png and returns the id it is served
// under.
func (s *QRStore) Put(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", errors.WrapAndReport(err, "encode pairing qr code")
	}
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	s.entries[id] = qrEntry{png: png, expireAt: time.Now().Add(qrTTL)}
	return id, nil
}

// Get returns the png for id, or false when unknown or expired.
func (s *QRStore) Get(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || time.Now().After(entry.expireAt) {
		delete(s.entries, id)
		return nil, false
	}
	return entry.png, true
}

func (s *QRStore) purgeLocked() {
	now := time.Now()
	for id, entry := range s.entries {
		if now.After(entry.expireAt) {
			delete(s.entries, id)
		}
	}
}
