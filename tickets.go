package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

const ticketTokenBytes = 32

// Ticket is a short lived, single use secret authorizing one follow up
// action (password reset or email verification). Raw leaves the server
// only through the notifier; Hash is what gets persisted.
type Ticket struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
}

// NewTicket generates a random ticket valid for ttl.
func NewTicket(ttl time.Duration) (*Ticket, error) {
	buf := make([]byte, ticketTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate ticket token")
	}

	raw := hex.EncodeToString(buf)

	return &Ticket{
		Raw:       raw,
		Hash:      HashTicketToken(raw),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// HashTicketToken returns the hex encoded sha256 of a raw ticket token.
// Lookups go through this hash so the stored value never authorizes anything
// by itself.
func HashTicketToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
