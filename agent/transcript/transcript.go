package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("transcript not found")
	ErrNilTranscript  = errors.New("transcript is nil")
	ErrInvalidSession = errors.New("session id is empty")
)

const (
	defaultKeyPrefix     = "genie:transcript:"
	defaultTTL           = 24 * time.Hour
	maxResponseSizeBytes = 2 << 20
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one displayed message. Turns are never fed back to the router.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type Transcript struct {
	SessionID string    `json:"session_id"`
	Turns     []Turn    `json:"turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(sessionID string, now time.Time) *Transcript {
	return &Transcript{
		SessionID: sessionID,
		Turns:     []Turn{},
		UpdatedAt: now.UTC(),
	}
}

func (t *Transcript) Append(role Role, content string, at time.Time) {
	t.Turns = append(t.Turns, Turn{Role: role, Content: content, At: at.UTC()})
	t.UpdatedAt = at.UTC()
}

func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	out := *t
	out.Turns = append([]Turn(nil), t.Turns...)
	return &out
}

func (t *Transcript) Validate() error {
	if t == nil {
		return ErrNilTranscript
	}
	if strings.TrimSpace(t.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, turn := range t.Turns {
		switch turn.Role {
		case RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("turn %d has unknown role %q", i, turn.Role)
		}
	}
	return nil
}

// Store persists transcripts by session id.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Transcript, error)
	Save(ctx context.Context, t *Transcript) error
	Delete(ctx context.Context, sessionID string) error
}

type storeOptions struct {
	keyPrefix  string
	ttl        time.Duration
	httpClient *http.Client
}

// StoreOption customizes the Redis-backed stores.
type StoreOption func(*storeOptions)

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

// WithHTTPClient only applies to the Upstash REST store.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *storeOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func applyOptions(opts []StoreOption) (storeOptions, error) {
	o := storeOptions{
		keyPrefix: defaultKeyPrefix,
		ttl:       defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ttl < 0 {
		return o, errors.New("ttl must be >= 0")
	}
	return o, nil
}

func redisKey(prefix, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return strings.TrimSpace(prefix) + sessionID, nil
}

func prepareForSave(t *Transcript) error {
	if t == nil {
		return ErrNilTranscript
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	} else {
		t.UpdatedAt = t.UpdatedAt.UTC()
	}
	return t.Validate()
}
