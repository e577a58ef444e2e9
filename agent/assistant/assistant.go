package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	auditx "github.com/tanpawarit/Chative-Genie-Analytics/agent/audit"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	transcriptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/transcript"
)

// Router is the single-turn question router.
type Router interface {
	Route(ctx context.Context, question string) (contractx.Answer, error)
}

type Reply struct {
	RequestID string             `json:"request_id"`
	Text      string             `json:"text"`
	Failed    bool               `json:"failed"`
	Domains   []contractx.Domain `json:"domains,omitempty"`
	Fallback  bool               `json:"fallback"`
}

type Option func(*Assistant)

func WithTranscriptStore(store transcriptx.Store) Option {
	return func(a *Assistant) {
		if store != nil {
			a.transcripts = store
		}
	}
}

func WithRecorder(rec auditx.Recorder) Option {
	return func(a *Assistant) {
		if rec != nil {
			a.recorder = rec
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

// Assistant is what front ends talk to. It never fails a call: routing errors
// become an "Error: ..." reply.
type Assistant struct {
	router      Router
	transcripts transcriptx.Store
	recorder    auditx.Recorder
	now         func() time.Time
	newID       func() string
	sessions    sessionLocks
}

func New(router Router, opts ...Option) (*Assistant, error) {
	if router == nil {
		return nil, errors.New("router is required")
	}
	a := &Assistant{
		router:      router,
		transcripts: transcriptx.NewMemoryStore(),
		recorder:    auditx.NoopRecorder{},
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Assistant) Ask(ctx context.Context, sessionID string, question string) Reply {
	requestID := a.newID()
	logger := zerolog.Ctx(ctx).With().
		Str("request_id", requestID).
		Str("session_id", sessionID).
		Logger()
	ctx = logger.WithContext(ctx)

	askedAt := a.now()
	answer, err := a.router.Route(ctx, question)
	elapsed := a.now().Sub(askedAt)

	reply := Reply{RequestID: requestID}
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("question failed")
		reply.Text = "Error: " + err.Error()
		reply.Failed = true
	} else {
		reply.Text = answer.Text
		reply.Domains = answer.Domains()
		reply.Fallback = answer.Fallback
	}

	if sessionID != "" {
		if terr := a.appendTurns(ctx, sessionID, question, reply.Text, askedAt); terr != nil {
			logger.Warn().Err(terr).Msg("failed to update transcript")
		}
	}

	if aerr := a.recorder.Record(ctx, a.auditEntry(requestID, sessionID, question, reply, err, askedAt, elapsed)); aerr != nil {
		logger.Warn().Err(aerr).Msg("failed to record audit entry")
	}

	return reply
}

// History returns the display log for a session; unknown sessions are empty.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]transcriptx.Turn, error) {
	t, err := a.transcripts.Load(ctx, sessionID)
	if errors.Is(err, transcriptx.ErrNotFound) {
		return []transcriptx.Turn{}, nil
	}
	if err != nil {
		return nil, err
	}
	return t.Turns, nil
}

func (a *Assistant) Clear(ctx context.Context, sessionID string) error {
	return a.transcripts.Delete(ctx, sessionID)
}

// appendTurns serializes the load-append-save per session so concurrent asks
// in one session cannot drop each other's turns. Stores shared by several
// processes still race across processes.
func (a *Assistant) appendTurns(ctx context.Context, sessionID, question, replyText string, askedAt time.Time) error {
	unlock := a.sessions.lock(sessionID)
	defer unlock()

	t, err := a.transcripts.Load(ctx, sessionID)
	if errors.Is(err, transcriptx.ErrNotFound) {
		t = transcriptx.New(sessionID, askedAt)
	} else if err != nil {
		return err
	}
	t.Append(transcriptx.RoleUser, question, askedAt)
	t.Append(transcriptx.RoleAssistant, replyText, a.now())
	return a.transcripts.Save(ctx, t)
}

func (a *Assistant) auditEntry(
	requestID, sessionID, question string,
	reply Reply,
	err error,
	askedAt time.Time,
	elapsed time.Duration,
) *auditx.Entry {
	domains := make([]string, 0, len(reply.Domains))
	for _, d := range reply.Domains {
		domains = append(domains, string(d))
	}
	e := &auditx.Entry{
		RequestID:  requestID,
		SessionID:  sessionID,
		Question:   question,
		Domains:    domains,
		Fallback:   reply.Fallback,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  askedAt.UTC(),
	}
	if err != nil {
		e.Error = strings.TrimPrefix(reply.Text, "Error: ")
		var be *contractx.BackendError
		if errors.As(err, &be) {
			e.Domains = append(e.Domains, string(be.Domain))
		}
	} else {
		e.Answer = reply.Text
	}
	return e
}

type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until sessionID is free and returns its release func. Entries
// are dropped once no caller holds or waits on them.
func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sessionLock)
	}
	sl, ok := l.locks[sessionID]
	if !ok {
		sl = &sessionLock{}
		l.locks[sessionID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
