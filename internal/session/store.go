package session

import (
	"sync"
	"time"

	"campaign-studio-bot/internal/campaign"
)

// Await marks which wizard input the next user message fills.
type Await int

const (
	AwaitNone Await = iota
	AwaitProductName
	AwaitAudience
	AwaitVibe
	AwaitPhoto
	AwaitInstruction
)

// Session is one chat's wizard: the campaign controller plus the UI
// bookkeeping around it. The controller carries its own lock; the UI
// fields are guarded by the store.
type Session struct {
	ChatID   int64
	UserID   int64
	Username string

	Controller *campaign.Controller
	Await      Await
	Draft      campaign.Inputs

	MessageID    int
	LastActivity time.Time
}

type Options struct {
	NewController func() *campaign.Controller
}

type Store struct {
	mu            sync.Mutex
	sessions      map[sessionKey]*Session
	newController func() *campaign.Controller
}

type sessionKey struct {
	ChatID int64
	UserID int64
}

func NewStore(opts Options) *Store {
	newController := opts.NewController
	if newController == nil {
		newController = func() *campaign.Controller {
			return campaign.NewController(campaign.ControllerOptions{})
		}
	}

	return &Store{
		sessions:      make(map[sessionKey]*Session),
		newController: newController,
	}
}

// Get returns a copy of the session, creating it on first use. The
// embedded Controller pointer is shared.
func (s *Store) Get(chatID, userID int64, username string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(chatID, userID, username)
	sess.LastActivity = time.Now()
	return *sess
}

// Update applies fn to the session under the store lock and returns the
// updated copy.
func (s *Store) Update(chatID, userID int64, username string, fn func(*Session)) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(chatID, userID, username)
	if fn != nil {
		fn(sess)
	}
	sess.LastActivity = time.Now()
	return *sess
}

// Restart resets the controller and UI fields for a fresh wizard run.
func (s *Store) Restart(chatID, userID int64, username string) Session {
	return s.Update(chatID, userID, username, func(sess *Session) {
		sess.Controller.Reset()
		sess.Draft = campaign.Inputs{}
		sess.Await = AwaitProductName
		sess.MessageID = 0
	})
}

func (s *Store) getOrCreateLocked(chatID, userID int64, username string) *Session {
	key := sessionKey{ChatID: chatID, UserID: userID}
	if sess, ok := s.sessions[key]; ok {
		if sess.Username == "" && username != "" {
			sess.Username = username
		}
		return sess
	}

	sess := &Session{
		ChatID:       chatID,
		UserID:       userID,
		Username:     username,
		Controller:   s.newController(),
		LastActivity: time.Now(),
	}
	s.sessions[key] = sess
	return sess
}
