package registry

import (
	"fmt"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
	"github.com/rocketscienceinc/pictionary-server/internal/entity"
	"github.com/rocketscienceinc/pictionary-server/internal/pkg"
)

// maxNameAttempts bounds the retries for a free Player_NNNN name before a suffix is added.
const maxNameAttempts = 32

// Registry tracks connected sessions in join order. It is not safe for concurrent use:
// the game loop owns it.
type Registry struct {
	sessions []*entity.Session
	byID     map[string]*entity.Session
	names    map[string]struct{}

	newID   func() string
	newName func() string
}

func New() *Registry {
	return NewWithGenerators(pkg.GenerateSessionID, pkg.GeneratePlayerName)
}

// NewWithGenerators - builds a registry with custom id and name sources.
func NewWithGenerators(newID, newName func() string) *Registry {
	return &Registry{
		byID:    make(map[string]*entity.Session),
		names:   make(map[string]struct{}),
		newID:   newID,
		newName: newName,
	}
}

// Register - creates a session with a unique name, zero score and no drawer role.
func (that *Registry) Register(transport entity.Transport) *entity.Session {
	session := entity.NewSession(that.uniqueID(), that.uniqueName(), transport)

	that.sessions = append(that.sessions, session)
	that.byID[session.ID] = session
	that.names[session.Name] = struct{}{}

	return session
}

// Unregister - removes the session and closes its transport.
// It reports whether the removed session was the drawer.
func (that *Registry) Unregister(session *entity.Session) (bool, error) {
	if session == nil || that.byID[session.ID] != session {
		return false, apperror.ErrSessionNotFound
	}

	delete(that.byID, session.ID)
	delete(that.names, session.Name)

	for i, s := range that.sessions {
		if s == session {
			that.sessions = append(that.sessions[:i], that.sessions[i+1:]...)
			break
		}
	}

	if session.Transport != nil {
		// closing twice is harmless for our transports, the error only says it was already closed
		_ = session.Transport.Close()
	}

	return session.IsDrawer, nil
}

func (that *Registry) Has(session *entity.Session) bool {
	return session != nil && that.byID[session.ID] == session
}

func (that *Registry) Get(id string) (*entity.Session, bool) {
	session, ok := that.byID[id]
	return session, ok
}

// Sessions - returns the live sessions in join order. The slice is a copy.
func (that *Registry) Sessions() []*entity.Session {
	sessions := make([]*entity.Session, len(that.sessions))
	copy(sessions, that.sessions)

	return sessions
}

// List - returns point-in-time player views in join order.
func (that *Registry) List() []entity.PlayerView {
	views := make([]entity.PlayerView, 0, len(that.sessions))
	for _, session := range that.sessions {
		views = append(views, session.View())
	}

	return views
}

func (that *Registry) Count() int {
	return len(that.sessions)
}

func (that *Registry) uniqueID() string {
	for {
		id := that.newID()
		if _, taken := that.byID[id]; !taken {
			return id
		}
	}
}

func (that *Registry) uniqueName() string {
	name := that.newName()

	for range maxNameAttempts {
		if _, taken := that.names[name]; !taken {
			return name
		}

		name = that.newName()
	}

	base := name
	for i := 2; ; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
		if _, taken := that.names[name]; !taken {
			return name
		}
	}
}
