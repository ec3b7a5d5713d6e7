package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "fleetrent/internal/domain/auth"
	domainmember "fleetrent/internal/domain/member"
)

// MemberRepository stores members in memory. Not suitable for production.
type MemberRepository struct {
	mu      sync.RWMutex
	byID    map[domainmember.MemberID]*domainmember.Member
	byEmail map[string]domainmember.MemberID
}

func NewMemberRepository() *MemberRepository {
	return &MemberRepository{
		byID:    make(map[domainmember.MemberID]*domainmember.Member),
		byEmail: make(map[string]domainmember.MemberID),
	}
}

func (r *MemberRepository) ByID(ctx context.Context, id domainmember.MemberID) (*domainmember.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if mem, ok := r.byID[id]; ok {
		return cloneMember(mem), nil
	}
	return nil, domainmember.ErrNotFound
}

func (r *MemberRepository) ByEmail(ctx context.Context, email string) (*domainmember.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domainmember.ErrNotFound
	}
	if mem, ok := r.byID[id]; ok {
		return cloneMember(mem), nil
	}
	return nil, domainmember.ErrNotFound
}

func (r *MemberRepository) Save(ctx context.Context, mem *domainmember.Member) error {
	if mem == nil {
		return domainmember.ErrIDRequired
	}
	id := strings.TrimSpace(string(mem.ID))
	if id == "" {
		return domainmember.ErrIDRequired
	}
	emailKey := strings.ToLower(strings.TrimSpace(mem.Email))
	if emailKey == "" {
		return domainmember.ErrEmailRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existingID, ok := r.byEmail[emailKey]; ok && existingID != mem.ID {
		return domainmember.ErrEmailAlreadyUsed
	}
	r.byEmail[emailKey] = mem.ID
	r.byID[mem.ID] = cloneMember(mem)
	return nil
}

func cloneMember(m *domainmember.Member) *domainmember.Member {
	if m == nil {
		return nil
	}
	copyMember := *m
	copyMember.Roles = append([]domainmember.Role(nil), m.Roles...)
	return &copyMember
}

// SessionStore keeps bearer sessions in memory.
type SessionStore struct {
	mu          sync.RWMutex
	tokens      map[domainauth.Token]*domainauth.Session
	memberIndex map[domainmember.MemberID]map[domainauth.Token]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		tokens:      make(map[domainauth.Token]*domainauth.Session),
		memberIndex: make(map[domainmember.MemberID]map[domainauth.Token]struct{}),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[session.Token] = cloneSession(session)
	if _, ok := s.memberIndex[session.MemberID]; !ok {
		s.memberIndex[session.MemberID] = make(map[domainauth.Token]struct{})
	}
	s.memberIndex[session.MemberID][session.Token] = struct{}{}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.tokens[token]
	if !ok {
		return nil
	}
	delete(s.tokens, token)
	if index, ok := s.memberIndex[session.MemberID]; ok {
		delete(index, token)
		if len(index) == 0 {
			delete(s.memberIndex, session.MemberID)
		}
	}
	return nil
}

func (s *SessionStore) DeleteByMember(ctx context.Context, memberID domainmember.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.memberIndex[memberID]
	if !ok {
		return nil
	}
	for token := range index {
		delete(s.tokens, token)
	}
	delete(s.memberIndex, memberID)
	return nil
}

func cloneSession(s *domainauth.Session) *domainauth.Session {
	if s == nil {
		return nil
	}
	copySession := *s
	copySession.Roles = append([]domainmember.Role(nil), s.Roles...)
	return &copySession
}

var _ domainmember.Repository = (*MemberRepository)(nil)
var _ domainauth.SessionStore = (*SessionStore)(nil)
