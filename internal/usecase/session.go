package usecase

import (
	"errors"

	"minibank/internal/entity"
)

type GetSession struct {
	repo sessionRepository
}

func NewGetSession(repo sessionRepository) *GetSession {
	return &GetSession{
		repo: repo,
	}
}

// Execute returns the stored session for the chat, or a zero session if none
// exists yet.
func (g *GetSession) Execute(chatID int64) (entity.Session, error) {
	session, err := g.repo.Get(chatID)
	if err != nil {
		if errors.Is(err, entity.SessionNotFoundErr) {
			return entity.Session{}, nil
		}
		return entity.Session{}, err
	}
	return session, nil
}

type SaveSession struct {
	repo sessionRepository
}

func NewSaveSession(repo sessionRepository) *SaveSession {
	return &SaveSession{
		repo: repo,
	}
}

func (s *SaveSession) Execute(chatID int64, session entity.Session) error {
	return s.repo.Save(chatID, session)
}

type ClearSession struct {
	repo sessionRepository
}

func NewClearSession(repo sessionRepository) *ClearSession {
	return &ClearSession{
		repo: repo,
	}
}

func (c *ClearSession) Execute(chatID int64) error {
	return c.repo.Clear(chatID)
}
