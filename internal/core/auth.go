package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/JonMunkholm/linkboard/internal/logging"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User is the signed-in identity.
type User struct {
	Username string `json:"username"`
	Nama     string `json:"nama"`
}

type userRecord struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nama     string `json:"nama"`
}

// Login checks username and password against the users file.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	var (
		token   string
		records []userRecord
		user    *User
	)

	err := s.runRemote(ctx,
		Stage{Name: StageValidate, Run: func(context.Context) error {
			if strings.TrimSpace(username) == "" {
				return ErrUsernameRequired
			}
			if password == "" {
				return ErrPasswordRequired
			}
			return nil
		}},
		s.tokenStage(&token),
		Stage{Name: StageRead, Run: func(ctx context.Context) error {
			f, err := s.store.GetFile(ctx, token, s.cfg.UsersFile)
			if err != nil {
				return err
			}
			records, err = decodeList[userRecord](f.Content, "users")
			return err
		}},
		Stage{Name: StageMatch, Run: func(context.Context) error {
			user = matchUser(records, username, password)
			if user == nil {
				return ErrInvalidCredentials
			}
			return nil
		}},
	)

	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.LogAudit(ctx, AuditLogParams{Action: ActionLoginFailed, Actor: username})
		}
		return nil, err
	}

	s.LogAudit(ctx, AuditLogParams{Action: ActionLogin, Actor: user.Username})
	logging.FromContext(ctx).Info("user signed in", "username", user.Username)
	return user, nil
}

// matchUser compares every record so the time taken does not reveal which
// record matched.
func matchUser(records []userRecord, username, password string) *User {
	var found *User
	for _, r := range records {
		nameOK := subtle.ConstantTimeCompare([]byte(r.Username), []byte(username))
		passOK := subtle.ConstantTimeCompare([]byte(r.Password), []byte(password))
		if nameOK&passOK == 1 && found == nil {
			found = &User{Username: r.Username, Nama: r.Nama}
		}
	}
	return found
}
