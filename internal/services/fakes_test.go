package services

import (
	"database/sql"
	"time"

	"capsulelink/internal/models"
	"capsulelink/internal/repositories"
)

// -------- test fakes --------

type fakeUserRepo struct {
	repositories.UserRepository

	byID       map[int64]*models.User
	byUsername map[string]*models.User
	byEmail    map[string]*models.User

	nextID int64

	// GetByEmail misses this many times before hitting the map, to stage
	// lookup-then-create races
	emailMisses int

	// Create behavior: pop one error per call before succeeding
	createErrs []error
	created    []*models.User

	setCodeCalls int
	lastCode     string
	lastExpiry   time.Time
	setCodeErr   error

	markVerifiedIDs []int64

	updatedRegistration bool

	accepting    bool
	acceptingErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:       map[int64]*models.User{},
		byUsername: map[string]*models.User{},
		byEmail:    map[string]*models.User{},
		nextID:     1,
	}
}

func (f *fakeUserRepo) add(u *models.User) *models.User {
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	}
	f.byID[u.ID] = u
	f.byUsername[u.Username] = u
	f.byEmail[u.Email] = u
	return u
}

func (f *fakeUserRepo) Create(u *models.User) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	f.add(u)
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserRepo) GetByID(id int64) (*models.User, error) {
	return f.byID[id], nil
}

func (f *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	return f.byUsername[username], nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	if f.emailMisses > 0 {
		f.emailMisses--
		return nil, nil
	}
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) FindByIdentifier(identifier string) (*models.User, error) {
	if u := f.byUsername[identifier]; u != nil {
		return u, nil
	}
	return f.byEmail[identifier], nil
}

func (f *fakeUserRepo) UpdateRegistration(id int64, username, email, passwordHash string) error {
	f.updatedRegistration = true
	if u := f.byID[id]; u != nil {
		u.Username = username
		u.Email = email
		u.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeUserRepo) SetVerificationCode(id int64, code string, expiry time.Time) error {
	if f.setCodeErr != nil {
		return f.setCodeErr
	}
	f.setCodeCalls++
	f.lastCode = code
	f.lastExpiry = expiry
	if u := f.byID[id]; u != nil {
		c := code
		e := expiry
		u.VerificationCode = &c
		u.CodeExpiry = &e
	}
	return nil
}

func (f *fakeUserRepo) MarkVerified(id int64) error {
	f.markVerifiedIDs = append(f.markVerifiedIDs, id)
	if u := f.byID[id]; u != nil {
		u.IsVerified = true
		u.VerificationCode = nil
		u.CodeExpiry = nil
	}
	return nil
}

func (f *fakeUserRepo) UpdatePassword(id int64, passwordHash string) error {
	if u := f.byID[id]; u != nil {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeUserRepo) SetAcceptingMessage(id int64, desired *bool) (bool, error) {
	if f.acceptingErr != nil {
		return false, f.acceptingErr
	}
	u := f.byID[id]
	if u == nil {
		return false, sql.ErrNoRows
	}
	if desired != nil {
		u.IsAcceptingMessage = *desired
	} else {
		u.IsAcceptingMessage = !u.IsAcceptingMessage
	}
	f.accepting = u.IsAcceptingMessage
	return u.IsAcceptingMessage, nil
}

func (f *fakeUserRepo) UpdateRefresh(userID int64, token string, expiresAt time.Time) error {
	if u := f.byID[userID]; u != nil {
		t := token
		e := expiresAt
		u.RefreshToken = &t
		u.RefreshExpiresAt = &e
	}
	return nil
}

func (f *fakeUserRepo) GetByRefreshToken(token string) (*models.User, error) {
	for _, u := range f.byID {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	u, _ := f.GetByRefreshToken(oldToken)
	if u == nil {
		return nil, nil
	}
	t := newToken
	e := newExpiresAt
	u.RefreshToken = &t
	u.RefreshExpiresAt = &e
	return u, nil
}

func (f *fakeUserRepo) ClearRefresh(userID int64) error {
	if u := f.byID[userID]; u != nil {
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
	}
	return nil
}

type fakeCooldownRepo struct {
	acquired bool
	err      error
	keys     []string
}

func (f *fakeCooldownRepo) Acquire(key string, ttl time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.acquired, f.err
}

type fakeEmailService struct {
	verifySends []string // "email/username/code"
	verifyErr   error
	resetSends  []string
	resetErr    error
}

func (f *fakeEmailService) SendVerificationEmail(email, username, code string) error {
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verifySends = append(f.verifySends, email+"/"+username+"/"+code)
	return nil
}

func (f *fakeEmailService) SendPasswordResetEmail(email, token string) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resetSends = append(f.resetSends, email+"/"+token)
	return nil
}

type fakePasswordResetRepo struct {
	byToken map[string]*models.PasswordReset
	nextID  int64
	used    []int64
}

func newFakePasswordResetRepo() *fakePasswordResetRepo {
	return &fakePasswordResetRepo{byToken: map[string]*models.PasswordReset{}, nextID: 1}
}

func (f *fakePasswordResetRepo) Create(userID int64, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	pr := &models.PasswordReset{
		ID:        f.nextID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.byToken[token] = pr
	return pr, nil
}

func (f *fakePasswordResetRepo) GetByToken(token string) (*models.PasswordReset, error) {
	return f.byToken[token], nil
}

func (f *fakePasswordResetRepo) MarkUsed(id int64) error {
	f.used = append(f.used, id)
	for _, pr := range f.byToken {
		if pr.ID == id {
			now := time.Now()
			pr.UsedAt = &now
		}
	}
	return nil
}

type fakeMessageRepo struct {
	repositories.MessageRepository

	byID    map[int64]*models.Message
	nextID  int64
	listed  []*models.Message
	listErr error

	deleted []int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byID: map[int64]*models.Message{}, nextID: 1}
}

func (f *fakeMessageRepo) Create(m *models.Message) error {
	m.ID = f.nextID
	f.nextID++
	m.CreatedAt = time.Now()
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMessageRepo) GetByID(id int64) (*models.Message, error) {
	return f.byID[id], nil
}

func (f *fakeMessageRepo) ListByReceiver(receiverID int64, mtype models.MessageType) ([]*models.Message, error) {
	return f.listed, f.listErr
}

func (f *fakeMessageRepo) MarkRead(id, receiverID int64) (*models.Message, error) {
	m := f.byID[id]
	if m == nil || m.ReceiverID != receiverID {
		return nil, nil
	}
	m.IsRead = true
	return m, nil
}

func (f *fakeMessageRepo) Delete(id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}
