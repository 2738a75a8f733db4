package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/codegen"
	"github.com/ferminotify/core/internal/pkg/jwt"
	"github.com/ferminotify/core/internal/pkg/mail"
	"github.com/ferminotify/core/internal/testutil"
)

type fakeMailer struct {
	mu            sync.Mutex
	confirmations map[string]string // email -> code
	welcomes      []mail.Recipient
	err           error
	beforeWelcome func()
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{confirmations: map[string]string{}}
}

func (f *fakeMailer) SendConfirmation(ctx context.Context, r mail.Recipient, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.confirmations[r.Email] = code
	return nil
}

func (f *fakeMailer) SendWelcome(ctx context.Context, r mail.Recipient) error {
	if f.beforeWelcome != nil {
		f.beforeWelcome()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.welcomes = append(f.welcomes, r)
	return nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeMailer) {
	t.Helper()
	db := testutil.NewDB(t)
	m := newFakeMailer()
	return NewService(db, m, WithBcryptCost(bcrypt.MinCost)), db, m
}

func marioDTO() RegisterDTO {
	return RegisterDTO{
		Name:      "  Mario ",
		Surname:   "Rossi",
		Email:     "  Mario.Rossi@Example.com ",
		Password:  "password1",
		Password2: "password1",
		Gender:    "M",
	}
}

func findByEmail(t *testing.T, db *gorm.DB, email string) *models.Subscriber {
	t.Helper()
	var s models.Subscriber
	require.NoError(t, db.Where("email = ?", email).Take(&s).Error)
	return &s
}

func TestRegister_CreatesUnconfirmedSubscriber(t *testing.T) {
	svc, db, m := newTestService(t)

	resent, err := svc.Register(context.Background(), marioDTO())
	require.NoError(t, err)
	assert.False(t, resent)

	sub := findByEmail(t, db, "mario.rossi@example.com")
	assert.Equal(t, "Mario", sub.Name)
	assert.Equal(t, models.NotificationsUnconfirmed, sub.Notifications)
	assert.Equal(t, models.ChannelBoth, sub.NotificationPreferences)
	assert.Equal(t, models.DefaultNotificationTime, sub.NotificationTime)
	assert.True(t, codegen.Valid(sub.Telegram), sub.Telegram)
	assert.Len(t, sub.UnsubToken, 64)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(sub.Password), []byte("password1")))
	assert.Equal(t, sub.Telegram, m.confirmations["mario.rossi@example.com"])
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterDTO)
		want   error
	}{
		{"missing name", func(d *RegisterDTO) { d.Name = "   " }, errMissingFields},
		{"missing gender", func(d *RegisterDTO) { d.Gender = "" }, errMissingFields},
		{"mismatch checked before length", func(d *RegisterDTO) { d.Password = "abc"; d.Password2 = "abd" }, errPasswordMismatch},
		{"too short", func(d *RegisterDTO) { d.Password = "abc12"; d.Password2 = "abc12" }, errPasswordTooShort},
		{"gender checked before email", func(d *RegisterDTO) { d.Gender = "Q"; d.Email = "nope" }, errInvalidGender},
		{"bad email", func(d *RegisterDTO) { d.Email = "mario@example" }, errInvalidEmail},
		{"space in email", func(d *RegisterDTO) { d.Email = "ma rio@example.com" }, errInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, db, m := newTestService(t)
			dto := marioDTO()
			tc.mutate(&dto)

			_, err := svc.Register(context.Background(), dto)
			assert.ErrorIs(t, err, tc.want)

			var n int64
			require.NoError(t, db.Model(&models.Subscriber{}).Count(&n).Error)
			assert.Zero(t, n)
			assert.Empty(t, m.confirmations)
		})
	}
}

func TestRegister_ConfirmedEmailIsTaken(t *testing.T) {
	svc, db, m := newTestService(t)
	existing := testutil.CreateSubscriber(t, db)

	dto := marioDTO()
	dto.Email = existing.Email
	_, err := svc.Register(context.Background(), dto)
	assert.ErrorIs(t, err, errEmailTaken)
	assert.Empty(t, m.confirmations)
}

func TestRegister_UnconfirmedEmailIsResent(t *testing.T) {
	svc, db, m := newTestService(t)
	existing := testutil.CreateSubscriber(t, db, testutil.Unconfirmed())

	dto := marioDTO()
	dto.Email = existing.Email
	dto.Name = "Luigi"
	dto.Gender = "X"
	dto.Password, dto.Password2 = "newpassword", "newpassword"

	resent, err := svc.Register(context.Background(), dto)
	require.NoError(t, err)
	assert.True(t, resent)

	got := testutil.Reload(t, db, existing.ID)
	assert.Equal(t, "Luigi", got.Name)
	assert.Equal(t, models.GenderOther, got.Gender)
	assert.Equal(t, existing.Telegram, got.Telegram)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.Password), []byte("newpassword")))
	assert.Equal(t, existing.Telegram, m.confirmations[existing.Email])

	var n int64
	require.NoError(t, db.Model(&models.Subscriber{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRegister_ConfirmedAfterLookupIsTaken(t *testing.T) {
	svc, db, m := newTestService(t)
	existing := testutil.CreateSubscriber(t, db, testutil.Unconfirmed())

	// the owner confirms right after Register has read the row
	var once sync.Once
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:confirm_after_lookup", func(d *gorm.DB) {
		if d.Statement.Table != "subscribers" {
			return
		}
		once.Do(func() {
			require.NoError(t, db.Exec("UPDATE subscribers SET notifications = 0 WHERE id = ?", existing.ID).Error)
		})
	}))

	dto := marioDTO()
	dto.Email = existing.Email
	dto.Password, dto.Password2 = "hijacked1", "hijacked1"
	resent, err := svc.Register(context.Background(), dto)
	assert.ErrorIs(t, err, errEmailTaken)
	assert.False(t, resent)
	assert.Empty(t, m.confirmations)

	got := testutil.Reload(t, db, existing.ID)
	assert.Equal(t, 0, got.Notifications)
	assert.Equal(t, existing.Name, got.Name)
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(got.Password), []byte("hijacked1")))
}

func TestRegister_MailFailureRollsBack(t *testing.T) {
	svc, db, m := newTestService(t)
	m.err = mail.ErrTimeout

	_, err := svc.Register(context.Background(), marioDTO())
	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrTimeout)

	var n int64
	require.NoError(t, db.Model(&models.Subscriber{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRegister_ResendMailFailureRollsBack(t *testing.T) {
	svc, db, m := newTestService(t)
	existing := testutil.CreateSubscriber(t, db, testutil.Unconfirmed())
	m.err = errors.New("smtp down")

	dto := marioDTO()
	dto.Email = existing.Email
	dto.Name = "Luigi"
	_, err := svc.Register(context.Background(), dto)
	require.Error(t, err)

	assert.Equal(t, "Mario", testutil.Reload(t, db, existing.ID).Name)
}

func TestConfirm(t *testing.T) {
	svc, db, m := newTestService(t)
	sub := testutil.CreateSubscriber(t, db, testutil.Unconfirmed())

	assert.ErrorIs(t, svc.Confirm(context.Background(), "Xnotreal"), errInvalidCode)
	assert.ErrorIs(t, svc.Confirm(context.Background(), ""), errInvalidCode)

	require.NoError(t, svc.Confirm(context.Background(), sub.Telegram))
	assert.Equal(t, 0, testutil.Reload(t, db, sub.ID).Notifications)
	require.Len(t, m.welcomes, 1)
	assert.Equal(t, sub.Email, m.welcomes[0].Email)
	assert.Equal(t, sub.UnsubToken, m.welcomes[0].UnsubToken)

	assert.ErrorIs(t, svc.Confirm(context.Background(), sub.Telegram), errAlreadyConfirmed)
	assert.Len(t, m.welcomes, 1)
	assert.Equal(t, 0, testutil.Reload(t, db, sub.ID).Notifications)
}

func TestConfirm_WelcomeFailureLeavesUnconfirmed(t *testing.T) {
	svc, db, m := newTestService(t)
	sub := testutil.CreateSubscriber(t, db, testutil.Unconfirmed())
	m.err = errors.New("provider down")

	require.Error(t, svc.Confirm(context.Background(), sub.Telegram))
	assert.Equal(t, models.NotificationsUnconfirmed, testutil.Reload(t, db, sub.ID).Notifications)
}

func TestConfirm_ConcurrentWinnerIsReported(t *testing.T) {
	svc, db, m := newTestService(t)
	sub := testutil.CreateSubscriber(t, db, testutil.Unconfirmed())
	// another request confirms the row while this one is mailing
	m.beforeWelcome = func() {
		require.NoError(t, db.Model(&models.Subscriber{}).Where("id = ?", sub.ID).Update("notifications", 0).Error)
	}

	assert.ErrorIs(t, svc.Confirm(context.Background(), sub.Telegram), errAlreadyConfirmed)
	assert.Equal(t, 0, testutil.Reload(t, db, sub.ID).Notifications)
}

func TestLogin(t *testing.T) {
	svc, db, _ := newTestService(t)
	sub := testutil.CreateSubscriber(t, db)

	_, err := svc.Login(context.Background(), LoginDTO{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, errInvalidCredentials)
	_, err = svc.Login(context.Background(), LoginDTO{Email: sub.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, errInvalidCredentials)

	res, err := svc.Login(context.Background(), LoginDTO{Email: " " + sub.Email, Password: "password1"})
	require.NoError(t, err)
	assert.True(t, res.Onboarding)
	assert.Len(t, res.RefreshToken, 128)

	claims, err := jwt.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, claims.ID)
	assert.Equal(t, sub.Email, claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	var rt models.RefreshToken
	require.NoError(t, db.Where("subscriber_id = ?", sub.ID).Take(&rt).Error)
	assert.Equal(t, models.HashRefreshToken(res.RefreshToken), rt.TokenHash)
	assert.NotEqual(t, res.RefreshToken, rt.TokenHash)

	got := testutil.Reload(t, db, sub.ID)
	assert.True(t, got.Onboarding)
	assert.NotNil(t, got.LastLogin)

	again, err := svc.Login(context.Background(), LoginDTO{Email: sub.Email, Password: "password1"})
	require.NoError(t, err)
	assert.False(t, again.Onboarding)
	assert.NotEqual(t, res.RefreshToken, again.RefreshToken)
}

func TestRefresh(t *testing.T) {
	svc, db, _ := newTestService(t)
	sub := testutil.CreateSubscriber(t, db)
	res, err := svc.Login(context.Background(), LoginDTO{Email: sub.Email, Password: "password1"})
	require.NoError(t, err)

	later := time.Now().UTC().Add(30 * 24 * time.Hour)
	svc.now = func() time.Time { return later }

	token, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	claims, err := jwt.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, claims.ID)

	var rt models.RefreshToken
	require.NoError(t, db.Where("subscriber_id = ?", sub.ID).Take(&rt).Error)
	assert.WithinDuration(t, later.Add(RefreshTokenTTL), rt.ExpiresAt, time.Second)
	first := rt.ExpiresAt

	evenLater := later.Add(24 * time.Hour)
	svc.now = func() time.Time { return evenLater }
	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)

	var tokens []models.RefreshToken
	require.NoError(t, db.Where("subscriber_id = ?", sub.ID).Find(&tokens).Error)
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].ExpiresAt.After(first))
	assert.WithinDuration(t, evenLater.Add(RefreshTokenTTL), tokens[0].ExpiresAt, time.Second)

	_, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, errInvalidRefresh)
	_, err = svc.Refresh(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, errInvalidRefresh)

	svc.now = func() time.Time { return evenLater.Add(RefreshTokenTTL + time.Hour) }
	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, errInvalidRefresh)
}

func TestLogout(t *testing.T) {
	svc, db, _ := newTestService(t)
	sub := testutil.CreateSubscriber(t, db)
	res, err := svc.Login(context.Background(), LoginDTO{Email: sub.Email, Password: "password1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Logout(context.Background(), ""), errMissingRefresh)
	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken))

	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, errInvalidRefresh)
}

func TestCleanupExpired(t *testing.T) {
	svc, db, _ := newTestService(t)
	sub := testutil.CreateSubscriber(t, db)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.RefreshToken{SubscriberID: sub.ID, TokenHash: models.HashRefreshToken("old"), ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{SubscriberID: sub.ID, TokenHash: models.HashRefreshToken("new"), ExpiresAt: now.Add(time.Hour)}).Error)

	n, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func TestApply_Policies(t *testing.T) {
	svc, _, _ := newTestService(t)
	boom := errors.New("boom")

	err := svc.apply(context.Background(), sideEffect{name: "fatal", policy: effectFatal, run: func(context.Context) error { return boom }})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fatal")

	err = svc.apply(context.Background(), sideEffect{name: "soft", policy: effectBestEffort, run: func(context.Context) error { return boom }})
	assert.NoError(t, err)
}

// Mario Rossi registers, redeems the code from the confirmation mail and logs in.
func TestScenario_RegisterConfirmLogin(t *testing.T) {
	svc, db, m := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, marioDTO())
	require.NoError(t, err)
	code := m.confirmations["mario.rossi@example.com"]
	require.NotEmpty(t, code)

	_, err = svc.Login(ctx, LoginDTO{Email: "mario.rossi@example.com", Password: "password1"})
	require.NoError(t, err, "login is allowed before confirmation")

	require.NoError(t, svc.Confirm(ctx, code))
	sub := findByEmail(t, db, "mario.rossi@example.com")
	assert.True(t, sub.Confirmed())

	_, err = svc.Register(ctx, marioDTO())
	assert.ErrorIs(t, err, errEmailTaken)

	res, err := svc.Login(ctx, LoginDTO{Email: "mario.rossi@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.False(t, res.Onboarding)
}
