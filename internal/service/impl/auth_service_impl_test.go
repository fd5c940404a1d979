package impl

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc    *AuthServiceImpl
	st     *store.Store
	mailer *captureMailer
	tokens *stubTokenService
	pub    *recordingPublisher
	now    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	st := newTestStore(t)
	f := &authFixture{
		st:     st,
		mailer: &captureMailer{},
		tokens: &stubTokenService{},
		pub:    &recordingPublisher{},
		now:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthServiceImpl(st, NewPasswordServiceWithParams(testArgon2, 1), f.tokens, f.mailer, f.pub, time.Hour)
	f.svc.now = func() time.Time { return f.now }
	f.svc.dispatch = func(fn func()) { fn() }
	seq := 100000
	f.svc.newCode = func() (string, error) {
		seq++
		return strconv.Itoa(seq), nil
	}
	return f
}

func (f *authFixture) signup(t *testing.T, username, email string) string {
	t.Helper()
	if _, err := f.svc.Signup(context.Background(), dto.SignupRequest{Username: username, Email: email, Password: "correct horse"}); err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return f.mailer.last(t).code
}

func TestSignupCreatesUnverifiedAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "Alice@Example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if !resp.RequiresEmailVerification {
		t.Fatalf("expected verification to be required")
	}

	u, err := f.st.Users().GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.EmailVerified || !u.IsAcceptingMessage || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := f.st.Credentials().GetPasswordByUserID(ctx, u.ID); err != nil {
		t.Fatalf("credential missing: %v", err)
	}
	v, err := f.st.Verifications().GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("verification missing: %v", err)
	}
	if !v.ExpiresAt.Equal(f.now.Add(time.Hour)) {
		t.Fatalf("expiresAt = %v", v.ExpiresAt)
	}

	m := f.mailer.last(t)
	if m.to != "alice@example.com" || m.username != "alice" || len(m.code) != 6 {
		t.Fatalf("unexpected mail %+v", m)
	}
	if got := f.pub.names(); len(got) != 1 || got[0] != "user.registered" {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestSignupValidation(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Signup(context.Background(), dto.SignupRequest{Username: "x", Email: "nope", Password: "short"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail expected")
	}
}

func TestSignupConflicts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code := f.signup(t, "alice", "alice@example.com")

	// username held by another (unverified) account
	_, err := f.svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "other@example.com", Password: "correct horse"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if err := f.svc.VerifyCode(ctx, dto.VerifyCodeRequest{Username: "alice", Code: code}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	_, err = f.svc.Signup(ctx, dto.SignupRequest{Username: "alice2", Email: "alice@example.com", Password: "correct horse"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupRefreshesUnverifiedAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	first := f.signup(t, "alice", "alice@example.com")
	before, _ := f.st.Users().GetByEmail(ctx, "alice@example.com")

	second := f.signup(t, "alice_new", "alice@example.com")

	after, err := f.st.Users().GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if after.ID != before.ID || after.Username != "alice_new" {
		t.Fatalf("expected same account renamed, got %+v", after)
	}
	if first == second {
		t.Fatalf("expected a fresh code, got %s twice", first)
	}
	err = f.svc.VerifyCode(ctx, dto.VerifyCodeRequest{Username: "alice_new", Code: first})
	if !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("old code should be replaced, got %v", err)
	}
}

func TestCheckUsername(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	if err := f.svc.CheckUsername(ctx, "bob"); err != nil {
		t.Fatalf("bob should be free: %v", err)
	}
	if err := f.svc.CheckUsername(ctx, "alice"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := f.svc.CheckUsername(ctx, "a b"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVerifyCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code := f.signup(t, "alice", "alice@example.com")

	wrong := "000000"

	cases := []struct {
		name string
		req  dto.VerifyCodeRequest
		want error
	}{
		{"malformed", dto.VerifyCodeRequest{Username: "alice", Code: "12ab"}, domain.ErrInvalidInput},
		{"unknown user", dto.VerifyCodeRequest{Username: "nobody", Code: code}, domain.ErrUserNotFound},
		{"mismatch", dto.VerifyCodeRequest{Username: "alice", Code: wrong}, domain.ErrCodeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := f.svc.VerifyCode(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if err := f.svc.VerifyCode(ctx, dto.VerifyCodeRequest{Username: "alice", Code: code}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	u, _ := f.st.Users().GetByUsername(ctx, "alice")
	if !u.EmailVerified {
		t.Fatalf("user not marked verified")
	}
	if _, err := f.st.Verifications().GetByUserID(ctx, u.ID); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("code should be consumed, got %v", err)
	}
	if err := f.svc.VerifyCode(ctx, dto.VerifyCodeRequest{Username: "alice", Code: code}); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestVerifyCodeExpired(t *testing.T) {
	f := newAuthFixture(t)
	code := f.signup(t, "alice", "alice@example.com")

	f.now = f.now.Add(time.Hour)
	err := f.svc.VerifyCode(context.Background(), dto.VerifyCodeRequest{Username: "alice", Code: code})
	if !errors.Is(err, domain.ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired at expiry instant, got %v", err)
	}
}

func TestSignin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code := f.signup(t, "alice", "alice@example.com")

	_, _, err := f.svc.Signin(ctx, dto.SigninRequest{Identifier: "alice", Password: "correct horse"})
	if !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}

	if err := f.svc.VerifyCode(ctx, dto.VerifyCodeRequest{Username: "alice", Code: code}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	cases := []struct {
		name string
		req  dto.SigninRequest
		want error
	}{
		{"missing fields", dto.SigninRequest{}, domain.ErrInvalidInput},
		{"unknown user", dto.SigninRequest{Identifier: "bob", Password: "correct horse"}, domain.ErrInvalidCredentials},
		{"wrong password", dto.SigninRequest{Identifier: "alice", Password: "battery staple"}, domain.ErrInvalidCredentials},
		{"by username", dto.SigninRequest{Identifier: "alice", Password: "correct horse"}, nil},
		{"by email", dto.SigninRequest{Identifier: "ALICE@example.com", Password: "correct horse"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, user, err := f.svc.Signin(ctx, tc.req)
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("signin: %v", err)
			}
			if tok.Token != "token-alice" || user.Username != "alice" {
				t.Fatalf("unexpected result %+v %+v", tok, user)
			}
		})
	}
	if len(f.tokens.issueCalls) != 2 {
		t.Fatalf("expected two issued tokens, got %d", len(f.tokens.issueCalls))
	}
}

func TestSigninRehashesLegacyBcrypt(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.st, "legacy", true)

	legacy, err := bcrypt.GenerateFromPassword([]byte("old password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := f.st.Credentials().UpsertPassword(ctx, &domain.PasswordCredential{
		UserID: u.ID, Algo: "bcrypt", Hash: legacy, ParamsJSON: []byte("{}"), PasswordVer: 0,
	}); err != nil {
		t.Fatalf("seed credential: %v", err)
	}

	if _, _, err := f.svc.Signin(ctx, dto.SigninRequest{Identifier: "legacy", Password: "old password"}); err != nil {
		t.Fatalf("signin: %v", err)
	}

	cred, err := f.st.Credentials().GetPasswordByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if cred.Algo != "argon2id" {
		t.Fatalf("expected argon2id after rehash, got %q", cred.Algo)
	}
	if _, _, err := f.svc.Signin(ctx, dto.SigninRequest{Identifier: "legacy", Password: "old password"}); err != nil {
		t.Fatalf("signin after rehash: %v", err)
	}
}

func TestSigninTokenFailure(t *testing.T) {
	f := newAuthFixture(t)
	u := seedUser(t, f.st, "carol", true)
	hash, salt, params, algo, ver, _ := f.svc.PasswordService.Hash("correct horse")
	_ = f.st.Credentials().UpsertPassword(context.Background(), &domain.PasswordCredential{
		UserID: u.ID, Algo: algo, Hash: hash, Salt: salt, ParamsJSON: params, PasswordVer: ver,
	})

	f.tokens.issueErr = errors.New("signer offline")
	_, _, err := f.svc.Signin(context.Background(), dto.SigninRequest{Identifier: "carol", Password: "correct horse"})
	if err == nil || !strings.Contains(err.Error(), "signer offline") {
		t.Fatalf("expected wrapped token error, got %v", err)
	}
}

func TestSignupMailFailureDoesNotFail(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.err = errors.New("smtp down")
	if _, err := f.svc.Signup(context.Background(), dto.SignupRequest{Username: "dave", Email: "dave@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("signup should survive mail failure: %v", err)
	}
}

func TestSession(t *testing.T) {
	f := newAuthFixture(t)
	u := seedUser(t, f.st, "erin", true)

	got, err := f.svc.Session(context.Background(), u.ID)
	if err != nil || got.Username != "erin" {
		t.Fatalf("session: %v %+v", err, got)
	}
	if _, err := f.svc.Session(context.Background(), uuid.New()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUsernamesAreNormalizedEverywhere(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code := f.signup(t, " Bob ", "Bob@Example.com")

	u, err := f.st.Users().GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("stored username should be lower-case: %v", err)
	}
	if u.Email != "bob@example.com" {
		t.Fatalf("email = %q", u.Email)
	}

	for _, name := range []string{"bob", " bob", "BOB", "Bob "} {
		if err := f.svc.CheckUsername(ctx, name); !errors.Is(err, domain.ErrUsernameTaken) {
			t.Fatalf("CheckUsername(%q): expected ErrUsernameTaken, got %v", name, err)
		}
	}

	if err := f.svc.VerifyCode(ctx, dto.VerifyCodeRequest{Username: " BOB", Code: code}); err != nil {
		t.Fatalf("verify with different case: %v", err)
	}
	if _, _, err := f.svc.Signin(ctx, dto.SigninRequest{Identifier: "Bob", Password: "correct horse"}); err != nil {
		t.Fatalf("signin by username with different case: %v", err)
	}
	if _, _, err := f.svc.Signin(ctx, dto.SigninRequest{Identifier: "BOB@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("signin by email with different case: %v", err)
	}
}
