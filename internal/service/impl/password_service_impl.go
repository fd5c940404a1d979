package impl

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"

	"inkognito/internal/service"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	algoArgon2id = "argon2id"
	algoBcrypt   = "bcrypt"
)

type Argon2Params struct {
	// Stored alongside the hash so verification uses the original cost.
	Time    uint32 `json:"t"` // iterations
	Memory  uint32 `json:"m"` // KiB (e.g., 64*1024 = 64MB)
	Threads uint8  `json:"p"` // parallelism
	KeyLen  uint32 `json:"k"` // bytes (e.g., 32)
	SaltLen uint32 `json:"s"` // bytes (e.g., 16)
}

var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024, // 64 MiB
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

type PasswordServiceImpl struct {
	currentVer int          // bump when you change policy
	cur        Argon2Params // current policy used for new hashes
}

func NewPasswordServiceArgon2id() *PasswordServiceImpl {
	return NewPasswordServiceWithParams(DefaultArgon2Params, 1)
}

func NewPasswordServiceWithParams(p Argon2Params, ver int) *PasswordServiceImpl {
	return &PasswordServiceImpl{currentVer: ver, cur: p}
}

func (p *PasswordServiceImpl) Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
	if password == "" {
		return nil, nil, nil, "", 0, ErrEmptyPassword
	}
	salt = make([]byte, p.cur.SaltLen)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, nil, "", 0, err
	}
	hash = argon2.IDKey([]byte(password), salt, p.cur.Time, p.cur.Memory, p.cur.Threads, p.cur.KeyLen)
	paramsJSON, err = json.Marshal(p.cur)
	if err != nil {
		return nil, nil, nil, "", 0, err
	}
	return hash, salt, paramsJSON, algoArgon2id, p.currentVer, nil
}

// Verify checks password against cred. Legacy bcrypt hashes verify and
// always ask for a rehash; argon2id hashes ask for one when the stored
// parameters differ from the current policy.
func (p *PasswordServiceImpl) Verify(password string, cred service.Credential) (rehashNeeded bool, ok bool) {
	switch cred.GetAlgo() {
	case algoBcrypt:
		if err := bcrypt.CompareHashAndPassword(cred.GetHash(), []byte(password)); err != nil {
			return false, false
		}
		return true, true
	case algoArgon2id:
	default:
		return false, false
	}

	var stored Argon2Params
	if err := json.Unmarshal(cred.GetParamsJSON(), &stored); err != nil {
		return false, false
	}
	calculated := argon2.IDKey([]byte(password), cred.GetSalt(), stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	ok = subtle.ConstantTimeCompare(calculated, cred.GetHash()) == 1

	rehashNeeded = ok && (cred.GetPasswordVer() != p.currentVer || stored != p.cur)
	return rehashNeeded, ok
}
