package user

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	otpSalt = []byte("darasa.core.user.otp")
	NowFunc = time.Now // mockable

	otpMax = big.NewInt(1000000) // 6 digits
)

// generateOTP returns a random zero-padded 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// hashOTP signs the code so the clear value is never persisted.
func hashOTP(code string, conf *core.Config) []byte {
	key := sha256.Sum256(append(otpSalt, conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(code))
	return h.Sum(nil)
}

// verifyOTP checks a submitted code against the stored hash and its deadline.
func verifyOTP(usr User, code string, conf *core.Config) error {
	if len(usr.OTPHash) == 0 || code == "" {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare(hashOTP(code, conf), usr.OTPHash) == 0 {
		return ErrInvalidOTP
	}
	if NowFunc().After(usr.OTPExpiresAt) {
		return ErrOTPExpired
	}
	return nil
}
