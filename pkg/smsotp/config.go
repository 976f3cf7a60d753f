package smsotp

// Config carries the externally supplied OTP policy. Values are read at
// issuance and verification time, not baked into stored records.
type Config struct {
	// ExpirationSeconds is the OTP time-to-live.
	ExpirationSeconds int `env:"SMS_OTP_EXPIRATION_SECONDS" env-default:"300"`
	// MaxVerifyTries is the verification attempt budget per message.
	MaxVerifyTries int `env:"SMS_OTP_MAX_VERIFY_TRIES" env-default:"5"`
	// CodeDigits is the length of the generated authorization code.
	CodeDigits int `env:"SMS_OTP_CODE_DIGITS" env-default:"8"`
}

// DefaultConfig returns the default OTP policy.
func DefaultConfig() Config {
	return Config{
		ExpirationSeconds: 300,
		MaxVerifyTries:    5,
		CodeDigits:        8,
	}
}
