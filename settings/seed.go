package settings

// Well-known keys. The key and type of each row is an interop contract with
// the administrative settings surface; renaming one is a breaking change.
const (
	// KeyAccessExpiryMinutes is an exported constant or variable used by the security engine.
	KeyAccessExpiryMinutes = "jwt.access.expiry-minutes"
	// KeyRefreshExpiryMinutes is an exported constant or variable used by the security engine.
	KeyRefreshExpiryMinutes = "jwt.refresh.expiry-minutes"
	// KeyVerificationExpirySeconds is an exported constant or variable used by the security engine.
	KeyVerificationExpirySeconds = "jwt.verification.expiry-seconds"
	// KeyRegistrationExpiryMinutes is an exported constant or variable used by the security engine.
	KeyRegistrationExpiryMinutes = "jwt.registration.expiry-minutes"
	// KeyObfuscationMinLength is an exported constant or variable used by the security engine.
	KeyObfuscationMinLength = "obfuscation.min-length"
	// KeyObfuscationSaltLength is an exported constant or variable used by the security engine.
	KeyObfuscationSaltLength = "obfuscation.salt-length"
	// KeyObfuscationAlphabet is an exported constant or variable used by the security engine.
	KeyObfuscationAlphabet = "obfuscation.alphabet"
	// KeyPasswordMinLength is an exported constant or variable used by the security engine.
	KeyPasswordMinLength = "password.min-length"
	// KeyPasswordMaxLength is an exported constant or variable used by the security engine.
	KeyPasswordMaxLength = "password.max-length"
	// KeyPasswordRequireUppercase is an exported constant or variable used by the security engine.
	KeyPasswordRequireUppercase = "password.require-uppercase"
	// KeyPasswordRequireLowercase is an exported constant or variable used by the security engine.
	KeyPasswordRequireLowercase = "password.require-lowercase"
	// KeyPasswordRequireDigit is an exported constant or variable used by the security engine.
	KeyPasswordRequireDigit = "password.require-digit"
	// KeyPasswordRequireSpecial is an exported constant or variable used by the security engine.
	KeyPasswordRequireSpecial = "password.require-special"
	// KeyLockoutEnabled is an exported constant or variable used by the security engine.
	KeyLockoutEnabled = "lockout.enabled"
	// KeyLockoutMaxAttempts is an exported constant or variable used by the security engine.
	KeyLockoutMaxAttempts = "lockout.max-attempts"
	// KeyLockoutDurationMinutes is an exported constant or variable used by the security engine.
	KeyLockoutDurationMinutes = "lockout.duration-minutes"
	// KeyLockoutCounterResetMinutes is an exported constant or variable used by the security engine.
	KeyLockoutCounterResetMinutes = "lockout.counter-reset-minutes"
	// KeyLoginRateEnabled is an exported constant or variable used by the security engine.
	KeyLoginRateEnabled = "ratelimit.login.enabled"
	// KeyLoginRateCapacity is an exported constant or variable used by the security engine.
	KeyLoginRateCapacity = "ratelimit.login.capacity"
	// KeyLoginRateRefillTokens is an exported constant or variable used by the security engine.
	KeyLoginRateRefillTokens = "ratelimit.login.refill-tokens"
	// KeyLoginRateRefillSeconds is an exported constant or variable used by the security engine.
	KeyLoginRateRefillSeconds = "ratelimit.login.refill-seconds"
	// KeyAccessDefaultAllow is an exported constant or variable used by the security engine.
	KeyAccessDefaultAllow = "access.default-allow"
)

// DefaultAlphabet is the base62 alphabet used by the identifier obfuscator
// unless overridden through settings.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

/*
====================================
SEED TABLE
====================================
*/

// Defaults returns the full system-default settings table. Seed inserts each
// row only when the key does not already exist.
func Defaults() []Setting {
	return []Setting{
		{Key: KeyAccessExpiryMinutes, Value: "180", Type: TypeInt, Category: "jwt"},
		{Key: KeyRefreshExpiryMinutes, Value: "10080", Type: TypeLong, Category: "jwt"},
		{Key: KeyVerificationExpirySeconds, Value: "180", Type: TypeInt, Category: "jwt"},
		{Key: KeyRegistrationExpiryMinutes, Value: "60", Type: TypeInt, Category: "jwt"},
		{Key: KeyObfuscationMinLength, Value: "8", Type: TypeInt, Category: "obfuscation"},
		{Key: KeyObfuscationSaltLength, Value: "16", Type: TypeInt, Category: "obfuscation"},
		{Key: KeyObfuscationAlphabet, Value: DefaultAlphabet, Type: TypeString, Category: "obfuscation"},
		{Key: KeyPasswordMinLength, Value: "8", Type: TypeInt, Category: "password"},
		{Key: KeyPasswordMaxLength, Value: "64", Type: TypeInt, Category: "password"},
		{Key: KeyPasswordRequireUppercase, Value: "true", Type: TypeBool, Category: "password"},
		{Key: KeyPasswordRequireLowercase, Value: "true", Type: TypeBool, Category: "password"},
		{Key: KeyPasswordRequireDigit, Value: "true", Type: TypeBool, Category: "password"},
		{Key: KeyPasswordRequireSpecial, Value: "true", Type: TypeBool, Category: "password"},
		{Key: KeyLockoutEnabled, Value: "true", Type: TypeBool, Category: "lockout"},
		{Key: KeyLockoutMaxAttempts, Value: "5", Type: TypeInt, Category: "lockout"},
		{Key: KeyLockoutDurationMinutes, Value: "15", Type: TypeInt, Category: "lockout"},
		{Key: KeyLockoutCounterResetMinutes, Value: "30", Type: TypeInt, Category: "lockout"},
		{Key: KeyLoginRateEnabled, Value: "true", Type: TypeBool, Category: "ratelimit"},
		{Key: KeyLoginRateCapacity, Value: "5", Type: TypeInt, Category: "ratelimit"},
		{Key: KeyLoginRateRefillTokens, Value: "5.0", Type: TypeDouble, Category: "ratelimit"},
		{Key: KeyLoginRateRefillSeconds, Value: "60", Type: TypeInt, Category: "ratelimit"},
		{Key: KeyAccessDefaultAllow, Value: "true", Type: TypeBool, Category: "access"},
	}
}
