package user

// PasswordHasher is satisfied by BcryptHasher; tests swap in cheaper stubs.
type PasswordHasher interface {
	Hash(password []byte) ([]byte, error)
	Compare(hash, password []byte) error
}

// MinPasswordLength applies to passwords chosen by people, not generated ones.
const MinPasswordLength = 8
