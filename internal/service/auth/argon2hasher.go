package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrPasswordMismatch = errors.New("password does not match")

// Argon2id password hasher
// Digest is self contained in PHC format: $argon2id$v=19$m=...,t=...,p=...$salt$hash
// so parameters may be changed later without breaking stored digests
type Argon2Hasher struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHasher will be used if service user not provide it's own
var DefaultHasher = Argon2Hasher{
	Memory:      64 * 1024,
	Time:        1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("error while generating salt. Err: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Parallelism, h.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.Memory,
		h.Time,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Compare known hashedPassword and user provided password
// Recomputes the digest under the embedded parameters and compares in
// constant time. Malformed digests compare as mismatch, never panic
func (h Argon2Hasher) Compare(hashedPassword string, password string) error {
	memory, time, parallelism, salt, hash, err := decodeDigest(hashedPassword)
	if err != nil {
		return ErrPasswordMismatch
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, parallelism, uint32(len(hash)))

	if subtle.ConstantTimeCompare(computed, hash) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func decodeDigest(digest string) (memory uint32, time uint32, parallelism uint8, salt []byte, hash []byte, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("not an argon2id digest")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	for _, param := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			return 0, 0, 0, nil, nil, errors.New("malformed argon2 params")
		}
		// Parallelism is a single byte in the digest, larger values must not
		// silently wrap around
		bits := 32
		if key == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return 0, 0, 0, nil, nil, err
		}
		switch key {
		case "m":
			memory = uint32(n)
		case "t":
			time = uint32(n)
		case "p":
			parallelism = uint8(n)
		default:
			return 0, 0, 0, nil, nil, errors.New("malformed argon2 params")
		}
	}
	if memory == 0 || time == 0 || parallelism == 0 {
		return 0, 0, 0, nil, nil, errors.New("malformed argon2 params")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if len(hash) == 0 {
		return 0, 0, 0, nil, nil, errors.New("malformed argon2 digest")
	}

	return memory, time, parallelism, salt, hash, nil
}
