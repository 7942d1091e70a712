package fetch

import "os"

// CredInstagramSessionID is the credential key for the Instagram session
// cookie used by the Instagram fetcher.
const CredInstagramSessionID = "instagram.session_id"

// CredentialStore is a read-only key/value lookup for platform credentials.
type CredentialStore interface {
	Get(key string) (string, bool)
}

// EnvCredentialStore resolves credentials from environment variables.
// Keys are mapped as "instagram.session_id" -> LADLE_INSTAGRAM_SESSION_ID.
type EnvCredentialStore struct {
	Prefix string // defaults to "LADLE"
}

func (s EnvCredentialStore) Get(key string) (string, bool) {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "LADLE"
	}
	name := prefix + "_" + envName(key)
	v := os.Getenv(name)
	return v, v != ""
}

func envName(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c == '.' || c == '-':
			out = append(out, '_')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// StaticCredentialStore serves credentials from a fixed map. Used in tests.
type StaticCredentialStore map[string]string

func (s StaticCredentialStore) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}
