// Package credentials loads AWS keys from a dl.cfg style INI file or a dotenv
// file. Keys are returned to the caller; the process environment is never
// modified.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ini/ini"
	"github.com/joho/godotenv"
)

const (
	// Section is the INI section holding the keys.
	Section = "AWS"

	KeyAccessKeyID     = "AWS_ACCESS_KEY_ID"
	KeySecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	KeySessionToken    = "AWS_SESSION_TOKEN"
	KeyRegion          = "AWS_REGION"
)

var ErrMissingKey = errors.New("missing credential key")

type AWS struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Region is optional; empty leaves the region to the storage options.
	Region string
}

// Empty reports whether no static key was provided, in which case the SDK
// default provider chain applies.
func (a AWS) Empty() bool {
	return a.AccessKeyID == "" && a.SecretAccessKey == ""
}

// String never prints the secret.
func (a AWS) String() string {
	if a.Empty() {
		return "AWS{default chain}"
	}
	return fmt.Sprintf("AWS{AccessKeyID: %s, SecretAccessKey: ****}", mask(a.AccessKeyID))
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// Load reads the [AWS] section of an INI file. Section and key names are
// matched case-insensitively. Both the access key id and the secret are
// required.
func Load(path string) (AWS, error) {
	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, path)
	if err != nil {
		return AWS{}, fmt.Errorf("load credentials %s: %w", path, err)
	}
	sec, err := f.GetSection(Section)
	if err != nil {
		return AWS{}, fmt.Errorf("%w: section [%s] in %s", ErrMissingKey, Section, path)
	}
	get := func(k string) string {
		if !sec.HasKey(k) {
			return ""
		}
		return strings.TrimSpace(sec.Key(k).String())
	}
	return fromLookup(path, get)
}

// FromEnvFile reads the keys from a dotenv file.
func FromEnvFile(path string) (AWS, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return AWS{}, fmt.Errorf("load credentials %s: %w", path, err)
	}
	return fromLookup(path, func(k string) string { return strings.TrimSpace(m[k]) })
}

func fromLookup(src string, get func(string) string) (AWS, error) {
	a := AWS{
		AccessKeyID:     get(KeyAccessKeyID),
		SecretAccessKey: get(KeySecretAccessKey),
		SessionToken:    get(KeySessionToken),
		Region:          get(KeyRegion),
	}
	if a.AccessKeyID == "" {
		return AWS{}, fmt.Errorf("%w: %s in %s", ErrMissingKey, KeyAccessKeyID, src)
	}
	if a.SecretAccessKey == "" {
		return AWS{}, fmt.Errorf("%w: %s in %s", ErrMissingKey, KeySecretAccessKey, src)
	}
	return a, nil
}
