package realm

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"
)

// accountPrefix marks a stored credential string as a reference to an OS
// account rather than a literal password, e.g. "$p$admin".
const accountPrefix = "$p$"

// ParseStoredCredential interprets a configuration-time credential string:
// a plaintext password, or, for the "$p$<account>" form, a reference to be
// resolved against the shadow (preferred) or passwd database.
func ParseStoredCredential(stored string) (Credential, error) {
	if !strings.HasPrefix(stored, accountPrefix) {
		return PlaintextCredential{Stored: stored}, nil
	}

	account := stored[len(accountPrefix):]
	hash, err := resolveAccountHash(account)
	if err != nil {
		return nil, fmt.Errorf("realm: resolving account %q: %w", account, err)
	}
	return NewHashCredential(hash, nil), nil
}

// resolveAccountHash looks up account's password hash, trying the shadow
// database first and falling back to passwd, mirroring uh_auth_add's
// getspnam()-then-getpwnam() order. It shells out to getent rather than
// linking libc's shadow/passwd routines directly, since those are not
// reachable from pure Go without cgo.
func resolveAccountHash(account string) (string, error) {
	if hash, err := getentField(1, "shadow", account); err == nil && hash != "" && hash != "!" && hash != "*" {
		return hash, nil
	}
	hash, err := getentField(1, "passwd", account)
	if err != nil {
		return "", err
	}
	if hash == "" || hash == "x" || hash == "!" || hash == "*" {
		return "", fmt.Errorf("no usable password hash for account %q", account)
	}
	return hash, nil
}

// getentField runs "getent <db> <account>" and returns the field-th colon
// separated column (0-indexed) of the first matching line.
func getentField(field int, db, account string) (string, error) {
	cmd := exec.Command("getent", db, account)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	if !scanner.Scan() {
		return "", fmt.Errorf("getent %s %s: no entry", db, account)
	}
	cols := strings.Split(scanner.Text(), ":")
	if field >= len(cols) {
		return "", fmt.Errorf("getent %s %s: malformed entry", db, account)
	}
	return cols[field], nil
}
