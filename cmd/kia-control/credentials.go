package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/99designs/keyring"
	"golang.org/x/term"

	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

const (
	keyringServiceName = "com.kiaconnect.owner"
	keyringPasswordKey = "ownerPassword"
	keyringPINKey      = "ownerPIN"
	keyringDirectory   = "~/.kia_credentials"
)

// promptSecret reads a secret from the terminal without echoing it. Prompts go to stderr when
// stdout is redirected so that piped output stays clean.
func promptSecret(prompt string) (string, error) {
	var w io.Writer
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fd = int(os.Stderr.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("no terminal output available for password prompt")
		}
		w = os.Stderr
	} else {
		w = os.Stdout
	}

	fmt.Fprintf(w, "%s: ", prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	return string(b), nil
}

func openKeyring() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName:              keyringServiceName,
		FileDir:                  keyringDirectory,
		KeychainTrustApplication: true,
		FilePasswordFunc: func(prompt string) (string, error) {
			return promptSecret(prompt + " (keyring file)")
		},
	})
}

// keyringSecret fetches a secret from the keyring, prompting for it and enrolling it on a miss.
func keyringSecret(kr keyring.Keyring, username, key, prompt string) (string, error) {
	fullKey := key + "." + username
	item, err := kr.Get(fullKey)
	if err == nil {
		return string(item.Data), nil
	}
	if err != keyring.ErrKeyNotFound {
		return "", fmt.Errorf("could not load %s: %s", key, err)
	}
	secret, err := promptSecret(prompt)
	if err != nil {
		return "", err
	}
	if err := kr.Set(keyring.Item{Key: fullKey, Data: []byte(secret)}); err != nil {
		return "", fmt.Errorf("failed to enroll %s in keyring: %s", key, err)
	}
	return secret, nil
}

// loadCredentials assembles account credentials from flags, the environment, the system keyring,
// and interactive prompts, in that order of precedence.
func loadCredentials(username string, regionCode int, useKeyring bool) (uvo.Credentials, error) {
	var creds uvo.Credentials

	if username == "" {
		username = os.Getenv("KIA_USERNAME")
	}
	if username == "" {
		return creds, fmt.Errorf("no username provided (use -username or KIA_USERNAME)")
	}
	creds.Username = username

	if regionCode == 0 {
		if regionEnv := os.Getenv("KIA_REGION"); regionEnv != "" {
			var err error
			if regionCode, err = strconv.Atoi(regionEnv); err != nil {
				return creds, fmt.Errorf("invalid KIA_REGION: %s", err)
			}
		} else {
			regionCode = int(uvo.RegionDefault)
		}
	}
	region, err := uvo.ParseRegion(regionCode)
	if err != nil {
		return creds, err
	}
	creds.Region = region

	creds.Password = os.Getenv("KIA_PASSWORD")
	creds.PIN = os.Getenv("KIA_PIN")
	if creds.Password != "" && creds.PIN != "" {
		return creds, nil
	}

	if useKeyring {
		kr, err := openKeyring()
		if err != nil {
			return creds, err
		}
		if creds.Password == "" {
			if creds.Password, err = keyringSecret(kr, username, keyringPasswordKey, "Account password"); err != nil {
				return creds, err
			}
		}
		if creds.PIN == "" {
			if creds.PIN, err = keyringSecret(kr, username, keyringPINKey, "Account PIN"); err != nil {
				return creds, err
			}
		}
		return creds, nil
	}

	if creds.Password == "" {
		if creds.Password, err = promptSecret("Account password"); err != nil {
			return creds, err
		}
	}
	if creds.PIN == "" {
		if creds.PIN, err = promptSecret("Account PIN"); err != nil {
			return creds, err
		}
	}
	return creds, nil
}
