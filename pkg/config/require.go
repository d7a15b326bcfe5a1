package config

import (
	"bytes"
	"fmt"
	"log"
	"strings"
)

func requireSetting(envName string, present bool) error {
	if present {
		return nil
	}
	return fmt.Errorf("shop config: %s is required", envName)
}

// MustNonEmpty stops startup when a required setting is blank.
func MustNonEmpty(value, envName string) {
	if err := requireSetting(envName, strings.TrimSpace(value) != ""); err != nil {
		log.Fatal(err)
	}
}

// MustSecret is MustNonEmpty for key material such as JWT_SECRET.
func MustSecret(value []byte, envName string) {
	if err := requireSetting(envName, len(bytes.TrimSpace(value)) > 0); err != nil {
		log.Fatal(err)
	}
}
