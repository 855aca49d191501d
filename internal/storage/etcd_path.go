package storage

import (
	"fmt"
	"net/url"
	"strings"
)

func contactsPrefix(prefix string) string {
	return fmt.Sprintf("%s/contacts/", strings.TrimRight(prefix, "/"))
}

func keyForContact(prefix, name string) string {
	return contactsPrefix(prefix) + url.PathEscape(name)
}

func lockKey(prefix, key string) string {
	return fmt.Sprintf("%s/locks/%s", strings.TrimRight(prefix, "/"), key)
}

// nameFromKey reverses keyForContact.
func nameFromKey(prefix, key string) (string, error) {
	escaped := strings.TrimPrefix(key, contactsPrefix(prefix))
	name, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("invalid contact key %s: %w", key, err)
	}
	return name, nil
}
