package aws_handler

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// SecretManager reads deployment secrets. Each secret is fetched once per process.
type SecretManager struct {
	svc   secretsmanageriface.SecretsManagerAPI
	mu    sync.Mutex
	cache map[string]string
}

func NewSecretManager(svc secretsmanageriface.SecretsManagerAPI) *SecretManager {
	return &SecretManager{svc: svc, cache: make(map[string]string)}
}

// GetSecretValue returns the plain-text value of a secret.
// An id of the form "name#field" selects one field of a JSON secret, the format RDS uses for generated credentials.
func (s *SecretManager) GetSecretValue(secretID string) (string, error) {
	name, field, hasField := strings.Cut(secretID, "#")
	raw, err := s.secretString(name)
	if err != nil {
		return "", err
	}
	if !hasField {
		return raw, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", name, err)
	}
	value, ok := fields[field]
	if !ok {
		return "", fmt.Errorf("secret %s has no field %q", name, field)
	}
	if str, ok := value.(string); ok {
		return str, nil
	}
	return fmt.Sprint(value), nil
}

func (s *SecretManager) secretString(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.cache[name]; ok {
		return value, nil
	}

	result, err := s.svc.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", err
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.cache[name] = *result.SecretString
	return *result.SecretString, nil
}
