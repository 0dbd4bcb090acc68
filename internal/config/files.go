package config

import (
	"fmt"
	"os"

	"appointease/internal/models"

	"gopkg.in/yaml.v3"
)

// ServicesFile is the root of services.yaml.
type ServicesFile struct {
	Services []models.Service `yaml:"services"`
}

// UsersFile is the root of users.yaml.
type UsersFile struct {
	Users []models.User `yaml:"users"`
}

// LoadServices reads and validates the service catalog file.
func LoadServices(path string) ([]models.Service, error) {
	var f ServicesFile
	if err := readYAML(path, &f); err != nil {
		return nil, fmt.Errorf("read services: %w", err)
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("%s: no services defined", path)
	}
	for i := range f.Services {
		if err := f.Services[i].Validate(); err != nil {
			return nil, fmt.Errorf("service %d: %w", i, err)
		}
	}
	return f.Services, nil
}

// LoadUsers reads the user directory file.
func LoadUsers(path string) ([]models.User, error) {
	var f UsersFile
	if err := readYAML(path, &f); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	seen := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("user %d: id is required", i)
		}
		if seen[u.ID] {
			return nil, fmt.Errorf("user %d: duplicate id %s", i, u.ID)
		}
		seen[u.ID] = true
		switch u.Role {
		case "", models.RoleUser, models.RoleAdmin:
		default:
			return nil, fmt.Errorf("user %s: unknown role %q", u.ID, u.Role)
		}
	}
	return f.Users, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), out)
}
