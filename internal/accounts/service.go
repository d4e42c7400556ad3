// Package accounts holds the balance-sheet account chart the inventory
// helper targets.
package accounts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/stockval/internal/model"
)

// FileName is the chart file written by init and read by Load.
const FileName = "accounts.csv"

// Service provides in-memory lookup over the account chart.
type Service struct {
	accounts []model.Account
	byID     map[int]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Load reads accounts.csv from a project directory.
func Load(baseDir string) (*Service, error) {
	return LoadFile(filepath.Join(baseDir, FileName))
}

// LoadFile reads an account chart from path.
func LoadFile(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening account chart: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading account chart: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType string) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Inventory returns the accounts the inventory helper may open on.
func (s *Service) Inventory() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.IsInventory() {
			result = append(result, a)
		}
	}
	return result
}

// Save writes the chart to <baseDir>/accounts.csv.
func (s *Service) Save(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("creating project dir: %w", err)
	}

	path := filepath.Join(baseDir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating account chart file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing account chart: %w", err)
	}
	return nil
}
