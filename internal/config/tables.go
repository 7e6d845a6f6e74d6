package config

import (
    "fmt"
    "os"

    "gopkg.in/yaml.v3"

    "github.com/iliyamo/table-reservation/internal/model"
)

// tableLayoutFile is the on-disk shape of TABLES_FILE:
//
//   tables:
//     - id: 1
//       capacity: 4
//       type: window
type tableLayoutFile struct {
    Tables []model.Table `yaml:"tables"`
}

// LoadTableLayout returns the dining room layout.  An empty path selects
// model.DefaultLayout.  Table IDs must be unique and positive and every
// table must seat at least one guest.
func LoadTableLayout(path string) ([]model.Table, error) {
    if path == "" {
        return model.DefaultLayout(), nil
    }
    raw, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("read table layout: %w", err)
    }
    var f tableLayoutFile
    if err := yaml.Unmarshal(raw, &f); err != nil {
        return nil, fmt.Errorf("parse table layout: %w", err)
    }
    if len(f.Tables) == 0 {
        return nil, fmt.Errorf("table layout %s defines no tables", path)
    }
    seen := make(map[uint64]bool, len(f.Tables))
    for _, t := range f.Tables {
        if t.ID == 0 {
            return nil, fmt.Errorf("table layout: table id must be positive")
        }
        if seen[t.ID] {
            return nil, fmt.Errorf("table layout: duplicate table id %d", t.ID)
        }
        if t.Capacity < 1 {
            return nil, fmt.Errorf("table layout: table %d must seat at least one guest", t.ID)
        }
        seen[t.ID] = true
    }
    return f.Tables, nil
}
