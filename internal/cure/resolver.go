// Package cure resolves predicted class names to remediation steps.
package cure

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	HealthyLabel = "Healthy Plant"
	healthyKey   = "healthy"
)

var (
	DefaultHealthySteps = []string{"No action needed. Keep maintaining good agricultural practices."}
	NoInformation       = []string{"No cure information available."}
)

// Table maps class-name variants to ordered remediation steps.
type Table map[string][]string

func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cures: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse cures: %w", err)
	}
	return table, nil
}

// Resolution is the display label and steps for one class.
type Resolution struct {
	Label   string
	Healthy bool
	Steps   []string
}

type Resolver struct {
	table Table
}

func NewResolver(table Table) *Resolver {
	if table == nil {
		table = Table{}
	}
	return &Resolver{table: table}
}

// IsHealthy reports whether class names a healthy leaf.
func IsHealthy(class string) bool {
	return strings.Contains(strings.ToLower(class), healthyKey)
}

// DisplayName turns "Corn_(maize)_Common_rust" into "Corn maize Common rust".
func DisplayName(class string) string {
	return strings.NewReplacer("_", " ", "(", "", ")", "").Replace(class)
}

// Keys returns the lookup keys for a disease class in the order they are tried.
func Keys(class string) []string {
	return []string{
		class,
		strings.ReplaceAll(class, "_", " "),
		DisplayName(class),
	}
}

func (r *Resolver) Resolve(class string) Resolution {
	if IsHealthy(class) {
		// A present key wins even when its list is empty.
		steps, ok := r.table[healthyKey]
		if !ok {
			steps = DefaultHealthySteps
		}
		return Resolution{Label: HealthyLabel, Healthy: true, Steps: append([]string{}, steps...)}
	}

	res := Resolution{Label: DisplayName(class), Steps: NoInformation}
	for _, key := range Keys(class) {
		if steps, ok := r.lookup(key); ok {
			res.Steps = steps
			break
		}
	}
	return res
}

// lookup treats an empty list as a miss.
func (r *Resolver) lookup(key string) ([]string, bool) {
	steps := r.table[key]
	if len(steps) == 0 {
		return nil, false
	}
	out := make([]string, len(steps))
	copy(out, steps)
	return out, true
}
