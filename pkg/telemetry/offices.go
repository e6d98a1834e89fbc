package telemetry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// officeTable maps the backend's human-facing office labels to agent ids.
// The backend's label set evolves independently of this table; an unmapped
// label skips the state update but stays visible in the raw log, so drift
// degrades to missing worker-pool stats rather than lost events.
var officeTable = map[string]AgentID{
	"coder office":         AgentCoder,
	"tester office":        AgentTester,
	"designer office":      AgentDesigner,
	"reviewer office":      AgentReviewer,
	"research office":      AgentResearcher,
	"tech stack office":    AgentTechArch,
	"db designer office":   AgentDBDesigner,
	"security office":      AgentSecurity,
	"documentation office": AgentDocsManager,
	"planner office":       AgentPlanner,
	"fix office":           AgentFix,
}

// UnknownOfficeError reports a WorkerStatus office label with no agent mapping.
type UnknownOfficeError struct {
	Office string
}

func (e *UnknownOfficeError) Error() string {
	return fmt.Sprintf("unknown office label %q", e.Office)
}

// OfficeMap resolves office labels to agent ids. The zero value is unusable;
// construct with DefaultOfficeMap or LoadOfficeMap.
type OfficeMap struct {
	labels map[string]AgentID
}

// DefaultOfficeMap returns the built-in office table.
func DefaultOfficeMap() *OfficeMap {
	labels := make(map[string]AgentID, len(officeTable))
	for k, v := range officeTable {
		labels[k] = v
	}
	return &OfficeMap{labels: labels}
}

// LoadOfficeMap returns the built-in table extended with overrides from a
// YAML file of the form `offices: {"Label": agentid}`. A missing file is not
// an error; the default table is returned.
func LoadOfficeMap(path string) (*OfficeMap, error) {
	m := DefaultOfficeMap()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from config, not event payloads
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read office map %s: %w", path, err)
	}

	var doc struct {
		Offices map[string]string `yaml:"offices"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse office map %s: %w", path, err)
	}

	for label, agent := range doc.Offices {
		m.labels[strings.ToLower(strings.TrimSpace(label))] = NormalizeAgent(agent)
	}
	return m, nil
}

// Resolve maps an office label to its agent id. Matching is case-insensitive.
func (m *OfficeMap) Resolve(office string) (AgentID, error) {
	id, ok := m.labels[strings.ToLower(strings.TrimSpace(office))]
	if !ok {
		return "", &UnknownOfficeError{Office: office}
	}
	return id, nil
}
