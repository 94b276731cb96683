// Package model holds the example target types parsed by default and a
// catalog that names them.
package model

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/parsegest/internal/mapping"
)

// ChangeLog is an ordered list of change sets.
type ChangeLog struct {
	MinVersion string       `node:"minVersion" json:"minVersion,omitempty"`
	ChangeSets []*ChangeSet `node:"changeSets,item=changeSet" json:"changeSets"`
}

func (*ChangeLog) NodeName() string { return "changeLog" }

func (c *ChangeLog) ApplyDefaults() error {
	if c.ChangeSets == nil {
		c.ChangeSets = []*ChangeSet{}
	}
	return nil
}

// RequiredVersion is the constraint the running tool must satisfy.
func (c *ChangeLog) RequiredVersion() string {
	if c.MinVersion == "" {
		return ""
	}
	if strings.ContainsAny(c.MinVersion[:1], "<>=~^!") {
		return c.MinVersion
	}
	return ">= " + c.MinVersion
}

// FailAction says what happens when a change set fails.
type FailAction string

const (
	FailHalt     FailAction = "HALT"
	FailContinue FailAction = "CONTINUE"
	FailMarkRan  FailAction = "MARK_RAN"
	FailWarn     FailAction = "WARN"
)

func (FailAction) EnumValues() []string {
	return []string{string(FailHalt), string(FailContinue), string(FailMarkRan), string(FailWarn)}
}

// ChangeSet is one unit of change. DependsOn may only name change sets
// that appear earlier in the change log.
type ChangeSet struct {
	ID        string       `node:"id,required" json:"id"`
	Author    string       `node:"author,required" json:"author"`
	RunAlways bool         `json:"runAlways,omitempty"`
	OnFail    FailAction   `json:"onFail,omitempty"`
	Labels    []string     `json:"labels,omitempty"`
	DependsOn []*ChangeSet `node:"dependsOn,ref=changeSet" json:"-"`
	SQL       string       `node:"sql" json:"sql,omitempty"`
	Rollback  string       `json:"rollback,omitempty"`

	File string `node:",file" json:"file,omitempty"`
	Line int    `node:",line" json:"line,omitempty"`

	// Checksum is derived from the SQL by ApplyDefaults.
	Checksum string `node:"-" json:"checksum,omitempty"`
}

// NodeID keys change sets by id and author. References may use the id
// alone while it is unique.
func (c *ChangeSet) NodeID() (string, string) {
	return "changeSet", c.ID + mapping.IDSeparator + c.Author
}

func (c *ChangeSet) ApplyDefaults() error {
	if c.OnFail == "" {
		c.OnFail = FailHalt
	}
	h := sha256.Sum256([]byte(strings.TrimSpace(c.SQL)))
	c.Checksum = fmt.Sprintf("%x", h[:8])
	return nil
}

func (c *ChangeSet) Validate() error {
	if strings.TrimSpace(c.SQL) == "" {
		return fmt.Errorf("change set %s by %s has no sql", c.ID, c.Author)
	}
	if c.RunAlways && c.Rollback != "" {
		return fmt.Errorf("change set %s by %s runs always and cannot have a rollback", c.ID, c.Author)
	}
	return nil
}

// MarshalJSON writes dependencies by id and author.
func (c *ChangeSet) MarshalJSON() ([]byte, error) {
	type plain ChangeSet
	var deps []string
	for _, d := range c.DependsOn {
		_, key := d.NodeID()
		deps = append(deps, key)
	}
	return json.Marshal(struct {
		*plain
		DependsOn []string `json:"dependsOn,omitempty"`
	}{(*plain)(c), deps})
}
