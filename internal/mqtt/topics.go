package mqtt

import "fmt"

// Topics builds the topic hierarchy for one bridge instance.
//
// State topics live under the configured topic prefix; discovery configs
// live under the Home Assistant discovery prefix.
type Topics struct {
	Prefix          string
	DiscoveryPrefix string
	NodeID          string
}

// Availability is the bridge-level online/offline topic, also used as the
// last-will topic.
func (t Topics) Availability() string {
	return fmt.Sprintf("%s/%s/availability", t.Prefix, t.NodeID)
}

// State returns the state topic for one entity.
func (t Topics) State(component, key string) string {
	return fmt.Sprintf("%s/%s/%s/%s/state", t.Prefix, t.NodeID, component, key)
}

// Attributes returns the JSON attributes topic for one entity.
func (t Topics) Attributes(component, key string) string {
	return fmt.Sprintf("%s/%s/%s/%s/attributes", t.Prefix, t.NodeID, component, key)
}

// Command returns the command topic for a writable entity.
func (t Topics) Command(component, key string) string {
	return fmt.Sprintf("%s/%s/%s/%s/set", t.Prefix, t.NodeID, component, key)
}

// Discovery returns the Home Assistant discovery config topic.
func (t Topics) Discovery(component, key string) string {
	return fmt.Sprintf("%s/%s/%s_%s/config", t.DiscoveryPrefix, component, t.NodeID, key)
}

// CommandWildcard matches all command topics of this node.
func (t Topics) CommandWildcard() string {
	return fmt.Sprintf("%s/%s/+/+/set", t.Prefix, t.NodeID)
}
