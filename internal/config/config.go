// Package config provides configuration types and loading for dispatchd.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Store, Graphs, Dispatch, Feed, Server, Journal.
type Config struct {
	Store    StoreConfig    `json:"store"`
	Graphs   GraphsConfig   `json:"graphs"`
	Dispatch DispatchConfig `json:"dispatch"`
	Feed     FeedConfig     `json:"feed"`
	Server   ServerConfig   `json:"server"`
	Journal  JournalConfig  `json:"journal"`
}

// StoreConfig locates the backing SPARQL endpoints.
type StoreConfig struct {
	QueryURL       string `json:"queryUrl" envconfig:"QUERY_URL"`
	UpdateURL      string `json:"updateUrl" envconfig:"UPDATE_URL"`
	TimeoutSeconds int    `json:"timeoutSeconds" envconfig:"TIMEOUT_SECONDS"`
}

// Timeout returns the per-request transport timeout.
func (c StoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GraphsConfig names the staging graphs and the partition naming scheme.
type GraphsConfig struct {
	// OrgPrefix is prepended to a partition token to form the partition
	// graph IRI. A graph carrying this prefix is a partition graph.
	OrgPrefix      string `json:"orgPrefix" envconfig:"ORG_PREFIX"`
	InsertsStaging string `json:"insertsStaging" envconfig:"INSERTS_STAGING"`
	DeletesStaging string `json:"deletesStaging" envconfig:"DELETES_STAGING"`
	// TokenPredicate reads a partition token off an owning entity.
	TokenPredicate string `json:"tokenPredicate" envconfig:"TOKEN_PREDICATE"`
}

// DispatchConfig tunes the dispatch pipeline.
type DispatchConfig struct {
	// PathsFile points at the declarative ownership-path table (JSON).
	PathsFile string `json:"pathsFile" envconfig:"PATHS_FILE"`
	// BatchSize is the starting mutation batch size; failures halve it.
	BatchSize int `json:"batchSize" envconfig:"BATCH_SIZE"`
	// QuiescenceMillis is the delay observed before each store mutation.
	QuiescenceMillis int `json:"quiescenceMillis" envconfig:"QUIESCENCE_MILLIS"`
	// StartupDelaySeconds postpones the startup scan until the store
	// connection has stabilized.
	StartupDelaySeconds int `json:"startupDelaySeconds" envconfig:"STARTUP_DELAY_SECONDS"`
	// FollowUpDelaySeconds debounces the post-placement rescan.
	FollowUpDelaySeconds int `json:"followUpDelaySeconds" envconfig:"FOLLOWUP_DELAY_SECONDS"`
}

// Quiescence returns the pre-mutation delay.
func (c DispatchConfig) Quiescence() time.Duration {
	return time.Duration(c.QuiescenceMillis) * time.Millisecond
}

// StartupDelay returns the startup-scan delay.
func (c DispatchConfig) StartupDelay() time.Duration {
	return time.Duration(c.StartupDelaySeconds) * time.Second
}

// FollowUpDelay returns the debounce window for follow-up scans.
func (c DispatchConfig) FollowUpDelay() time.Duration {
	return time.Duration(c.FollowUpDelaySeconds) * time.Second
}

// FeedConfig configures the optional Kafka changeset feed.
type FeedConfig struct {
	Enabled      bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers      string `json:"brokers" envconfig:"BROKERS"`
	GroupID      string `json:"groupId" envconfig:"GROUP_ID"`
	InsertsTopic string `json:"insertsTopic" envconfig:"INSERTS_TOPIC"`
	DeletesTopic string `json:"deletesTopic" envconfig:"DELETES_TOPIC"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `json:"host" envconfig:"HOST"`
	Port int    `json:"port" envconfig:"PORT"`
}

// JournalConfig configures the dispatch-result journal.
type JournalConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Path    string `json:"path" envconfig:"PATH"`
}
