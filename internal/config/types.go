package config

// Config holds all invoicex configuration.
type Config struct {
	Network        string `json:"network"                   mapstructure:"network"`
	DefaultWallet  string `json:"default_wallet"            mapstructure:"default_wallet"`
	RelayURL       string `json:"relay_url,omitempty"       mapstructure:"relay_url"`       // overrides the network's JSON-RPC relay
	MirrorNodeURL  string `json:"mirror_node_url,omitempty" mapstructure:"mirror_node_url"` // overrides the network's mirror node
	KeyringBackend string `json:"keyring_backend"           mapstructure:"keyring_backend"` // "auto" | "file"
	WaitForReceipt bool   `json:"wait_for_receipt"          mapstructure:"wait_for_receipt"`

	// internal: config dir path used for Save()
	configDir string
}
